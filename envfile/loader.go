// Package envfile is the external collaborator of spec.md section 6.3: it
// materializes the params.Params data model from a YAML rendering of the
// legacy BELLHOP .env description (the original whitespace-delimited text
// format is out of scope per section 1 — this loader consumes the
// equivalent YAML document a modern caller hands it).
package envfile

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/boundary"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/ssp"
)

func readFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Document is the YAML-level shape of an environment description, kept
// close to the field names of the upstream .env record order so a
// hand-authored file reads the same way BELLHOP's own does.
type Document struct {
	Title     string  `json:"Title"`
	FreqHz    float64 `json:"FreqHz"`
	Dim       string  `json:"Dim"` // "2D", "Nx2D", "3D"
	NumWorkers int    `json:"NumWorkers"`
	MaxMemory string  `json:"MaxMemory"` // "64M", "2Gi", etc; see ParseMemSize

	Beam struct {
		Type      string  `json:"Type"` // 4-character code, e.g. "G S "
		H0        float64 `json:"H0"`
		NSteps    int     `json:"NSteps"`
		BoxRangeM float64 `json:"BoxRangeM"`
		AmpFloor  float64 `json:"AmpFloor"`
		MaxBounce int     `json:"MaxBounce"`
	} `json:"Beam"`

	SSP struct {
		Kind string    `json:"Kind"`
		Z    []float64 `json:"Z"`
		CRe  []float64 `json:"CRe"`
		CIm  []float64 `json:"CIm"`
		Rho  []float64 `json:"Rho"`

		// Quad only: the range axis and the (depth x range) grid of real
		// sound speed, CGrid[iz][ir]; the imaginary (attenuation) part
		// still comes from the single CRe/CIm column above, per evalQuad.
		RangeM []float64   `json:"RangeM"`
		CGrid  [][]float64 `json:"CGrid"`

		// Hexahedral only: the full 3D regular-grid axes and speed tensor,
		// CHexRe/CHexIm[ix][iy][iz]. CHexIm may be omitted (zero
		// attenuation).
		X      []float64     `json:"X"`
		Y      []float64     `json:"Y"`
		CHexRe [][][]float64 `json:"CHexRe"`
		CHexIm [][][]float64 `json:"CHexIm"`
	} `json:"SSP"`

	Top Surface `json:"Top"`
	Bot Surface `json:"Bot"`

	ReflCoef []struct {
		ThetaDeg float64 `json:"ThetaDeg"`
		R        float64 `json:"R"`
		PhiDeg   float64 `json:"PhiDeg"`
	} `json:"ReflCoef"`

	Sources []struct {
		X, Y, Z float64
	} `json:"Sources"`
	LaunchAlphaDeg []float64 `json:"LaunchAlphaDeg"`
	LaunchBetaDeg  []float64 `json:"LaunchBetaDeg"`

	Receivers struct {
		RangeM []float64 `json:"RangeM"`
		DepthM []float64 `json:"DepthM"`
	} `json:"Receivers"`

	Mode string `json:"Mode"` // "Ray", "Eigenray", "TL", "Arrivals"
}

// Surface is one boundary description (Top or Bottom).
type Surface struct {
	Points []struct {
		X, Y, Z float64
		CP, CS  float64
		Rho     float64
		BC      string
	} `json:"Points"`
}

// Parse unmarshals YAML bytes into a Document. Mirrors the teacher's
// InputParameters.Parse shape: a single method wrapping yaml.Unmarshal.
func (d *Document) Parse(data []byte) error {
	return yaml.Unmarshal(data, d)
}

// Print writes a human-readable summary to stdout, the same texture as the
// teacher's InputParameters.Print (sorted keys, one line per field).
func (d *Document) Print() {
	fmt.Printf("%q\t\t= Title\n", d.Title)
	fmt.Printf("%8.2f\t\t= FreqHz\n", d.FreqHz)
	fmt.Printf("[%s]\t\t\t= Dim\n", d.Dim)
	fmt.Printf("[%s]\t\t\t= SSP.Kind\n", d.SSP.Kind)
	fmt.Printf("[%d]\t\t\t= len(Sources)\n", len(d.Sources))
	keys := make([]string, 0, 2)
	keys = append(keys, "Top", "Bot")
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("Surface[%s] has points\n", k)
	}
}

// Load reads fileRoot+".yaml", expands a leading "~", and builds a fully
// populated params.Params. logSink may be nil, in which case diagnostics
// are not logged anywhere; no "<fileRoot>.prt" file is opened here or by
// the CLI (cmd/run.go passes a sink that writes to stdout).
func Load(fileRoot string, logSink func(string)) (*params.Params, *params.Outputs, error) {
	expanded, err := homedir.Expand(fileRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("envfile: expanding file root %q: %w", fileRoot, err)
	}

	data, err := readFile(expanded + ".yaml")
	if err != nil {
		return nil, nil, fmt.Errorf("envfile: reading %q: %w", expanded+".yaml", err)
	}

	var doc Document
	if err := doc.Parse(data); err != nil {
		return nil, nil, fmt.Errorf("envfile: parsing %q: %w", expanded+".yaml", err)
	}

	return build(&doc, logSink)
}

func build(doc *Document, logSink func(string)) (*params.Params, *params.Outputs, error) {
	errs := params.NewErrorState()

	dim, err := parseDim(doc.Dim)
	if err != nil {
		errs.Raise(params.ErrInputFatal, "", logSink, err.Error())
		return nil, nil, err
	}

	sspTable, err := buildSSP(doc)
	if err != nil {
		return nil, nil, err
	}

	top, err := buildSurface(doc.Top, dim)
	if err != nil {
		return nil, nil, err
	}
	bot, err := buildSurface(doc.Bot, dim)
	if err != nil {
		return nil, nil, err
	}

	// Reflection-coefficient table slices are always (re)allocated fresh,
	// never reused from a prior load: Open Question resolution 1.
	refl := params.ReflCoefTable{Entries: make([]params.ReflCoefEntry, len(doc.ReflCoef))}
	for i, e := range doc.ReflCoef {
		refl.Entries[i] = params.ReflCoefEntry{
			ThetaDeg: e.ThetaDeg,
			R:        e.R,
			PhiRad:   e.PhiDeg * degToRad,
		}
	}

	sources := make([]params.Source, len(doc.Sources))
	for i, s := range doc.Sources {
		sources[i] = params.Source{X: s.X, Y: s.Y, Z: s.Z}
	}

	launchAlpha := make([]params.Real, len(doc.LaunchAlphaDeg))
	for i, a := range doc.LaunchAlphaDeg {
		launchAlpha[i] = a * degToRad
	}
	launchBeta := make([]params.Real, len(doc.LaunchBetaDeg))
	for i, b := range doc.LaunchBetaDeg {
		launchBeta[i] = b * degToRad
	}
	if dim == params.Dim3D && len(launchBeta) == 0 {
		launchBeta = []params.Real{0}
	}

	mode, err := parseMode(doc.Mode)
	if err != nil {
		return nil, nil, err
	}

	maxMem, err := ParseMemSize(doc.MaxMemory)
	if err != nil {
		return nil, nil, err
	}

	numWorkers := doc.NumWorkers

	p := &params.Params{
		Dim:    dim,
		FreqHz: doc.FreqHz,
		Beam:   buildBeam(doc),
		SSP:    sspTable,
		Top:    top,
		Bot:    bot,
		Refl:   refl,

		Sources:     sources,
		LaunchAlpha: launchAlpha,
		LaunchBeta:  launchBeta,
		Receivers: params.ReceiverGrid{
			Rr: doc.Receivers.RangeM,
			Rz: doc.Receivers.DepthM,
		},

		Mode:       mode,
		NumWorkers: numWorkers,
		MaxMemory:  maxMem,

		LogSink: logSink,
		Errors:  errs,
		Budget:  params.NewMemoryBudget(maxMem),
	}

	nRcvr := len(p.Receivers.Rr) * len(p.Receivers.Rz)
	out := &params.Outputs{
		Field:    make([]params.Complex, nRcvr),
		Arrivals: make([][]params.Arrival, nRcvr),
	}

	return p, out, nil
}

const degToRad = math.Pi / 180

// ParseMemSize parses the --mem=<N>[k|K|M|G][i][B|b] grammar of spec.md
// section 6.2, grounded 1:1 on original_source/src/cmdline.cpp's endswith
// chain: a trailing 'i' switches the unit base from 1000 to 1024, and a
// trailing 'B'/'b' is accepted but does not change the magnitude. An empty
// string means unbounded (MaxMemory <= 0).
func ParseMemSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasSuffix(s, "B") || strings.HasSuffix(s, "b") {
		s = s[:len(s)-1]
	}
	base := int64(1000)
	if strings.HasSuffix(s, "i") {
		base = 1024
		s = s[:len(s)-1]
	}
	mult := int64(1)
	if len(s) > 0 {
		switch s[len(s)-1] {
		case 'k', 'K':
			mult = base
			s = s[:len(s)-1]
		case 'M':
			mult = base * base
			s = s[:len(s)-1]
		case 'G':
			mult = base * base * base
			s = s[:len(s)-1]
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("envfile: invalid --mem value %q: %w", s, err)
	}
	return n * mult, nil
}

func parseDim(s string) (params.Dimensionality, error) {
	switch s {
	case "2D", "":
		return params.Dim2D, nil
	case "Nx2D", "2D3D", "2.5D":
		return params.DimNx2D, nil
	case "3D":
		return params.Dim3D, nil
	default:
		return 0, fmt.Errorf("envfile: unknown Dim %q", s)
	}
}

func parseMode(s string) (params.RunMode, error) {
	switch s {
	case "Ray", "":
		return params.ModeRay, nil
	case "Eigenray":
		return params.ModeEigenray, nil
	case "TL":
		return params.ModeTL, nil
	case "Arrivals":
		return params.ModeArrivals, nil
	default:
		return 0, fmt.Errorf("envfile: unknown Mode %q", s)
	}
}

// buildBeam materializes the beam shape code plus the stepper's numeric
// configuration (spec.md section 4.D), defaulting any field the document
// leaves at its zero value to the same conservative constants BELLHOP
// itself defaults an absent Beam block to.
func buildBeam(doc *Document) params.BeamType {
	b := params.BeamType{
		Type:      beamCode(doc.Beam.Type),
		H0:        doc.Beam.H0,
		NSteps:    doc.Beam.NSteps,
		BoxR:      doc.Beam.BoxRangeM,
		AmpFloor:  doc.Beam.AmpFloor,
		MaxBounce: doc.Beam.MaxBounce,
	}
	if b.H0 <= 0 {
		b.H0 = 1.0
	}
	if b.NSteps <= 0 {
		b.NSteps = 5000
	}
	if b.BoxR <= 0 {
		b.BoxR = rangeBoxDefault(doc)
	}
	if b.AmpFloor <= 0 {
		b.AmpFloor = 1e-6
	}
	if b.MaxBounce <= 0 {
		b.MaxBounce = 500
	}
	return b
}

// rangeBoxDefault falls back to 1.05x the farthest tabulated receiver
// range, or 10km if no receivers are given, mirroring the "don't trace
// past where anyone is listening" convention of the upstream Beam.Box.
func rangeBoxDefault(doc *Document) float64 {
	maxR := 0.0
	for _, r := range doc.Receivers.RangeM {
		if r > maxR {
			maxR = r
		}
	}
	if maxR <= 0 {
		return 10000
	}
	return maxR * 1.05
}

func beamCode(s string) [4]byte {
	var b [4]byte
	for i := 0; i < 4 && i < len(s); i++ {
		b[i] = s[i]
	}
	for i := 0; i < 4; i++ {
		if b[i] == 0 {
			b[i] = ' '
		}
	}
	return b
}

// buildSSP materializes every field SSPTable's evaluator (component A)
// needs for the document's Kind: PCHIP and Cubic-spline get their
// per-segment coefficient tableau built here once at load time, rather than
// re-solved on every Eval call; Quad and Hexahedral get their extra grid
// axes copied in. N-linear, C-linear and Analytic need nothing past the
// base columns.
func buildSSP(doc *Document) (params.SSPTable, error) {
	n := len(doc.SSP.Z)
	if n != len(doc.SSP.CRe) || (len(doc.SSP.CIm) != 0 && len(doc.SSP.CIm) != n) || n != len(doc.SSP.Rho) {
		return params.SSPTable{}, fmt.Errorf("envfile: SSP column length mismatch")
	}
	for i := 1; i < n; i++ {
		if doc.SSP.Z[i] <= doc.SSP.Z[i-1] {
			return params.SSPTable{}, fmt.Errorf("envfile: SSP depth vector not strictly increasing at index %d", i)
		}
	}
	kind, err := parseSSPKind(doc.SSP.Kind)
	if err != nil {
		return params.SSPTable{}, err
	}
	c := make([]params.Complex, n)
	for i := range c {
		im := 0.0
		if len(doc.SSP.CIm) != 0 {
			im = doc.SSP.CIm[i]
		}
		c[i] = complex(doc.SSP.CRe[i], im)
	}

	table := params.SSPTable{
		Kind: kind,
		Z:    append([]float64{}, doc.SSP.Z...),
		C:    c,
		Rho:  append([]float64{}, doc.SSP.Rho...),
	}

	switch kind {
	case params.SSPPCHIP:
		b, cc, d, err := ssp.BuildPCHIPCoefs(table.Z, table.C)
		if err != nil {
			return params.SSPTable{}, fmt.Errorf("envfile: building PCHIP coefficients: %w", err)
		}
		table.CoefB, table.CoefC, table.CoefD = b, cc, d
	case params.SSPCubicSpline:
		b, cc, d, err := ssp.BuildCubicSplineCoefs(table.Z, table.C)
		if err != nil {
			return params.SSPTable{}, fmt.Errorf("envfile: building cubic-spline coefficients: %w", err)
		}
		table.CoefB, table.CoefC, table.CoefD = b, cc, d
	case params.SSPQuad:
		if err := fillQuadGrid(&table, doc); err != nil {
			return params.SSPTable{}, err
		}
	case params.SSPHexahedral:
		if err := fillHexahedralGrid(&table, doc); err != nil {
			return params.SSPTable{}, err
		}
	}

	return table, nil
}

// fillQuadGrid copies the range axis and the depth-by-range real-speed grid
// into table.R/table.CMat, matching evalQuad's CMat[iz][ir] indexing.
func fillQuadGrid(table *params.SSPTable, doc *Document) error {
	nr := len(doc.SSP.RangeM)
	if nr < 2 {
		return fmt.Errorf("envfile: Quad SSP needs at least 2 range points")
	}
	if len(doc.SSP.CGrid) != len(table.Z) {
		return fmt.Errorf("envfile: Quad SSP.CGrid row count %d does not match SSP.Z length %d", len(doc.SSP.CGrid), len(table.Z))
	}
	for iz, row := range doc.SSP.CGrid {
		if len(row) != nr {
			return fmt.Errorf("envfile: Quad SSP.CGrid row %d has %d columns, want %d to match RangeM", iz, len(row), nr)
		}
	}
	for i := 1; i < nr; i++ {
		if doc.SSP.RangeM[i] <= doc.SSP.RangeM[i-1] {
			return fmt.Errorf("envfile: Quad SSP.RangeM not strictly increasing at index %d", i)
		}
	}
	table.R = append([]float64{}, doc.SSP.RangeM...)
	table.CMat = make([][]params.Real, len(doc.SSP.CGrid))
	for iz, row := range doc.SSP.CGrid {
		table.CMat[iz] = append([]params.Real{}, row...)
	}
	return nil
}

// fillHexahedralGrid copies the x/y axes and the 3D speed tensor into
// table.X/table.Y/table.CHex, matching evalHexahedral's CHex[ix][iy][iz]
// indexing; an absent CHexIm leaves the grid lossless (zero attenuation).
func fillHexahedralGrid(table *params.SSPTable, doc *Document) error {
	nx, ny, nz := len(doc.SSP.X), len(doc.SSP.Y), len(table.Z)
	if nx < 2 || ny < 2 {
		return fmt.Errorf("envfile: Hexahedral SSP needs at least 2 points on each of X and Y")
	}
	if len(doc.SSP.CHexRe) != nx {
		return fmt.Errorf("envfile: Hexahedral SSP.CHexRe has %d X-slices, want %d", len(doc.SSP.CHexRe), nx)
	}
	table.X = append([]float64{}, doc.SSP.X...)
	table.Y = append([]float64{}, doc.SSP.Y...)
	table.CHex = make([][][]params.Complex, nx)
	for ix, plane := range doc.SSP.CHexRe {
		if len(plane) != ny {
			return fmt.Errorf("envfile: Hexahedral SSP.CHexRe[%d] has %d Y-rows, want %d", ix, len(plane), ny)
		}
		table.CHex[ix] = make([][]params.Complex, ny)
		for iy, col := range plane {
			if len(col) != nz {
				return fmt.Errorf("envfile: Hexahedral SSP.CHexRe[%d][%d] has %d Z-samples, want %d", ix, iy, len(col), nz)
			}
			table.CHex[ix][iy] = make([]params.Complex, nz)
			for iz, re := range col {
				im := 0.0
				if len(doc.SSP.CHexIm) > ix && len(doc.SSP.CHexIm[ix]) > iy && len(doc.SSP.CHexIm[ix][iy]) > iz {
					im = doc.SSP.CHexIm[ix][iy][iz]
				}
				table.CHex[ix][iy][iz] = complex(re, im)
			}
		}
	}
	return nil
}

func parseSSPKind(s string) (params.SSPKind, error) {
	switch s {
	case "N-linear", "":
		return params.SSPNLinear, nil
	case "C-linear":
		return params.SSPCLinear, nil
	case "PCHIP":
		return params.SSPPCHIP, nil
	case "Cubic-spline":
		return params.SSPCubicSpline, nil
	case "Quad":
		return params.SSPQuad, nil
	case "Hexahedral":
		return params.SSPHexahedral, nil
	case "Analytic":
		return params.SSPAnalytic, nil
	default:
		return 0, fmt.Errorf("envfile: unknown SSP.Kind %q", s)
	}
}

// buildSurface materializes one Top/Bottom boundary. In 2D/Nx2D it's a
// polyline ordered by range, and tangent/normal come from each point's
// neighbors (computeSegmentGeometry). In 3D the points are a scattered
// bathymetry/altimetry cloud over (X, Y); Triangulate seeds the
// TriAdjacency graph the runner walks (component B), so a loaded 3D
// environment reaches the same triangulated boundary path the hand-built
// test fixtures already exercise.
func buildSurface(s Surface, dim params.Dimensionality) (params.Boundary, error) {
	pts := make([]params.BdryPt, len(s.Points))
	geom := make([]boundary.Pt2, len(s.Points))
	for i, sp := range s.Points {
		bc := params.ParseBCTag(sp.BC)
		if bc == params.BCInternal {
			return params.Boundary{}, fmt.Errorf("envfile: boundary condition 'P' (internal reflection) is rejected at load time")
		}
		pts[i] = params.BdryPt{
			X: sp.X, Y: sp.Y, Z: sp.Z,
			HS: params.HSInfo{
				CP:  complex(sp.CP, 0),
				CS:  complex(sp.CS, 0),
				Rho: sp.Rho,
				BC:  bc,
			},
		}
		geom[i] = boundary.Pt2{X: [2]float64{sp.X, sp.Z}}
	}

	if dim == params.Dim3D && len(pts) >= 3 {
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i], ys[i] = p.X, p.Y
		}
		tris := boundary.Triangulate(xs, ys)
		if len(tris) == 0 {
			return params.Boundary{}, fmt.Errorf("envfile: 3D boundary triangulation produced no triangles for %d points", len(pts))
		}
		computeTriangleGeometry(pts, tris)
		return params.Boundary{Points: pts, Tris: tris}, nil
	}

	computeSegmentGeometry(pts, geom)
	return params.Boundary{Points: pts}, nil
}

// computeTriangleGeometry sets each vertex's normal/tangent from the first
// triangle that references it, enough for reflect.Reflect's 3D branch
// (section 4.E); a vertex shared by several triangles keeps whichever
// triangle's normal claims it first, same as the teacher's single-pass
// geometry derivation for the 2D polyline case above.
func computeTriangleGeometry(pts []params.BdryPt, tris [][3]int) {
	set := make([]bool, len(pts))
	for _, t := range tris {
		a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
		ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
		vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
		nx, ny, nz := uy*vz-uz*vy, uz*vx-ux*vz, ux*vy-uy*vx
		norm := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if norm == 0 {
			continue
		}
		n := params.Vec3{X: -nx / norm, Y: -ny / norm, Z: -nz / norm}
		tangent := params.Vec3{X: ux, Y: uy, Z: uz}.Scale(1 / math.Max(math.Sqrt(ux*ux+uy*uy+uz*uz), 1e-12))
		for _, v := range t {
			if set[v] {
				continue
			}
			pts[v].Normal = n
			pts[v].Tangent = tangent
			set[v] = true
		}
	}
}

// computeSegmentGeometry fills each point's tangent/normal from its
// neighbors in the 2D/Nx2D polyline case; 3D triangulated boundaries
// compute per-triangle normals separately once Triangulate has run.
func computeSegmentGeometry(pts []params.BdryPt, geom []boundary.Pt2) {
	n := len(pts)
	for i := 0; i < n-1; i++ {
		dx := geom[i+1].X[0] - geom[i].X[0]
		dz := geom[i+1].X[1] - geom[i].X[1]
		norm := dx*dx + dz*dz
		if norm == 0 {
			continue
		}
		inv := 1 / math.Sqrt(norm)
		tx, tz := dx*inv, dz*inv
		pts[i].Tangent = params.Vec3{X: tx, Z: tz}
		pts[i].Normal = params.Vec3{X: -tz, Z: tx}
	}
	if n >= 2 {
		pts[n-1].Tangent = pts[n-2].Tangent
		pts[n-1].Normal = pts[n-2].Normal
	}
}
