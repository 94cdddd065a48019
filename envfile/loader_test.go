package envfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

func TestParseMemSizeGrammar(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"64M", 64 * 1000 * 1000},
		{"64MB", 64 * 1000 * 1000},
		{"2Gi", 2 * 1024 * 1024 * 1024},
		{"512Ki", 512 * 1024},
		{"100", 100},
	}
	for _, c := range cases {
		got, err := ParseMemSize(c.in)
		require.NoError(t, err, c.in)
		require.Equal(t, c.want, got, c.in)
	}
}

func TestParseMemSizeRejectsGarbage(t *testing.T) {
	_, err := ParseMemSize("not-a-size")
	require.Error(t, err)
}

func TestBuildBeamDefaultsZeroFields(t *testing.T) {
	doc := &Document{}
	doc.Beam.Type = "G S "
	b := buildBeam(doc)
	require.Equal(t, [4]byte{'G', ' ', 'S', ' '}, b.Type)
	require.Equal(t, 1.0, b.H0)
	require.Equal(t, 5000, b.NSteps)
	require.Equal(t, 1e-6, b.AmpFloor)
	require.Equal(t, 500, b.MaxBounce)
	require.Equal(t, 10000.0, b.BoxR)
}

func TestBuildBeamBoxDefaultsToFarthestReceiver(t *testing.T) {
	doc := &Document{}
	doc.Receivers.RangeM = []float64{1000, 5000, 2500}
	b := buildBeam(doc)
	require.InDelta(t, 5250.0, b.BoxR, 1e-9)
}

func TestBuildBeamKeepsExplicitNumericFields(t *testing.T) {
	doc := &Document{}
	doc.Beam.H0 = 25
	doc.Beam.NSteps = 1000
	doc.Beam.BoxRangeM = 8000
	doc.Beam.AmpFloor = 1e-3
	doc.Beam.MaxBounce = 50
	b := buildBeam(doc)
	require.Equal(t, 25.0, b.H0)
	require.Equal(t, 1000, b.NSteps)
	require.Equal(t, 8000.0, b.BoxR)
	require.Equal(t, 1e-3, b.AmpFloor)
	require.Equal(t, 50, b.MaxBounce)
}

func TestParseDimAliases(t *testing.T) {
	for _, s := range []string{"Nx2D", "2D3D", "2.5D"} {
		dim, err := parseDim(s)
		require.NoError(t, err)
		require.Equal(t, dim.O3D(), true)
		require.Equal(t, dim.R3D(), false)
	}
	dim, err := parseDim("3D")
	require.NoError(t, err)
	require.True(t, dim.R3D())
}

func baseSSPDoc(kind string) *Document {
	doc := &Document{}
	doc.SSP.Kind = kind
	doc.SSP.Z = []float64{0, 50, 100, 150, 200}
	doc.SSP.CRe = []float64{1500, 1490, 1485, 1495, 1510}
	doc.SSP.Rho = []float64{1, 1, 1, 1, 1}
	return doc
}

func TestBuildSSPPopulatesPCHIPCoefficients(t *testing.T) {
	doc := baseSSPDoc("PCHIP")
	table, err := buildSSP(doc)
	require.NoError(t, err)
	require.Equal(t, params.SSPPCHIP, table.Kind)
	require.Len(t, table.CoefB, len(table.Z)-1)
	require.Len(t, table.CoefC, len(table.Z)-1)
	require.Len(t, table.CoefD, len(table.Z)-1)
}

func TestBuildSSPPopulatesCubicSplineCoefficients(t *testing.T) {
	doc := baseSSPDoc("Cubic-spline")
	table, err := buildSSP(doc)
	require.NoError(t, err)
	require.Equal(t, params.SSPCubicSpline, table.Kind)
	require.Len(t, table.CoefB, len(table.Z)-1)
}

func TestBuildSSPQuadFillsRangeGrid(t *testing.T) {
	doc := baseSSPDoc("Quad")
	doc.SSP.RangeM = []float64{0, 1000, 2000}
	doc.SSP.CGrid = [][]float64{
		{1500, 1502, 1504},
		{1490, 1491, 1492},
		{1485, 1486, 1487},
		{1495, 1496, 1497},
		{1510, 1511, 1512},
	}
	table, err := buildSSP(doc)
	require.NoError(t, err)
	require.Equal(t, params.SSPQuad, table.Kind)
	require.Equal(t, doc.SSP.RangeM, table.R)
	require.Len(t, table.CMat, len(table.Z))
	require.Equal(t, 1504.0, table.CMat[0][2])
}

func TestBuildSSPQuadRejectsMismatchedGrid(t *testing.T) {
	doc := baseSSPDoc("Quad")
	doc.SSP.RangeM = []float64{0, 1000}
	doc.SSP.CGrid = [][]float64{{1500, 1502}}
	_, err := buildSSP(doc)
	require.Error(t, err)
}

func TestBuildSSPHexahedralFillsGrid(t *testing.T) {
	doc := baseSSPDoc("Hexahedral")
	doc.SSP.X = []float64{0, 1000}
	doc.SSP.Y = []float64{0, 1000}
	plane := func(v float64) [][]float64 {
		return [][]float64{
			{v, v + 1, v + 2, v + 3, v + 4},
			{v, v + 1, v + 2, v + 3, v + 4},
		}
	}
	doc.SSP.CHexRe = [][][]float64{plane(1480), plane(1485)}
	table, err := buildSSP(doc)
	require.NoError(t, err)
	require.Equal(t, params.SSPHexahedral, table.Kind)
	require.Equal(t, doc.SSP.X, table.X)
	require.Len(t, table.CHex, 2)
	require.Equal(t, complex(1480, 0), table.CHex[0][0][0])
}

func TestBuildSurface3DTriangulatesScatteredPoints(t *testing.T) {
	s := Surface{Points: []struct {
		X, Y, Z float64
		CP, CS  float64
		Rho     float64
		BC      string
	}{
		{X: 0, Y: 0, Z: 100, BC: "R"},
		{X: 1000, Y: 0, Z: 110, BC: "R"},
		{X: 0, Y: 1000, Z: 105, BC: "R"},
		{X: 1000, Y: 1000, Z: 115, BC: "R"},
	}}
	b, err := buildSurface(s, params.Dim3D)
	require.NoError(t, err)
	require.NotEmpty(t, b.Tris)
	for _, p := range b.Points {
		require.NotEqual(t, params.Vec3{}, p.Normal)
	}
}

func TestBuildSurface2DStaysPolyline(t *testing.T) {
	s := Surface{Points: []struct {
		X, Y, Z float64
		CP, CS  float64
		Rho     float64
		BC      string
	}{
		{X: 0, Y: 0, Z: 100, BC: "R"},
		{X: 1000, Y: 0, Z: 110, BC: "R"},
	}}
	b, err := buildSurface(s, params.Dim2D)
	require.NoError(t, err)
	require.Empty(t, b.Tris)
}
