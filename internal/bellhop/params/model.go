package params

import (
	"sync"
	"sync/atomic"
)

// Dimensionality is the tagged dispatch selected at setup (section 9):
// O3D/R3D are fixed for the lifetime of a Params instance, never branched
// on again inside the stepping hot loop.
type Dimensionality uint8

const (
	Dim2D   Dimensionality = iota // O3D=false, R3D=false
	DimNx2D                      // O3D=true,  R3D=false
	Dim3D                        // O3D=true,  R3D=true
)

func (d Dimensionality) O3D() bool { return d != Dim2D }
func (d Dimensionality) R3D() bool { return d == Dim3D }

// SegState is the mutable per-ray segment cursor passed by reference
// through the stepper and SSP evaluator (section 9): it must never be
// shared across workers.
type SegState struct {
	ISegz, ISegr int
	ISegx, ISegy int // only used in Hexahedral/3D
}

// SSPNode is one tabulated depth (and, for Quad/Hexahedral, range/x/y) node.
type SSPNode struct {
	Z   Real
	C   Complex
	Rho Real
}

// SSPTable is the full SSP data model of section 3: a strictly increasing
// depth vector plus per-kind coefficient storage. Only the fields relevant
// to Kind are populated by the loader; the evaluator dispatches on Kind.
type SSPTable struct {
	Kind Kind1D

	Z   []Real
	C   []Complex
	Rho []Real

	// PCHIP / cubic-spline per-segment coefficients, four per segment
	// (a + b*dz + c*dz^2 + d*dz^3), indexed by segment i.
	CoefB, CoefC, CoefD []Complex

	// Quad: range-dependent real part on a (range x depth) grid; imaginary
	// part (attenuation) always taken from the single-column C above.
	R     []Real
	CMat  [][]Real // CMat[iz][ir]

	// Hexahedral: full 3D regular grid.
	X, Y []Real
	CHex [][][]Complex // CHex[ix][iy][iz]
}

// Kind1D aliases SSPKind for readability at call sites that only deal with
// the table, not the evaluator.
type Kind1D = SSPKind

// HSInfo is a half-space's acoustic/elastic properties (section 3).
type HSInfo struct {
	CP   Complex // compressional speed
	CS   Complex // shear speed; zero selects pressure-only reflection
	Rho  Real
	BC   BCTag
}

// BdryPt is one tabulated boundary point (top or bottom), 2D/Nx2D polyline
// node or 3D triangulation vertex.
type BdryPt struct {
	X, Y, Z    Real
	HS         HSInfo
	Tangent    Vec3
	Normal     Vec3
	Kxx, Kxy, Kyy Real
}

// Boundary is one of Top/Bottom: a polyline (2D/Nx2D) or triangulation (3D)
// of BdryPt, plus (3D only) the triangle index list.
type Boundary struct {
	Points []BdryPt
	Tris   [][3]int // empty outside 3D
}

// ReflCoefEntry is one tabulated (theta, R, phi) reflection-coefficient
// sample, theta in degrees ascending, phi unwrapped in radians.
type ReflCoefEntry struct {
	ThetaDeg Real
	R        Real
	PhiRad   Real
}

// ReflCoefTable is the monotone table queried by the reflector's File
// boundary condition.
type ReflCoefTable struct {
	Entries []ReflCoefEntry
}

// Source is one source position; launch-angle fans are shared across all
// sources in a run.
type Source struct {
	X, Y, Z Real
}

// ReceiverGrid is the 2D/Nx2D depth x range receiver grid used by TL and
// arrivals run modes.
type ReceiverGrid struct {
	Rr []Real // ranges
	Rz []Real // depths
}

// RunMode selects which output the runner accumulates into.
type RunMode uint8

const (
	ModeRay RunMode = iota
	ModeEigenray
	ModeTL
	ModeArrivals
)

// Params is the immutable-per-run snapshot of section 3: built once by the
// loader, borrowed for the duration of Run, mutable between Run calls per
// the setup/run re-entrant pattern (SPEC_FULL, SUPPLEMENTED FEATURES).
type Params struct {
	Dim Dimensionality

	FreqHz Real
	Beam   BeamType

	SSP   SSPTable
	Top   Boundary
	Bot   Boundary
	Refl  ReflCoefTable

	Sources     []Source
	LaunchAlpha []Real // elevation fan, radians
	LaunchBeta  []Real // azimuth fan, radians (3D only)
	Receivers   ReceiverGrid

	Mode RunMode

	NumWorkers int
	MaxMemory  int64 // bytes; <= 0 means unbounded

	LogSink func(string)
	Errors  *ErrorState
	Budget  *MemoryBudget

	jobCounter   uint64
	eigenRetrace bool
}

// Outputs is the per-run accumulator container of section 3/4.G, allocated
// by setup and reused across repeated Run calls.
type Outputs struct {
	Rays     []RayRecord
	Field    []Complex // receiver-major UField, len = len(Rz)*len(Rr)
	Eigens   []EigenHit
	Arrivals [][]Arrival // per receiver

	mu sync.Mutex
}

// AddRay appends a completed trajectory under the output lock. TL and
// arrivals modes do not call this; only Ray/Eigenray run modes do.
func (o *Outputs) AddRay(r RayRecord) {
	o.mu.Lock()
	o.Rays = append(o.Rays, r)
	o.mu.Unlock()
}

// AddEigenHit appends a hit under the output lock, dropping it (and
// counting the drop via errs) once memsize is reached.
func (o *Outputs) AddEigenHit(h EigenHit, memsize int, errs *ErrorState, logSink func(string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if memsize > 0 && len(o.Eigens) >= memsize {
		errs.Raise(ErrPerRaySoft, "eigenray-overflow", logSink, "eigenray store exceeded memsize, dropping hits")
		return
	}
	o.Eigens = append(o.Eigens, h)
}

// SnapshotEigens copies the current eigenray hit list under the output
// lock, used by the scheduler's second pass to know which launch indices
// to re-trace without holding the lock during that (possibly lengthy) pass.
func (o *Outputs) SnapshotEigens() []EigenHit {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]EigenHit{}, o.Eigens...)
}

// AddField accumulates a per-ray contribution into the shared TL field with
// atomic-by-mutex complex add (section 4.G/9: either partial-plus-reduce or
// shared atomic add is acceptable; this chooses the latter for simplicity).
func (o *Outputs) AddField(index int, contribution Complex) {
	o.mu.Lock()
	o.Field[index] += contribution
	o.mu.Unlock()
}

// AddArrival appends an arrival to receiver iRcvr's list, evicting the
// smallest-amplitude entry once capped at maxArrivals.
func (o *Outputs) AddArrival(iRcvr int, a Arrival, maxArrivals int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	list := o.Arrivals[iRcvr]
	if maxArrivals <= 0 || len(list) < maxArrivals {
		o.Arrivals[iRcvr] = append(list, a)
		return
	}
	minIdx := 0
	for i, e := range list {
		if e.Amplitude < list[minIdx].Amplitude {
			minIdx = i
		}
	}
	if a.Amplitude > list[minIdx].Amplitude {
		list[minIdx] = a
	}
}

// RayRecord is a compressed trajectory for Ray/Eigenray run modes.
type RayRecord struct {
	ISrc, IAlpha, IBeta int
	Points2D            []RayPoint2D
	Points3D            []RayPoint3D
}

// EigenHit is a launch index plus step count recorded by the eigenray
// accumulator's first pass, retraced by the scheduler's second pass.
type EigenHit struct {
	ISrc, IAlpha, IBeta int
	NSteps              int
}

// Arrival is one ray's contribution at a receiver (section 3/glossary).
type Arrival struct {
	Amplitude   Real
	Phase       Real
	Delay       Real
	LaunchAngle Real
	ArrivalAngle Real
	NumTopBnc   int
	NumBotBnc   int
}

// NextJob hands out the next flat job index atomically; callers map it back
// to (iSrc, iAlpha, iBeta) via DecodeJob. Returns ok=false once the job
// space is exhausted.
func (p *Params) NextJob(total uint64) (idx uint64, ok bool) {
	idx = atomic.AddUint64(&p.jobCounter, 1) - 1
	if idx >= total {
		return 0, false
	}
	return idx, true
}

// DecodeJob maps a flat job index back to (source, alpha, beta) indices
// given the fan sizes; nBeta is 1 outside 3D.
func DecodeJob(idx uint64, nAlpha, nBeta int) (iSrc, iAlpha, iBeta int) {
	perSrc := nAlpha * nBeta
	iSrc = int(idx) / perSrc
	rem := int(idx) % perSrc
	iAlpha = rem / nBeta
	iBeta = rem % nBeta
	return
}

// ResetJobs rewinds the job counter to zero, called at the start of each
// Run (the job counter, unlike the rest of Params, is reset per-run).
func (p *Params) ResetJobs() { p.jobCounter = 0 }

// SetEigenRetrace marks whether the current dispatch pass is eigenray mode's
// second, trajectory-filling pass (section 4.H) rather than its first,
// hit-detecting pass; set once before that pass's workers are spawned and
// read-only for their duration, so no synchronization beyond goroutine
// creation's happens-before is needed.
func (p *Params) SetEigenRetrace(v bool) { p.eigenRetrace = v }

// EigenRetrace reports the state set by SetEigenRetrace.
func (p *Params) EigenRetrace() bool { return p.eigenRetrace }
