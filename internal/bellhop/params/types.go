// Package params holds the Params/Outputs data model shared by every
// component: scalar and vector types, the RayPoint state carried through
// the stepper, the SSP and boundary table shapes, and the error-state
// bitset of section 7.
package params

import (
	"math"
	"sync"
	"sync/atomic"
)

// Real is fixed to float64; see DESIGN.md for why the binary32 option named
// in the source spec is not realized as a second code path.
type Real = float64

// Complex is a pair of Real, used wherever the source model calls for a
// complex sound speed, travel time, or reflection coefficient.
type Complex = complex128

// Vec2 is a 2-component real vector (range, depth in 2D/Nx2D).
type Vec2 struct{ X, Y Real }

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s Real) Vec2    { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) Real      { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Cross(b Vec2) Real    { return a.X*b.Y - a.Y*b.X }
func (a Vec2) Norm() Real { return math.Sqrt(a.Dot(a)) }
func (a Vec2) Normalized() Vec2 {
	n := a.Norm()
	if n == 0 {
		return a
	}
	return a.Scale(1 / n)
}

// Vec3 is a 3-component real vector (x, y, z in full 3D).
type Vec3 struct{ X, Y, Z Real }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s Real) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) Real  { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{a.Y*b.Z - a.Z*b.Y, a.Z*b.X - a.X*b.Z, a.X*b.Y - a.Y*b.X}
}
func (a Vec3) Norm() Real { return math.Sqrt(a.Dot(a)) }
func (a Vec3) Normalized() Vec3 {
	n := a.Norm()
	if n == 0 {
		return a
	}
	return a.Scale(1 / n)
}

// RayPoint2D is the stepped ray state for 2D and Nx2D (R3D=false): position
// and tangent in the ray plane, scalar complex paraxial p/q, local sound
// speed, travel time, amplitude, phase, and bounce counters.
type RayPoint2D struct {
	X, T       Vec2
	P, Q       Complex
	C          Complex
	Tau        Complex
	Amp, Phase Real
	NumTopBnc  int
	NumBotBnc  int
}

// RayPoint3D is the stepped ray state for full 3D (R3D=true): position and
// tangent in R3, paraxial p/q as two complex-valued Vec2 columns (Open
// Question resolution 5), and an auxiliary angle phi tracking rotation of
// the ray-centered frame about the tangent.
type RayPoint3D struct {
	X, T       Vec3
	P, Q       [2]Vec2C
	C          Complex
	Tau        Complex
	Amp, Phase Real
	Phi        Real
	NumTopBnc  int
	NumBotBnc  int
}

// Vec2C is a complex-valued 2-vector, used for the 3D paraxial p/q columns.
type Vec2C struct{ X, Y Complex }

func (a Vec2C) Add(b Vec2C) Vec2C   { return Vec2C{a.X + b.X, a.Y + b.Y} }
func (a Vec2C) Scale(s Complex) Vec2C { return Vec2C{a.X * s, a.Y * s} }

// SSPKind is the discriminant of an SSP table's interpolation method.
type SSPKind uint8

const (
	SSPNLinear SSPKind = iota
	SSPCLinear
	SSPPCHIP
	SSPCubicSpline
	SSPQuad
	SSPHexahedral
	SSPAnalytic
)

// BeamType carries the source's beam-shape and curvature-correction flags,
// a single four-character code matching the upstream BELLHOP convention
// ('G'aussian/'C'artesian geometric, curvature 'D'ouble/'Z'ero/space, and a
// third character 'S' selecting Seongil's beam-displacement model), plus
// the numeric step-size/termination configuration of spec.md section 4.D
// that the legacy .env format carries alongside the beam type code.
type BeamType struct {
	Type [4]byte

	H0        Real // nominal step size
	NSteps    int
	BoxR      Real // range beyond which a ray is terminated
	AmpFloor  Real
	MaxBounce int
}

// ErrorKind enumerates the taxonomy of section 7.
type ErrorKind uint32

const (
	ErrNone               ErrorKind = 0
	ErrInputFatal         ErrorKind = 1 << 0
	ErrResource           ErrorKind = 1 << 1
	ErrNumericRecoverable ErrorKind = 1 << 2
	ErrPerRaySoft         ErrorKind = 1 << 3
)

// ErrorState is the shared atomic bitset of section 7: a single instance per
// Params, inspected by CheckReportErrors after each parallel phase. Message
// flags are one-shot: the first occurrence is logged, subsequent
// occurrences of the same kind only increment the counter.
type ErrorState struct {
	bits   atomic.Uint32
	mu     sync.Mutex
	warned map[string]bool
	counts map[ErrorKind]int64
}

// NewErrorState returns a ready-to-use, zero-valued ErrorState.
func NewErrorState() *ErrorState {
	return &ErrorState{warned: make(map[string]bool), counts: make(map[ErrorKind]int64)}
}

// Raise records an occurrence of kind. logSink is invoked at most once per
// distinct warnKey, or, when warnKey is empty, only on the first occurrence
// of kind. Input-fatal and Resource kinds are checked by Fatal().
func (e *ErrorState) Raise(kind ErrorKind, warnKey string, logSink func(string), message string) {
	for {
		old := e.bits.Load()
		if e.bits.CompareAndSwap(old, old|uint32(kind)) {
			break
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counts[kind]++
	if warnKey == "" {
		if logSink != nil && e.counts[kind] == 1 {
			logSink(message)
		}
		return
	}
	if !e.warned[warnKey] {
		e.warned[warnKey] = true
		if logSink != nil {
			logSink(message)
		}
	}
}

// Fatal reports whether an Input-fatal or Resource error has been raised;
// CheckReportErrors uses this to decide whether run/setup return ok=false.
func (e *ErrorState) Fatal() bool {
	b := e.bits.Load()
	return ErrorKind(b)&(ErrInputFatal|ErrResource) != 0
}

// Count reports how many times a given kind has been raised, used by the
// per-run-mode post-run summary (e.g. "N rays truncated by memsize").
func (e *ErrorState) Count(kind ErrorKind) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[kind]
}

// CheckReportErrors inspects the shared state after a parallel phase
// (setup, run) and returns ok=false if a fatal condition was raised.
func CheckReportErrors(e *ErrorState) (ok bool) {
	return !e.Fatal()
}
