// Package stepper implements component D: the adaptive ray stepper, a
// predictor-corrector Hamiltonian integrator with step-size reduction
// against SSP-segment and boundary crossings.
package stepper

import (
	"math"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/boundary"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/ssp"
)

// Crossing enumerates which constraint produced the minimum step.
type Crossing int

const (
	CrossingNone Crossing = iota
	CrossingDepthSegment
	CrossingRangeSegment
	CrossingBoundary
	CrossingCaustic
)

// StepFloor is the smallest step Step takes: a shorter limit is raised to
// StepFloor, and the crossing kind of the limiting constraint is still
// reported (spec.md 4.D.3).
const StepFloor = 1e-6

// Config carries the beam's nominal step size and termination limits
// (spec.md section 4.D/4.F).
type Config struct {
	H0        params.Real
	NSteps    int
	BoxR      params.Real
	AmpFloor  params.Real
	MaxBounce int
}

// Result is returned after one Step call: the new point, which constraint
// (if any) produced a landing exactly on an interface, and whether the ray
// should terminate.
type Result struct {
	Point     params.RayPoint2D
	Crossing  Crossing
	Terminate bool
}

// Step advances pt by a step h chosen via the section 4.D reduction rule,
// using table/top/bot to bound the step against segment and boundary
// crossings. segZ/segR are the SSP cursor; side selects curvature sign is
// resolved by the caller (the reflector), not here.
func Step(cfg Config, table *params.SSPTable, top, bot *params.Boundary, pt params.RayPoint2D, seg *params.SegState) (Result, error) {
	r0, err := ssp.Eval(table, pt.X, pt.T, seg)
	if err != nil {
		return Result{}, err
	}

	h := cfg.H0
	crossing := CrossingNone

	// The segment and boundary limits are measured along pt.T, while X
	// advances by c*T per unit h, so they are divided by c here.
	cr := real(r0.C)
	if hSeg, ok := depthSegmentLimit(table, pt, seg.ISegz); ok && hSeg/cr < h {
		h, crossing = hSeg/cr, CrossingDepthSegment
	}
	if len(table.R) >= 2 {
		if hSeg, ok := rangeSegmentLimit(table, pt, seg.ISegr); ok && hSeg/cr < h {
			h, crossing = hSeg/cr, CrossingRangeSegment
		}
	}
	if hB, ok := boundaryLimit(top, bot, pt); ok && hB/cr < h {
		h, crossing = hB/cr, CrossingBoundary
	}
	if hC, ok := causticLimit(pt, r0); ok && hC < h {
		h, crossing = hC, CrossingCaustic
	}

	if h < StepFloor {
		h = StepFloor
	}

	mid := params.RayPoint2D{
		X: pt.X.Add(pt.T.Scale(cr * h / 2)),
		T: pt.T,
	}
	rMid, err := ssp.Eval(table, mid.X, mid.T, &params.SegState{ISegz: seg.ISegz, ISegr: seg.ISegr})
	if err != nil {
		rMid = r0
	}

	newT := predictTangent(pt.T, r0, h)
	newX := pt.X.Add(predictAvgVelocity(pt.T, newT, r0, rMid, h).Scale(h))
	newP, newQ := updateParaxial(pt.P, pt.Q, r0, rMid, h)

	newC := rMid.C
	newTau := pt.Tau + complex(h, 0)/newC
	newPhase := pt.Phase
	if real(pt.Q) != 0 && signChanged(real(pt.Q), real(newQ)) {
		newPhase -= math.Pi / 2
	}

	newPt := params.RayPoint2D{
		X: newX, T: newT,
		P: newP, Q: newQ,
		C:   newC,
		Tau: newTau,
		Amp: pt.Amp, Phase: newPhase,
		NumTopBnc: pt.NumTopBnc, NumBotBnc: pt.NumBotBnc,
	}

	terminate := newX.X > cfg.BoxR || pt.Amp < cfg.AmpFloor ||
		newPt.NumTopBnc+newPt.NumBotBnc > cfg.MaxBounce

	return Result{Point: newPt, Crossing: crossing, Terminate: terminate}, nil
}

func depthSegmentLimit(table *params.SSPTable, pt params.RayPoint2D, iz int) (params.Real, bool) {
	if pt.T.Y == 0 {
		return 0, false
	}
	var target params.Real
	if pt.T.Y > 0 {
		target = table.Z[iz+1]
	} else {
		target = table.Z[iz]
	}
	h := (target - pt.X.Y) / pt.T.Y
	if h <= 0 {
		return 0, false
	}
	return h, true
}

func rangeSegmentLimit(table *params.SSPTable, pt params.RayPoint2D, ir int) (params.Real, bool) {
	if pt.T.X == 0 {
		return 0, false
	}
	var target params.Real
	if pt.T.X > 0 {
		target = table.R[ir+1]
	} else {
		target = table.R[ir]
	}
	h := (target - pt.X.X) / pt.T.X
	if h <= 0 {
		return 0, false
	}
	return h, true
}

// boundaryLimit finds the smallest positive h at which the ray's path
// segment crosses the top or bottom boundary's piecewise-linear geometry.
func boundaryLimit(top, bot *params.Boundary, pt params.RayPoint2D) (params.Real, bool) {
	best, found := params.Real(0), false
	for _, b := range []*params.Boundary{top, bot} {
		if b == nil || len(b.Points) < 2 {
			continue
		}
		_, i, err := boundary.Locate2D(b, pt.X.X)
		if err != nil {
			continue
		}
		p0, p1 := b.Points[i], b.Points[i+1]
		rayEnd := pt.X.Add(pt.T.Scale(1e6))
		ray := boundary.Segment{
			A: boundary.Pt2{X: [2]float64{pt.X.X, pt.X.Y}},
			B: boundary.Pt2{X: [2]float64{rayEnd.X, rayEnd.Y}},
		}
		edge := boundary.Segment{
			A: boundary.Pt2{X: [2]float64{p0.X, p0.Z}},
			B: boundary.Pt2{X: [2]float64{p1.X, p1.Z}},
		}
		x, ok := ray.Intersect(edge)
		if !ok {
			continue
		}
		dx, dy := x.X[0]-pt.X.X, x.X[1]-pt.X.Y
		if pt.T.X == 0 && pt.T.Y == 0 {
			continue
		}
		var h params.Real
		if math.Abs(pt.T.X) > math.Abs(pt.T.Y) {
			h = dx / pt.T.X
		} else {
			h = dy / pt.T.Y
		}
		if h > 1e-12 && (!found || h < best) {
			best, found = h, true
		}
	}
	return best, found
}

// causticLimit estimates the step at which q would cross zero, linearizing
// dq/ds = c*p at the current point, bounding the step so a caustic is
// landed on exactly rather than overshot. The phase jump itself is still
// applied from the sign change detected after a full step (see signChanged
// in Step); this only needs to shrink h so the crossing is never skipped
// over entirely between two samples.
func causticLimit(pt params.RayPoint2D, r0 ssp.Result) (params.Real, bool) {
	q := real(pt.Q)
	if q == 0 {
		return 0, false
	}
	dqds := real(r0.C * pt.P)
	if dqds == 0 {
		return 0, false
	}
	h := -q / dqds
	if h <= 0 {
		return 0, false
	}
	return h, true
}

func predictTangent(t params.Vec2, r ssp.Result, h params.Real) params.Vec2 {
	cSq := real(r.C) * real(r.C)
	dt := params.Vec2{X: -r.GradC.X / cSq, Y: -r.GradC.Y / cSq}
	return t.Add(dt.Scale(h))
}

func predictAvgVelocity(t0, t1 params.Vec2, r0, rMid ssp.Result, h params.Real) params.Vec2 {
	v0 := t0.Scale(real(r0.C))
	v1 := t1.Scale(real(rMid.C))
	return v0.Add(v1).Scale(0.5)
}

// updateParaxial advances the paraxial p/q pair by the Hamiltonian ODE:
// dp/ds = -c_nn/c^2 * q, dq/ds = c * p, evaluated at the midpoint sample.
func updateParaxial(p, q params.Complex, r0, rMid ssp.Result, h params.Real) (params.Complex, params.Complex) {
	cnn := complex(rMid.Czz, 0)
	cMid := rMid.C
	dp := -cnn / (cMid * cMid) * q
	dq := cMid * p
	return p + dp*complex(h, 0), q + dq*complex(h, 0)
}

func signChanged(a, b params.Real) bool {
	return (a < 0 && b > 0) || (a > 0 && b < 0)
}
