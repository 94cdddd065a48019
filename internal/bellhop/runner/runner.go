// Package runner implements component F: the per-launch-index ray
// orchestration loop, driving the stepper and reflector and dispatching
// the traced trajectory into the run mode's output accumulator.
package runner

import (
	"math"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/boundary"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/reflect"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/ssp"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/stepper"
)

// MaxStepsGuard bounds a single ray's step count when Config.NSteps is set
// larger than it by a malformed environment file, preventing a runaway loop
// from ever becoming an infinite one. An unset (zero) NSteps takes no steps.
const MaxStepsGuard = 100000

// rayPoint2DBytes is the charge per recorded trajectory point against
// p.Budget (section 5: "all allocations performed through a tracked
// allocator"); a rough sizeof of RayPoint2D, not a reflect.TypeOf-exact
// figure, since the budget only needs to catch genuinely oversized runs.
const rayPoint2DBytes = 96

// EigenrayProximity is how close (in range and depth, meters) a ray's
// final leg must pass to a receiver cell to count as an eigenray hit.
const EigenrayProximity = 50.0

// Influence is how a ray's amplitude/phase at a sampled point contributes
// to a receiver's field; TL mode uses this per (range, depth) receiver
// cell crossed by the ray.
type Influence func(pt params.RayPoint2D, rcvrR, rcvrZ params.Real) params.Complex

// RunOne traces a single ray launched at (iSrc, iAlpha) from p.Sources and
// p.LaunchAlpha (2D only; Nx2D fans are handled by RunOneNx2D, full 3D by
// RunOne3D) through stepper.Step/reflect.Reflect until termination,
// dispatching the result into out per p.Mode.
func RunOne(p *params.Params, out *params.Outputs, cfg stepper.Config, iSrc, iAlpha int) {
	src := p.Sources[iSrc]
	alpha := p.LaunchAlpha[iAlpha]

	dir := params.Vec2{X: math.Cos(alpha), Y: math.Sin(alpha)}
	pt := params.RayPoint2D{
		X: params.Vec2{X: src.X, Y: src.Z},
		P: 1, Q: 0,
		Amp: 1,
	}
	r0, err := ssp.Eval(&p.SSP, pt.X, dir, &params.SegState{})
	if err != nil {
		p.Errors.Raise(params.ErrNumericRecoverable, "", p.LogSink, err.Error())
		return
	}
	// |t| = 1/c, the stepper's Hamiltonian invariant (section 8): t is only
	// a direction above, scaled here once c is known at the source.
	pt.T = dir.Scale(1 / real(r0.C))
	pt.C = r0.C

	seg := &params.SegState{}
	var trajectory []params.RayPoint2D
	trajectory = append(trajectory, pt)

	for step := 0; step < cfg.NSteps && step < MaxStepsGuard; step++ {
		res, err := stepper.Step(cfg, &p.SSP, &p.Top, &p.Bot, pt, seg)
		if err != nil {
			p.Errors.Raise(params.ErrNumericRecoverable, "", p.LogSink, err.Error())
			break
		}
		pt = res.Point

		if res.Crossing == stepper.CrossingBoundary {
			pt = applyReflection(p, pt)
		}

		if !chargeRayPoint(p) {
			p.Errors.Raise(params.ErrPerRaySoft, "", p.LogSink, "ray trajectory truncated: memory budget exhausted")
			break
		}
		trajectory = append(trajectory, pt)

		if res.Terminate {
			break
		}
	}

	dispatch(p, out, iSrc, iAlpha, 0, trajectory)
}

// chargeRayPoint charges one trajectory point against p.Budget; a nil
// budget (unbounded --mem) always succeeds.
func chargeRayPoint(p *params.Params) bool {
	if p.Budget == nil {
		return true
	}
	return p.Budget.Charge(rayPoint2DBytes)
}

// applyReflection determines which boundary the ray landed on and invokes
// reflect.Reflect against that side's boundary point.
func applyReflection(p *params.Params, pt params.RayPoint2D) params.RayPoint2D {
	_, topI, errTop := boundary.Locate2D(&p.Top, pt.X.X)
	_, botI, errBot := boundary.Locate2D(&p.Bot, pt.X.X)

	var side boundary.Side
	var b params.BdryPt
	switch {
	case errTop == nil && math.Abs(pt.X.Y-p.Top.Points[topI].Z) < math.Abs(pt.X.Y-safeZ(p.Bot, botI, errBot)):
		side, b = boundary.Top, p.Top.Points[topI]
	case errBot == nil:
		side, b = boundary.Bottom, p.Bot.Points[botI]
	default:
		return pt
	}

	r, err := ssp.Eval(&p.SSP, pt.X, pt.T, &params.SegState{})
	if err != nil {
		return pt
	}
	return reflect.ReflectBeam(pt, b, side, r.C, r.GradC, p.Beam, p.Dim.O3D(), &p.Refl, p.Errors, p.LogSink)
}

func safeZ(b params.Boundary, i int, err error) params.Real {
	if err != nil || i < 0 || i >= len(b.Points) {
		return math.Inf(1)
	}
	return b.Points[i].Z
}

// dispatch records the finished trajectory per p.Mode: Ray stores every
// compressed trajectory; Eigenray only keeps the ones that actually pass
// near a receiver (section 4.G's bounded append-only hit store) — its first
// pass only detects and records the hit, and the scheduler's second,
// retrace pass (p.EigenRetrace true) fills in the trajectory, so a hit is
// never counted or stored twice; TL accumulates a Gaussian-beam field
// contribution per receiver cell; Arrivals records one arrival per receiver
// the ray's final leg passes near.
func dispatch(p *params.Params, out *params.Outputs, iSrc, iAlpha, iBeta int, traj []params.RayPoint2D) {
	switch p.Mode {
	case params.ModeRay:
		out.AddRay(params.RayRecord{ISrc: iSrc, IAlpha: iAlpha, IBeta: iBeta, Points2D: traj})
	case params.ModeEigenray:
		if p.EigenRetrace() {
			out.AddRay(params.RayRecord{ISrc: iSrc, IAlpha: iAlpha, IBeta: iBeta, Points2D: traj})
		} else if isEigenrayHit(p, traj) {
			out.AddEigenHit(params.EigenHit{ISrc: iSrc, IAlpha: iAlpha, IBeta: iBeta, NSteps: len(traj)},
				eigenrayMemsize(p), p.Errors, p.LogSink)
		}
	case params.ModeTL:
		accumulateField(p, out, traj)
	case params.ModeArrivals:
		accumulateArrivals(p, out, traj)
	}
}

// eigenrayMemsize bounds the eigenray accumulator by the configured memory
// budget, falling back to unbounded (0) when no budget is set — matching
// MaxMemory's own "<=0 means unbounded" convention.
func eigenrayMemsize(p *params.Params) int {
	if p.MaxMemory <= 0 {
		return 0
	}
	return int(p.MaxMemory / rayPoint2DBytes)
}

// isEigenrayHit reports whether traj's final leg passes within
// EigenrayProximity meters (in both range and depth) of any receiver cell.
func isEigenrayHit(p *params.Params, traj []params.RayPoint2D) bool {
	if len(traj) == 0 {
		return false
	}
	last := traj[len(traj)-1]
	for _, rr := range p.Receivers.Rr {
		if math.Abs(last.X.X-rr) > EigenrayProximity {
			continue
		}
		for _, rz := range p.Receivers.Rz {
			if math.Abs(last.X.Y-rz) <= EigenrayProximity {
				return true
			}
		}
	}
	return false
}

// accumulateField adds a geometric-beam contribution to every receiver
// cell whose range falls within the current ray leg, using 1/sqrt(r)
// cylindrical spreading and the accumulated phase/travel-time already
// carried on each RayPoint2D (the full Gaussian-beam influence width
// uses the leg's Q to set the beam half-width; a finished leg outside
// that half-width contributes nothing).
func accumulateField(p *params.Params, out *params.Outputs, traj []params.RayPoint2D) {
	nz := len(p.Receivers.Rz)
	for leg := 0; leg < len(traj)-1; leg++ {
		a, b := traj[leg], traj[leg+1]
		for ir, rr := range p.Receivers.Rr {
			if rr < a.X.X || rr > b.X.X {
				continue
			}
			w := (rr - a.X.X) / math.Max(b.X.X-a.X.X, 1e-12)
			zAtR := a.X.Y + w*(b.X.Y-a.X.Y)
			for iz, rz := range p.Receivers.Rz {
				width := beamHalfWidth(a)
				if math.Abs(rz-zAtR) > width {
					continue
				}
				amp := a.Amp * (1 - math.Abs(rz-zAtR)/math.Max(width, 1e-12))
				phase := a.Phase
				contribution := complex(amp, 0) * complexExp(phase) / complex(math.Sqrt(math.Max(rr, 1e-9)), 0)
				out.AddField(iz*len(p.Receivers.Rr)+ir, contribution)
				_ = nz
			}
		}
	}
}

func beamHalfWidth(pt params.RayPoint2D) params.Real {
	q := real(pt.Q)
	if q == 0 {
		return 1.0
	}
	w := math.Abs(q)
	if w < 1e-3 {
		w = 1e-3
	}
	return w
}

func complexExp(phase params.Real) params.Complex {
	return complex(math.Cos(phase), math.Sin(phase))
}

// accumulateArrivals records one Arrival per receiver range the ray's
// final leg is nearest to, evaluated at the receiver's tabulated depths.
func accumulateArrivals(p *params.Params, out *params.Outputs, traj []params.RayPoint2D) {
	if len(traj) == 0 {
		return
	}
	last := traj[len(traj)-1]
	for ir, rr := range p.Receivers.Rr {
		if math.Abs(last.X.X-rr) > beamHalfWidth(last)*4 {
			continue
		}
		for iz := range p.Receivers.Rz {
			idx := iz*len(p.Receivers.Rr) + ir
			if idx >= len(out.Arrivals) {
				continue
			}
			out.AddArrival(idx, params.Arrival{
				Amplitude:    last.Amp,
				Phase:        last.Phase,
				Delay:        real(last.Tau),
				LaunchAngle:  math.Atan2(traj[0].T.Y, traj[0].T.X),
				ArrivalAngle: math.Atan2(last.T.Y, last.T.X),
				NumTopBnc:    last.NumTopBnc,
				NumBotBnc:    last.NumBotBnc,
			}, 0)
		}
	}
}
