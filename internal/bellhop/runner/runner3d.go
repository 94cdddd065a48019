package runner

import (
	"math"
	"sync"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/boundary"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/refcoef"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/reflect"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/ssp"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/stepper"
)

// triAdjCache memoizes BuildTriAdjacency per *params.Boundary: the
// triangulation is fixed for the lifetime of a Params (built once at setup),
// so every ray job sharing that boundary reuses the same adjacency graph
// instead of rebuilding it per job.
var triAdjCache sync.Map // map[*params.Boundary]*boundary.TriAdjacency

func triAdjacencyFor(b *params.Boundary) *boundary.TriAdjacency {
	if len(b.Tris) == 0 {
		return nil
	}
	if v, ok := triAdjCache.Load(b); ok {
		return v.(*boundary.TriAdjacency)
	}
	adj := boundary.BuildTriAdjacency(b.Tris)
	actual, _ := triAdjCache.LoadOrStore(b, adj)
	return actual.(*boundary.TriAdjacency)
}

// triCursor carries the last-found triangle index for the top and bottom
// triangulated boundaries across a single ray's steps, seeding
// boundary.LocateTriangle3D's incremental walk instead of restarting the
// search from triangle 0 at every step.
type triCursor struct{ top, bot int }

// RunOneNx2D traces launch index (iSrc, iAlpha, iBeta) for the Nx2D case: a
// 3D ocean swept by independent 2D radial ray fans (spec.md glossary). The
// ray is traced exactly as RunOne does, in the vertical plane at azimuth
// beta, then its (r, z) trajectory is rotated into (x, y, z) for output —
// the SSP/boundary tables themselves are the single radial cross-section
// spec.md section 3 describes (no azimuthal dependence), so the rotation
// is a coordinate change on the already-traced 2D path, not a re-evaluation
// against a different slice of the environment.
func RunOneNx2D(p *params.Params, out *params.Outputs, cfg stepper.Config, iSrc, iAlpha, iBeta int) {
	src := p.Sources[iSrc]
	alpha := p.LaunchAlpha[iAlpha]
	beta := params.Real(0)
	if iBeta < len(p.LaunchBeta) {
		beta = p.LaunchBeta[iBeta]
	}
	cosB, sinB := math.Cos(beta), math.Sin(beta)

	dir := params.Vec2{X: math.Cos(alpha), Y: math.Sin(alpha)}
	pt := params.RayPoint2D{
		X: params.Vec2{X: 0, Y: src.Z},
		P: 1, Q: 0,
		Amp: 1,
	}
	r0, err := ssp.Eval(&p.SSP, pt.X, dir, &params.SegState{})
	if err != nil {
		p.Errors.Raise(params.ErrNumericRecoverable, "", p.LogSink, err.Error())
		return
	}
	pt.T = dir.Scale(1 / real(r0.C))
	pt.C = r0.C

	seg := &params.SegState{}
	trajectory2D := []params.RayPoint2D{pt}

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
		trajectory2D = append(trajectory2D, pt)
		if res.Terminate {
			break
		}
	}

	traj3D := make([]params.RayPoint3D, len(trajectory2D))
	for i, p2 := range trajectory2D {
		r := p2.X.X
		traj3D[i] = params.RayPoint3D{
			X:         params.Vec3{X: src.X + r*cosB, Y: src.Y + r*sinB, Z: p2.X.Y},
			T:         params.Vec3{X: p2.T.X * cosB, Y: p2.T.X * sinB, Z: p2.T.Y},
			C:         p2.C,
			Tau:       p2.Tau,
			Amp:       p2.Amp,
			Phase:     p2.Phase,
			Phi:       beta,
			NumTopBnc: p2.NumTopBnc,
			NumBotBnc: p2.NumBotBnc,
		}
	}

	dispatch3D(p, out, iSrc, iAlpha, iBeta, trajectory2D, traj3D)
}

// RunOne3D traces launch index (iSrc, iAlpha, iBeta) for the full 3D case.
// The SSP is always sampled through evalAtFootprint (the 2D (r,z) table at
// the horizontal range from the origin), so the ray's azimuth is never
// changed by the SSP, for every SSP kind including Hexahedral; the ray
// advances in range/depth like the 2D/Nx2D integrator while carrying real
// (x, y, z) position and tangent for output and for the 3D curvature path
// through CurvatureCorrection3D at each boundary crossing.
func RunOne3D(p *params.Params, out *params.Outputs, cfg stepper.Config, iSrc, iAlpha, iBeta int) {
	src := p.Sources[iSrc]
	alpha := p.LaunchAlpha[iAlpha]
	beta := params.Real(0)
	if iBeta < len(p.LaunchBeta) {
		beta = p.LaunchBeta[iBeta]
	}

	dir := params.Vec3{X: math.Cos(alpha) * math.Cos(beta), Y: math.Cos(alpha) * math.Sin(beta), Z: math.Sin(alpha)}
	pt := params.RayPoint3D{
		X: params.Vec3{X: src.X, Y: src.Y, Z: src.Z},
		P: [2]params.Vec2C{{X: 1}, {Y: 1}},
		Q: [2]params.Vec2C{},
		Amp: 1,
		Phi:  beta,
	}
	r0, err := evalAtFootprint(p, pt.X)
	if err != nil {
		p.Errors.Raise(params.ErrNumericRecoverable, "", p.LogSink, err.Error())
		return
	}
	// |t| = 1/c, the stepper's Hamiltonian invariant (section 8): dir is only
	// a direction above, scaled here once c is known at the source.
	pt.T = dir.Scale(1 / real(r0.C))
	pt.C = r0.C

	var trajectory []params.RayPoint3D
	trajectory = append(trajectory, pt)

	cur := &triCursor{}
	h := cfg.H0
	for step := 0; step < cfg.NSteps && step < MaxStepsGuard; step++ {
		res, terminate, err := step3D(p, cfg, pt, h)
		if err != nil {
			p.Errors.Raise(params.ErrNumericRecoverable, "", p.LogSink, err.Error())
			break
		}
		pt = res

		if crossed, side, b := boundaryCrossing3D(p, pt, cur); crossed {
			pt = applyReflection3D(p, pt, side, b)
		}

		if !chargeRayPoint(p) {
			p.Errors.Raise(params.ErrPerRaySoft, "", p.LogSink, "ray trajectory truncated: memory budget exhausted")
			break
		}
		trajectory = append(trajectory, pt)
		if terminate {
			break
		}
	}

	dispatch3DOnly(p, out, iSrc, iAlpha, iBeta, trajectory)
}

// evalAtFootprint evaluates the 2D (r,z) SSP table at the horizontal range
// from the coordinate origin to (x,y). RunOne3D, step3D and
// applyReflection3D sample the SSP only through this function.
func evalAtFootprint(p *params.Params, x params.Vec3) (ssp.Result, error) {
	r := math.Hypot(x.X, x.Y)
	return ssp.Eval(&p.SSP, params.Vec2{X: r, Y: x.Z}, params.Vec2{X: 1, Y: 0}, &params.SegState{})
}

// step3D advances a 3D ray point by a predictor-corrector step generalizing
// stepper.Step's 2D Hamiltonian integrator to a (x,y,z) tangent: the
// horizontal gradient is carried entirely by dc/dr applied along the
// current horizontal bearing, since the evaluator's GradC.X term already
// is dc/dr for the range-dependent Quad kind and zero otherwise
// (Hexahedral returns no gradient at all).
func step3D(p *params.Params, cfg stepper.Config, pt params.RayPoint3D, h params.Real) (params.RayPoint3D, bool, error) {
	r0, err := evalAtFootprint(p, pt.X)
	if err != nil {
		return pt, true, err
	}
	horizNorm := math.Hypot(pt.T.X, pt.T.Y)
	var bearX, bearY params.Real
	if horizNorm > 1e-12 {
		bearX, bearY = pt.T.X/horizNorm, pt.T.Y/horizNorm
	}
	cSq := real(r0.C) * real(r0.C)
	dTx := -r0.GradC.X / cSq * bearX
	dTy := -r0.GradC.X / cSq * bearY
	dTz := -r0.GradC.Y / cSq

	newT := params.Vec3{X: pt.T.X + dTx*h, Y: pt.T.Y + dTy*h, Z: pt.T.Z + dTz*h}
	v0 := pt.T.Scale(real(r0.C))
	v1 := newT.Scale(real(r0.C))
	newX := pt.X.Add(v0.Add(v1).Scale(0.5 * h))

	newTau := pt.Tau + complex(h, 0)/r0.C

	box := cfg.BoxR
	terminate := math.Hypot(newX.X, newX.Y) > box || pt.Amp < cfg.AmpFloor ||
		pt.NumTopBnc+pt.NumBotBnc > cfg.MaxBounce

	newPt := pt
	newPt.X, newPt.T, newPt.C, newPt.Tau = newX, newT, r0.C, newTau
	return newPt, terminate, nil
}

// boundaryCrossing3D reports whether pt has crossed the top or bottom
// boundary. When a side carries a genuine triangulation (p.Top.Tris /
// p.Bot.Tris non-empty), the crossing depth is interpolated across the
// triangle actually underneath pt's (x,y) footprint via
// boundary.LocateTriangle3D/InterpolateTriangle3D, walking from cur's last
// triangle index instead of rescanning the mesh every step; boundaries with
// no triangulation fall back to the radial projection onto the 2D (r,z)
// polyline evalAtFootprint already uses for the SSP.
func boundaryCrossing3D(p *params.Params, pt params.RayPoint3D, cur *triCursor) (bool, boundary.Side, params.BdryPt) {
	if topPt, ok := crossingAt(&p.Top, pt.X, &cur.top); ok {
		if pt.X.Z <= topPt.Z {
			return true, boundary.Top, topPt
		}
	}
	if botPt, ok := crossingAt(&p.Bot, pt.X, &cur.bot); ok {
		if pt.X.Z >= botPt.Z {
			return true, boundary.Bottom, botPt
		}
	}
	return false, boundary.Bottom, params.BdryPt{}
}

// crossingAt resolves the boundary point underneath pt's footprint,
// preferring the triangulated mesh lookup and falling back to the 2D
// radial projection when b carries no triangulation.
func crossingAt(b *params.Boundary, x params.Vec3, cursor *int) (params.BdryPt, bool) {
	if len(b.Tris) > 0 {
		adj := triAdjacencyFor(b)
		ti, err := boundary.LocateTriangle3D(b.Points, b.Tris, adj, *cursor, x.X, x.Y)
		if err == nil {
			*cursor = ti
			return boundary.InterpolateTriangle3D(b.Points, b.Tris[ti], x.X, x.Y), true
		}
	}
	r := math.Hypot(x.X, x.Y)
	p, _, err := boundary.Locate2D(b, r)
	if err != nil {
		return params.BdryPt{}, false
	}
	return p, true
}

// applyReflection3D mirrors reflect.Reflect/ReflectBeam for a 3D ray point:
// it reflects the 3D tangent about the boundary normal, increments the
// bounce counter, applies the boundary-condition amplitude/phase update via
// the 2D-plane incidence angle (fold to the vertical plane containing the
// tangent, matching the File/Acousto-elastic formulas which only depend on
// the grazing angle), and runs the tensor curvature correction through
// reflect.CurvatureCorrection3D.
func applyReflection3D(p *params.Params, pt params.RayPoint3D, side boundary.Side, b params.BdryPt) params.RayPoint3D {
	n := b.Normal.Normalized()
	th := pt.T.Dot(n)
	newT := pt.T.Sub(n.Scale(2 * th))

	newPt := pt
	newPt.T = newT
	if side == boundary.Top {
		newPt.NumTopBnc++
	} else {
		newPt.NumBotBnc++
	}

	r0, err := evalAtFootprint(p, pt.X)
	c := params.Complex(complex(1500, 0))
	var gradC params.Vec2
	if err == nil {
		c, gradC = r0.C, r0.GradC
	}

	tangentXY := params.Vec2{X: b.Tangent.X, Y: b.Tangent.Y}.Normalized()
	normalXY := params.Vec2{X: n.X, Y: n.Y}
	d3 := boundary.ProjectCurvature3D(b, tangentXY, normalXY, side)
	if th != 0 {
		corr := reflect.CurvatureCorrection3D(d3, th, gradC.Y, gradC.Y, 0, c)
		newPt.P[0] = newPt.P[0].Add(newPt.Q[0].Scale(complex(corr[0][0], 0)))
		newPt.P[1] = newPt.P[1].Add(newPt.Q[1].Scale(complex(corr[1][1], 0)))
	}

	applyBoundaryCondition3D(p, &newPt, th, b.HS)
	return newPt
}

func applyBoundaryCondition3D(p *params.Params, pt *params.RayPoint3D, th params.Real, hs params.HSInfo) {
	tn := math.Sqrt(pt.T.Dot(pt.T))
	tg := math.Sqrt(math.Max(tn*tn-th*th, 0))
	switch hs.BC {
	case params.BCVacuum:
		pt.Phase += math.Pi
	case params.BCFile, params.BCGRAB:
		key := "file-reflection"
		if hs.BC == params.BCGRAB {
			key = "grab-reflection"
		}
		r, phi := refcoef.Interpolate(&p.Refl, refcoef.FoldTheta(math.Atan2(math.Abs(th), tg)), p.Errors, p.LogSink, key)
		pt.Amp *= r
		pt.Phase += phi
	case params.BCAcoustoElastic:
		mag, phase, killed := reflect.AcoustoElasticReflection(hs, math.Abs(th)/tn)
		if killed {
			pt.Amp = 0
			return
		}
		pt.Amp *= mag
		pt.Phase += phase
	}
}

// dispatch3D records both the 2D in-plane trajectory (reused by TL/Arrivals
// accumulation, which are defined against the 2D receiver grid) and the 3D
// trajectory (for Ray/Eigenray output) from an Nx2D run.
func dispatch3D(p *params.Params, out *params.Outputs, iSrc, iAlpha, iBeta int, traj2D []params.RayPoint2D, traj3D []params.RayPoint3D) {
	switch p.Mode {
	case params.ModeRay:
		out.AddRay(params.RayRecord{ISrc: iSrc, IAlpha: iAlpha, IBeta: iBeta, Points3D: traj3D})
	case params.ModeEigenray:
		if p.EigenRetrace() {
			out.AddRay(params.RayRecord{ISrc: iSrc, IAlpha: iAlpha, IBeta: iBeta, Points3D: traj3D})
		} else if isEigenrayHit(p, traj2D) {
			out.AddEigenHit(params.EigenHit{ISrc: iSrc, IAlpha: iAlpha, IBeta: iBeta, NSteps: len(traj3D)},
				eigenrayMemsize(p), p.Errors, p.LogSink)
		}
	case params.ModeTL:
		accumulateField(p, out, traj2D)
	case params.ModeArrivals:
		accumulateArrivals(p, out, traj2D)
	}
}

// dispatch3DOnly is dispatch3D's counterpart for genuine 3D runs, which have
// no 2D in-plane trajectory to fall back on for TL/Arrivals: those modes
// accumulate against the nearest-range receiver cell using the 3D point's
// horizontal range, the same cylindrical-spreading model accumulateField
// uses in 2D.
func dispatch3DOnly(p *params.Params, out *params.Outputs, iSrc, iAlpha, iBeta int, traj []params.RayPoint3D) {
	switch p.Mode {
	case params.ModeRay:
		out.AddRay(params.RayRecord{ISrc: iSrc, IAlpha: iAlpha, IBeta: iBeta, Points3D: traj})
	case params.ModeEigenray:
		if p.EigenRetrace() {
			out.AddRay(params.RayRecord{ISrc: iSrc, IAlpha: iAlpha, IBeta: iBeta, Points3D: traj})
		} else if isEigenrayHit3D(p, traj) {
			out.AddEigenHit(params.EigenHit{ISrc: iSrc, IAlpha: iAlpha, IBeta: iBeta, NSteps: len(traj)},
				eigenrayMemsize(p), p.Errors, p.LogSink)
		}
	case params.ModeTL:
		accumulateField3D(p, out, traj)
	case params.ModeArrivals:
		accumulateArrivals3D(p, out, traj)
	}
}

func isEigenrayHit3D(p *params.Params, traj []params.RayPoint3D) bool {
	if len(traj) == 0 {
		return false
	}
	last := traj[len(traj)-1]
	r := math.Hypot(last.X.X, last.X.Y)
	for _, rr := range p.Receivers.Rr {
		if math.Abs(r-rr) > EigenrayProximity {
			continue
		}
		for _, rz := range p.Receivers.Rz {
			if math.Abs(last.X.Z-rz) <= EigenrayProximity {
				return true
			}
		}
	}
	return false
}

func accumulateField3D(p *params.Params, out *params.Outputs, traj []params.RayPoint3D) {
	for leg := 0; leg < len(traj)-1; leg++ {
		a, b := traj[leg], traj[leg+1]
		ra, rb := math.Hypot(a.X.X, a.X.Y), math.Hypot(b.X.X, b.X.Y)
		for ir, rr := range p.Receivers.Rr {
			if rr < math.Min(ra, rb) || rr > math.Max(ra, rb) {
				continue
			}
			w := (rr - ra) / math.Max(rb-ra, 1e-12)
			zAtR := a.X.Z + w*(b.X.Z-a.X.Z)
			for iz, rz := range p.Receivers.Rz {
				width := beamHalfWidth3D(a)
				if math.Abs(rz-zAtR) > width {
					continue
				}
				amp := a.Amp * (1 - math.Abs(rz-zAtR)/math.Max(width, 1e-12))
				contribution := complex(amp, 0) * complexExp(a.Phase) / complex(math.Sqrt(math.Max(rr, 1e-9)), 0)
				out.AddField(iz*len(p.Receivers.Rr)+ir, contribution)
			}
		}
	}
}

func beamHalfWidth3D(pt params.RayPoint3D) params.Real {
	w := math.Hypot(real(pt.Q[0].X), real(pt.Q[1].Y))
	if w < 1e-3 {
		w = 1e-3
	}
	return w
}

func accumulateArrivals3D(p *params.Params, out *params.Outputs, traj []params.RayPoint3D) {
	if len(traj) == 0 {
		return
	}
	last := traj[len(traj)-1]
	r := math.Hypot(last.X.X, last.X.Y)
	for ir, rr := range p.Receivers.Rr {
		if math.Abs(r-rr) > beamHalfWidth3D(last)*4 {
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
				LaunchAngle:  math.Atan2(traj[0].T.Z, math.Hypot(traj[0].T.X, traj[0].T.Y)),
				ArrivalAngle: math.Atan2(last.T.Z, math.Hypot(last.T.X, last.T.Y)),
				NumTopBnc:    last.NumTopBnc,
				NumBotBnc:    last.NumBotBnc,
			}, 0)
		}
	}
}
