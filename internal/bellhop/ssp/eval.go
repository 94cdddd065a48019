// Package ssp implements component A: the sound-speed profile evaluator.
// Eval returns complex speed, its gradient and second-derivative moments,
// and density at a ray position, dispatching on the table's SSPKind.
package ssp

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

// Result is the evaluator's output tuple: eval(x, t, segState) -> (c, grad
// c, c_rr, c_rz, c_zz, rho) from spec.md section 4.A.
type Result struct {
	C        params.Complex
	GradC    params.Vec2 // (dc/dr, dc/dz); dc/dr is zero outside Quad, and Hexahedral leaves both zero
	Crr      params.Real
	Crz      params.Real
	Czz      params.Real
	Rho      params.Real
}

// Eval evaluates the table at ray position x (r, z) with tangent t,
// updating the mutable segState cursor in place.
func Eval(table *params.SSPTable, x, t params.Vec2, seg *params.SegState) (Result, error) {
	switch table.Kind {
	case params.SSPNLinear:
		return evalNLinear(table, x, t, seg)
	case params.SSPCLinear:
		return evalCLinear(table, x, t, seg)
	case params.SSPPCHIP:
		return evalCubicLike(table, x, t, seg, table.CoefB, table.CoefC, table.CoefD)
	case params.SSPCubicSpline:
		return evalCubicLike(table, x, t, seg, table.CoefB, table.CoefC, table.CoefD)
	case params.SSPQuad:
		return evalQuad(table, x, t, seg)
	case params.SSPHexahedral:
		return evalHexahedral(table, x, t, seg)
	case params.SSPAnalytic:
		return evalAnalytic(x)
	default:
		return Result{}, fmt.Errorf("ssp: unknown kind %v", table.Kind)
	}
}

func densityAt(table *params.SSPTable, i int, w params.Real) params.Real {
	return (1-w)*table.Rho[i] + w*table.Rho[i+1]
}

// evalNLinear is linear in 1/c^2 (spec.md section 4.A).
func evalNLinear(table *params.SSPTable, x, t params.Vec2, seg *params.SegState) (Result, error) {
	i, w, err := locateDepth(table, x.Y, t.Y, &seg.ISegz)
	if err != nil {
		return Result{}, err
	}
	n2a := 1 / (table.C[i] * table.C[i])
	n2b := 1 / (table.C[i+1] * table.C[i+1])
	h := table.Z[i+1] - table.Z[i]
	dn2dz := (n2b - n2a) / complex(h, 0)
	n2 := (1-complex(w, 0))*n2a + complex(w, 0)*n2b

	c := 1 / cmplx.Sqrt(n2)
	dcdz := -0.5 * c * c * c * dn2dz
	d2cdz2 := 3 * dcdz * dcdz / c

	return Result{
		C:     c,
		GradC: params.Vec2{X: 0, Y: real(dcdz)},
		Czz:   real(d2cdz2),
		Rho:   densityAt(table, i, w),
	}, nil
}

// evalCLinear is linear in c: constant gradient per segment, zero curvature.
func evalCLinear(table *params.SSPTable, x, t params.Vec2, seg *params.SegState) (Result, error) {
	i, w, err := locateDepth(table, x.Y, t.Y, &seg.ISegz)
	if err != nil {
		return Result{}, err
	}
	h := table.Z[i+1] - table.Z[i]
	slope := (table.C[i+1] - table.C[i]) / complex(h, 0)
	c := table.C[i] + slope*complex(x.Y-table.Z[i], 0)
	return Result{
		C:     c,
		GradC: params.Vec2{X: 0, Y: real(slope)},
		Rho:   densityAt(table, i, w),
	}, nil
}

// evalCubicLike evaluates a pre-stored cubic (PCHIP or not-a-knot spline
// tableau) at the local depth offset.
func evalCubicLike(table *params.SSPTable, x, t params.Vec2, seg *params.SegState, b, cc, d []params.Complex) (Result, error) {
	i, w, err := locateDepth(table, x.Y, t.Y, &seg.ISegz)
	if err != nil {
		return Result{}, err
	}
	if i >= len(b) {
		return Result{}, fmt.Errorf("ssp: cubic coefficients not built for segment %d", i)
	}
	dz := complex(x.Y-table.Z[i], 0)
	c := table.C[i] + b[i]*dz + cc[i]*dz*dz + d[i]*dz*dz*dz
	dcdz := b[i] + 2*cc[i]*dz + 3*d[i]*dz*dz
	d2cdz2 := 2*cc[i] + 6*d[i]*dz
	return Result{
		C:     c,
		GradC: params.Vec2{X: 0, Y: real(dcdz)},
		Czz:   real(d2cdz2),
		Rho:   densityAt(table, i, w),
	}, nil
}

// evalQuad is bilinear in (r, z) for the real part; imaginary part
// (attenuation) always comes from the single c(z) column (spec.md 4.A).
// Extrapolation outside the range box clamps s1 to [0,1], but escaping the
// depth index raises a fatal error (SUPPLEMENTED FEATURES: box-exit
// diagnostic grounded on ssp.hpp's Quad).
func evalQuad(table *params.SSPTable, x, t params.Vec2, seg *params.SegState) (Result, error) {
	iz, wz, err := locateDepth(table, x.Y, t.Y, &seg.ISegz)
	if err != nil {
		return Result{}, fmt.Errorf("ssp: Quad depth index out of range: %w", err)
	}
	if len(table.R) < 2 {
		return Result{}, fmt.Errorf("ssp: Quad table has no range axis")
	}
	UpdateRangeSegment(table.R, &seg.ISegr, x.X, t.X)
	ir := seg.ISegr
	s1 := (x.X - table.R[ir]) / (table.R[ir+1] - table.R[ir])
	if s1 < 0 {
		s1 = 0
	}
	if s1 > 1 {
		s1 = 1
	}
	c00 := table.CMat[iz][ir]
	c01 := table.CMat[iz][ir+1]
	c10 := table.CMat[iz+1][ir]
	c11 := table.CMat[iz+1][ir+1]
	cRe := (1-wz)*((1-s1)*c00+s1*c01) + wz*((1-s1)*c10+s1*c11)

	imagC := imag(table.C[iz])*(1-wz) + imag(table.C[iz+1])*wz

	dcdr := ((1-wz)*(c01-c00) + wz*(c11-c10)) / (table.R[ir+1] - table.R[ir])
	dcdz := ((1-s1)*(c10-c00) + s1*(c11-c01)) / (table.Z[iz+1] - table.Z[iz])

	return Result{
		C:     complex(cRe, imagC),
		GradC: params.Vec2{X: dcdr, Y: dcdz},
		Rho:   densityAt(table, iz, wz),
	}, nil
}

// evalHexahedral is the full 3D regular-grid kind. It returns only the
// sound speed and density, interpolated linearly in depth at the grid
// column (seg.ISegx, seg.ISegy), clamped to the table; nothing here moves
// those cursors with the ray's x/y position, and the gradient and second
// derivatives are left zero.
func evalHexahedral(table *params.SSPTable, x, t params.Vec2, seg *params.SegState) (Result, error) {
	if len(table.X) < 2 || len(table.Y) < 2 || len(table.Z) < 2 {
		return Result{}, fmt.Errorf("ssp: Hexahedral table incomplete")
	}
	iz, wz, err := locateDepth(table, x.Y, t.Y, &seg.ISegz)
	if err != nil {
		return Result{}, err
	}
	ix, iy := seg.ISegx, seg.ISegy
	if ix < 0 {
		ix = 0
	}
	if ix > len(table.X)-2 {
		ix = len(table.X) - 2
	}
	if iy < 0 {
		iy = 0
	}
	if iy > len(table.Y)-2 {
		iy = len(table.Y) - 2
	}
	c := table.CHex[ix][iy][iz]*complex(1-wz, 0) + table.CHex[ix][iy][iz+1]*complex(wz, 0)
	return Result{C: c, Rho: densityAt(table, iz, wz)}, nil
}

// analyticEpsilon/ZAxis/CAxis/ValidMax are the constants of the closed-form Munk-like
// validation profile (spec.md section 4.A); the half-space branch below the
// profile's validity range is unsupported (Open Question resolution 2).
const (
	analyticEpsilon  = 0.00737
	analyticZAxis    = 1300.0
	analyticCAxis    = 1500.0
	analyticValidMax = 5000.0
)

func evalAnalytic(x params.Vec2) (Result, error) {
	if x.Y < 0 || x.Y > analyticValidMax {
		return Result{}, fmt.Errorf("ssp: Analytic SSP half-space branch is unsupported (depth %.1f outside [0,%.1f])", x.Y, analyticValidMax)
	}
	zeta := 2 * (x.Y - analyticZAxis) / analyticZAxis
	c := analyticCAxis * (1 + analyticEpsilon*(zeta-1+math.Exp(-zeta)))
	dcdz := analyticCAxis * analyticEpsilon * (2 / analyticZAxis) * (1 - math.Exp(-zeta))
	d2cdz2 := analyticCAxis * analyticEpsilon * (2 / analyticZAxis) * (2 / analyticZAxis) * math.Exp(-zeta)
	return Result{
		C:     complex(c, 0),
		GradC: params.Vec2{X: 0, Y: dcdz},
		Czz:   d2cdz2,
		Rho:   1,
	}, nil
}

// locateDepth updates seg via the directional cursor rule and returns the
// bracketing segment index and the local interpolation weight in [0,1].
func locateDepth(table *params.SSPTable, zpos, tz params.Real, seg *int) (i int, w params.Real, err error) {
	n := len(table.Z)
	if n < 2 {
		return 0, 0, errTooFewNodes
	}
	UpdateDepthSegment(table.Z, seg, zpos, tz)
	i = *seg
	if zpos < table.Z[0] || zpos > table.Z[n-1] {
		return i, 0, fmt.Errorf("ssp: depth %.3f outside table range [%.3f, %.3f]", zpos, table.Z[0], table.Z[n-1])
	}
	h := table.Z[i+1] - table.Z[i]
	w = (zpos - table.Z[i]) / h
	return i, w, nil
}
