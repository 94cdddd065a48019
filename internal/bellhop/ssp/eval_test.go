package ssp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

func flatCLinearTable() *params.SSPTable {
	return &params.SSPTable{
		Kind: params.SSPCLinear,
		Z:    []params.Real{0, 100},
		C:    []params.Complex{complex(1500, 0), complex(1500, 0)},
		Rho:  []params.Real{1, 1},
	}
}

func TestEvalCLinearFlatProfile(t *testing.T) {
	table := flatCLinearTable()
	seg := &params.SegState{}
	res, err := Eval(table, params.Vec2{X: 0, Y: 36}, params.Vec2{X: 1, Y: 0}, seg)
	require.NoError(t, err)
	require.InDelta(t, 1500, real(res.C), 1e-9)
	require.InDelta(t, 0, res.GradC.Y, 1e-9)
}

func TestEvalCLinearGradient(t *testing.T) {
	table := &params.SSPTable{
		Kind: params.SSPCLinear,
		Z:    []params.Real{0, 100},
		C:    []params.Complex{complex(1500, 0), complex(1600, 0)},
		Rho:  []params.Real{1, 1},
	}
	seg := &params.SegState{}
	res, err := Eval(table, params.Vec2{X: 0, Y: 50}, params.Vec2{X: 0, Y: 1}, seg)
	require.NoError(t, err)
	require.InDelta(t, 1550, real(res.C), 1e-9)
	require.InDelta(t, 1, res.GradC.Y, 1e-9)
}

func TestEvalOutOfRangeIsFatal(t *testing.T) {
	table := flatCLinearTable()
	seg := &params.SegState{}
	_, err := Eval(table, params.Vec2{X: 0, Y: 1000}, params.Vec2{X: 0, Y: 1}, seg)
	require.Error(t, err)
}

func TestPCHIPMatchesNodeValues(t *testing.T) {
	z := []params.Real{0, 50, 100, 150}
	c := []params.Complex{complex(1500, 0), complex(1490, 0), complex(1485, 0), complex(1510, 0)}
	b, cc, d, err := BuildPCHIPCoefs(z, c)
	require.NoError(t, err)

	table := &params.SSPTable{Kind: params.SSPPCHIP, Z: z, C: c, Rho: []params.Real{1, 1, 1, 1}, CoefB: b, CoefC: cc, CoefD: d}
	for i, zi := range z[:len(z)-1] {
		seg := &params.SegState{}
		res, err := Eval(table, params.Vec2{X: 0, Y: zi}, params.Vec2{X: 0, Y: 1}, seg)
		require.NoError(t, err)
		require.InDelta(t, real(c[i]), real(res.C), 1e-9)
	}
}

func TestCubicSplineMatchesNodeValues(t *testing.T) {
	z := []params.Real{0, 50, 100, 150, 200}
	c := []params.Complex{complex(1500, 0), complex(1490, 0), complex(1485, 0), complex(1495, 0), complex(1510, 0)}
	b, cc, d, err := BuildCubicSplineCoefs(z, c)
	require.NoError(t, err)

	table := &params.SSPTable{Kind: params.SSPCubicSpline, Z: z, C: c, Rho: []params.Real{1, 1, 1, 1, 1}, CoefB: b, CoefC: cc, CoefD: d}
	for i, zi := range z[:len(z)-1] {
		seg := &params.SegState{}
		res, err := Eval(table, params.Vec2{X: 0, Y: zi}, params.Vec2{X: 0, Y: 1}, seg)
		require.NoError(t, err)
		require.InDelta(t, real(c[i]), real(res.C), 1e-6)
	}
}

func TestCubicSplineNotAKnotSharesThirdDerivativeAcrossFirstInteriorKnot(t *testing.T) {
	z := []params.Real{0, 50, 100, 150, 200}
	c := []params.Complex{complex(1500, 0), complex(1490, 0), complex(1485, 0), complex(1495, 0), complex(1510, 0)}
	b, cc, d, err := BuildCubicSplineCoefs(z, c)
	require.NoError(t, err)
	_ = b
	_ = cc
	// Not-a-knot pins segments 0 and 1 to the same cubic, so their
	// (constant) third-derivative coefficients d[0]/d[1] must agree; a
	// natural spline (M[0]=0) would not generally satisfy this.
	require.InDelta(t, real(d[0]), real(d[1]), 1e-9)
	require.InDelta(t, real(d[len(d)-1]), real(d[len(d)-2]), 1e-9)
}

func TestAnalyticRejectsBelowValidRange(t *testing.T) {
	_, err := evalAnalytic(params.Vec2{X: 0, Y: analyticValidMax + 1})
	require.Error(t, err)
}

func TestDirectionalSegmentCursorTieBreak(t *testing.T) {
	z := []params.Real{0, 10, 20, 30}
	seg := 1
	UpdateDepthSegment(z, &seg, 10, 1) // downward-going, sitting on boundary 10
	require.Equal(t, 1, seg)

	seg = 1
	UpdateDepthSegment(z, &seg, 10, -1) // upward-going, sitting on boundary 10
	require.Equal(t, 0, seg)
}
