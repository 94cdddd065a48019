package stepper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/ssp"
)

func flatWaveguide() *params.SSPTable {
	return &params.SSPTable{
		Kind: params.SSPCLinear,
		Z:    []params.Real{0, 200},
		C:    []params.Complex{complex(1500, 0), complex(1500, 0)},
		Rho:  []params.Real{1, 1},
	}
}

func TestStepHorizontalRayInFlatWaveguideStaysLevel(t *testing.T) {
	table := flatWaveguide()
	cfg := Config{H0: 10, NSteps: 1000, BoxR: 10000, AmpFloor: 1e-6, MaxBounce: 100}
	pt := params.RayPoint2D{
		X: params.Vec2{X: 0, Y: 36},
		T: params.Vec2{X: 1.0 / 1500, Y: 0},
		P: 1, Q: 0,
		C:   complex(1500, 0),
		Amp: 1,
	}
	seg := &params.SegState{}
	res, err := Step(cfg, table, nil, nil, pt, seg)
	require.NoError(t, err)
	require.InDelta(t, 36, res.Point.X.Y, 1e-6)
	require.False(t, res.Terminate)
}

func TestStepAdvancesRange(t *testing.T) {
	table := flatWaveguide()
	cfg := Config{H0: 10, NSteps: 1000, BoxR: 10000, AmpFloor: 1e-6, MaxBounce: 100}
	pt := params.RayPoint2D{
		X: params.Vec2{X: 0, Y: 36},
		T: params.Vec2{X: 1.0 / 1500, Y: 0},
		C: complex(1500, 0), Amp: 1,
	}
	seg := &params.SegState{}
	res, err := Step(cfg, table, nil, nil, pt, seg)
	require.NoError(t, err)
	require.Greater(t, res.Point.X.X, pt.X.X)
}

func TestCausticLimitEstimatesPositiveStepWhenQIsApproachingZero(t *testing.T) {
	pt := params.RayPoint2D{Q: complex(2, 0), P: complex(-1, 0)}
	r0 := ssp.Result{C: complex(1500, 0)}
	h, ok := causticLimit(pt, r0)
	require.True(t, ok)
	require.InDelta(t, 2.0/1500, h, 1e-12)
}

func TestCausticLimitSkipsWhenQIsMovingAwayFromZero(t *testing.T) {
	pt := params.RayPoint2D{Q: complex(2, 0), P: complex(1, 0)}
	r0 := ssp.Result{C: complex(1500, 0)}
	_, ok := causticLimit(pt, r0)
	require.False(t, ok)
}

func TestCausticLimitSkipsWhenQIsZero(t *testing.T) {
	pt := params.RayPoint2D{Q: complex(0, 0), P: complex(1, 0)}
	r0 := ssp.Result{C: complex(1500, 0)}
	_, ok := causticLimit(pt, r0)
	require.False(t, ok)
}
