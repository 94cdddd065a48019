package reflect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/boundary"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

func flatBoundaryPoint(bc params.BCTag) params.BdryPt {
	return params.BdryPt{
		X: 0, Y: 0, Z: 100,
		HS:      params.HSInfo{BC: bc, CP: complex(1600, 0), Rho: 1.8},
		Tangent: params.Vec3{X: 1, Y: 0, Z: 0},
		Normal:  params.Vec3{X: 0, Y: 0, Z: -1},
	}
}

func TestReflectFlipsNormalComponent(t *testing.T) {
	b := flatBoundaryPoint(params.BCRigid)
	pt := params.RayPoint2D{
		T:   params.Vec2{X: 1.0 / 1500, Y: -1.0 / 1500},
		P:   1, Q: 1,
		Amp: 1,
	}
	out := Reflect(pt, b, boundary.Bottom, complex(1500, 0), params.Vec2{}, nil, params.NewErrorState(), nil)
	require.InDelta(t, pt.T.X, out.T.X, 1e-9)
	require.InDelta(t, -pt.T.Y, out.T.Y, 1e-9)
	require.Equal(t, 1, out.NumBotBnc)
	require.Equal(t, 1.0, out.Amp)
}

func TestReflectVacuumFlipsPhase(t *testing.T) {
	b := flatBoundaryPoint(params.BCVacuum)
	pt := params.RayPoint2D{T: params.Vec2{X: 1.0 / 1500, Y: -1.0 / 1500}, Amp: 1}
	out := Reflect(pt, b, boundary.Top, complex(1500, 0), params.Vec2{}, nil, params.NewErrorState(), nil)
	require.InDelta(t, math.Pi, out.Phase, 1e-9)
	require.Equal(t, 1, out.NumTopBnc)
}

func TestReflectFileLooksUpTableAmplitude(t *testing.T) {
	table := &params.ReflCoefTable{Entries: []params.ReflCoefEntry{
		{ThetaDeg: 0, R: 1, PhiRad: 0},
		{ThetaDeg: 90, R: 0.5, PhiRad: 0},
	}}
	b := flatBoundaryPoint(params.BCFile)
	pt := params.RayPoint2D{T: params.Vec2{X: 0, Y: -1}, Amp: 1}
	out := Reflect(pt, b, boundary.Bottom, complex(1500, 0), params.Vec2{}, table, params.NewErrorState(), nil)
	require.InDelta(t, 0.5, out.Amp, 1e-6)
}

func TestAcoustoElasticKillsBelowThreshold(t *testing.T) {
	hs := params.HSInfo{BC: params.BCAcoustoElastic, CP: complex(1500.0000001, 0), Rho: 1.0}
	mag, _, killed := AcoustoElasticReflection(hs, 1.0)
	require.True(t, killed || mag < 1e-2)
}

func TestAcoustoElasticPressureOnlyReflectsHardBottom(t *testing.T) {
	hs := params.HSInfo{BC: params.BCAcoustoElastic, CP: complex(1800, 0), Rho: 1.8}
	mag, _, killed := AcoustoElasticReflection(hs, 0.9)
	require.False(t, killed)
	require.Greater(t, mag, 0.0)
	require.LessOrEqual(t, mag, 1.0)
}

func TestCurvatureCorrection3DZeroWhenGrazingNormal(t *testing.T) {
	d := boundary.Curvature3D{}
	out := CurvatureCorrection3D(d, 0, 0, 0, 0, complex(1500, 0))
	require.Equal(t, [2][2]params.Real{}, out)
}
