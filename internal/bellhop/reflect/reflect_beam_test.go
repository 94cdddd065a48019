package reflect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/boundary"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

func curvedBoundaryPoint() params.BdryPt {
	return params.BdryPt{
		X: 0, Y: 0, Z: 100,
		HS:      params.HSInfo{BC: params.BCRigid, CP: complex(1600, 0), Rho: 1.8},
		Tangent: params.Vec3{X: 1, Y: 0, Z: 0},
		Normal:  params.Vec3{X: 0, Y: 0, Z: -1},
		Kxx:     0.01,
	}
}

func glancingRayPoint() params.RayPoint2D {
	return params.RayPoint2D{
		T:   params.Vec2{X: 1.0 / 1500, Y: -0.5 / 1500},
		P:   complex(1, 0),
		Q:   complex(1, 0),
		Amp: 1,
	}
}

func TestReflectBeamZeroCurvatureKeepsIncomingP(t *testing.T) {
	b := curvedBoundaryPoint()
	pt := glancingRayPoint()
	beam := params.BeamType{Type: [4]byte{'G', 'Z', ' ', ' '}}
	out := ReflectBeam(pt, b, boundary.Bottom, complex(1500, 0), params.Vec2{}, beam, false, nil, params.NewErrorState(), nil)
	require.Equal(t, pt.P, out.P)
}

func TestReflectBeamDoubleCurvatureDoublesCorrection(t *testing.T) {
	b := curvedBoundaryPoint()
	pt := glancingRayPoint()
	plain := params.BeamType{Type: [4]byte{'G', ' ', ' ', ' '}}
	doubled := params.BeamType{Type: [4]byte{'G', 'D', ' ', ' '}}

	outPlain := ReflectBeam(pt, b, boundary.Bottom, complex(1500, 0), params.Vec2{}, plain, false, nil, params.NewErrorState(), nil)
	outDoubled := ReflectBeam(pt, b, boundary.Bottom, complex(1500, 0), params.Vec2{}, doubled, false, nil, params.NewErrorState(), nil)

	plainExtra := outPlain.P - pt.P
	doubledExtra := outDoubled.P - pt.P
	require.InDelta(t, real(plainExtra)*2, real(doubledExtra), 1e-9)
}

func TestReflectBeamSeongilOnlyAppliesIn2D(t *testing.T) {
	b := curvedBoundaryPoint()
	pt := glancingRayPoint()
	beam := params.BeamType{Type: [4]byte{'G', ' ', 'S', ' '}}

	out2D := ReflectBeam(pt, b, boundary.Bottom, complex(1500, 0), params.Vec2{}, beam, false, nil, params.NewErrorState(), nil)
	out3D := ReflectBeam(pt, b, boundary.Bottom, complex(1500, 0), params.Vec2{}, beam, true, nil, params.NewErrorState(), nil)

	require.NotEqual(t, out2D.Tau, pt.Tau)
	require.Equal(t, out3D.Tau, pt.Tau)
}
