package runner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/stepper"
)

func flatEnv3D(mode params.RunMode, dim params.Dimensionality) *params.Params {
	p := flatEnv(mode)
	p.Dim = dim
	p.LaunchBeta = []params.Real{0}
	return p
}

func TestRunOneNx2DRecordsRotated3DTrajectory(t *testing.T) {
	p := flatEnv3D(params.ModeRay, params.DimNx2D)
	out := &params.Outputs{}
	cfg := stepper.Config{H0: 50, NSteps: 200, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	RunOneNx2D(p, out, cfg, 0, 0, 0)
	require.Len(t, out.Rays, 1)
	require.Empty(t, out.Rays[0].Points2D)
	require.Greater(t, len(out.Rays[0].Points3D), 1)
	last := out.Rays[0].Points3D[len(out.Rays[0].Points3D)-1]
	require.Greater(t, last.X.X, params.Real(0))
}

func TestRunOneNx2DRotatesIntoAzimuth(t *testing.T) {
	p := flatEnv3D(params.ModeRay, params.DimNx2D)
	p.LaunchBeta = []params.Real{1.5707963267948966} // pi/2: range maps onto Y
	out := &params.Outputs{}
	cfg := stepper.Config{H0: 50, NSteps: 50, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	RunOneNx2D(p, out, cfg, 0, 0, 0)
	require.Len(t, out.Rays, 1)
	last := out.Rays[0].Points3D[len(out.Rays[0].Points3D)-1]
	require.InDelta(t, 0, last.X.X, 1e-6)
	require.Greater(t, last.X.Y, params.Real(0))
}

func TestRunOne3DRecordsTrajectory(t *testing.T) {
	p := flatEnv3D(params.ModeRay, params.Dim3D)
	out := &params.Outputs{}
	cfg := stepper.Config{H0: 50, NSteps: 200, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	RunOne3D(p, out, cfg, 0, 0, 0)
	require.Len(t, out.Rays, 1)
	require.Greater(t, len(out.Rays[0].Points3D), 1)
	last := out.Rays[0].Points3D[len(out.Rays[0].Points3D)-1]
	require.Greater(t, last.X.X, params.Real(0))
}

// triangulatedFlatEnv3D swaps the bottom boundary for a coarse flat
// triangulated mesh spanning the box the ray will travel through, exercising
// boundaryCrossing3D's LocateTriangle3D/InterpolateTriangle3D path instead
// of the 2D radial-projection fallback.
func triangulatedFlatEnv3D(mode params.RunMode) *params.Params {
	p := flatEnv3D(mode, params.Dim3D)
	pts := []params.BdryPt{
		{X: -1e6, Y: -1e6, Z: 5000, HS: params.HSInfo{BC: params.BCRigid}, Normal: params.Vec3{Z: -1}, Tangent: params.Vec3{X: 1}},
		{X: 1e6, Y: -1e6, Z: 5000, HS: params.HSInfo{BC: params.BCRigid}, Normal: params.Vec3{Z: -1}, Tangent: params.Vec3{X: 1}},
		{X: -1e6, Y: 1e6, Z: 5000, HS: params.HSInfo{BC: params.BCRigid}, Normal: params.Vec3{Z: -1}, Tangent: params.Vec3{X: 1}},
		{X: 1e6, Y: 1e6, Z: 5000, HS: params.HSInfo{BC: params.BCRigid}, Normal: params.Vec3{Z: -1}, Tangent: params.Vec3{X: 1}},
	}
	p.Bot = params.Boundary{
		Points: pts,
		Tris:   [][3]int{{0, 1, 2}, {1, 3, 2}},
	}
	return p
}

func TestRunOne3DUsesTriangulatedBottomBoundary(t *testing.T) {
	p := triangulatedFlatEnv3D(params.ModeRay)
	out := &params.Outputs{}
	cfg := stepper.Config{H0: 50, NSteps: 300, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	RunOne3D(p, out, cfg, 0, 0, 0)
	require.Len(t, out.Rays, 1)
	traj := out.Rays[0].Points3D
	require.Greater(t, len(traj), 1)
	for _, pt := range traj {
		require.LessOrEqual(t, pt.X.Z, params.Real(5000.0001))
	}
}

func TestRunOne3DTLModeAccumulatesField(t *testing.T) {
	p := flatEnv3D(params.ModeTL, params.Dim3D)
	out := &params.Outputs{Field: make([]params.Complex, len(p.Receivers.Rz)*len(p.Receivers.Rr))}
	cfg := stepper.Config{H0: 50, NSteps: 200, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	RunOne3D(p, out, cfg, 0, 0, 0)
	var sum float64
	for _, v := range out.Field {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	require.Greater(t, sum, 0.0)
}
