package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/stepper"
)

func flatRunAllEnv(mode params.RunMode, numWorkers int) *params.Params {
	ssp := params.SSPTable{
		Kind: params.SSPCLinear,
		Z:    []params.Real{0, 5000},
		C:    []params.Complex{complex(1500, 0), complex(1500, 0)},
		Rho:  []params.Real{1, 1},
	}
	top := params.Boundary{Points: []params.BdryPt{
		{X: -1e6, Z: 0, HS: params.HSInfo{BC: params.BCVacuum}, Normal: params.Vec3{Z: 1}, Tangent: params.Vec3{X: 1}},
		{X: 1e6, Z: 0, HS: params.HSInfo{BC: params.BCVacuum}, Normal: params.Vec3{Z: 1}, Tangent: params.Vec3{X: 1}},
	}}
	bot := params.Boundary{Points: []params.BdryPt{
		{X: -1e6, Z: 5000, HS: params.HSInfo{BC: params.BCRigid}, Normal: params.Vec3{Z: -1}, Tangent: params.Vec3{X: 1}},
		{X: 1e6, Z: 5000, HS: params.HSInfo{BC: params.BCRigid}, Normal: params.Vec3{Z: -1}, Tangent: params.Vec3{X: 1}},
	}}
	return &params.Params{
		Dim: params.Dim2D,
		SSP: ssp, Top: top, Bot: bot,
		Sources:     []params.Source{{X: 0, Y: 0, Z: 1000}, {X: 0, Y: 0, Z: 1500}},
		LaunchAlpha: []params.Real{-0.1, 0, 0.1},
		Receivers: params.ReceiverGrid{
			Rr: []params.Real{1000, 2000},
			Rz: []params.Real{1000},
		},
		Mode:       mode,
		NumWorkers: numWorkers,
		Errors:     params.NewErrorState(),
	}
}

func TestRunAllDispatchesEveryJob(t *testing.T) {
	p := flatRunAllEnv(params.ModeRay, 4)
	out := &params.Outputs{}
	cfg := stepper.Config{H0: 50, NSteps: 100, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	ok := RunAll(p, out, cfg)
	require.True(t, ok)
	require.Len(t, out.Rays, len(p.Sources)*len(p.LaunchAlpha))
}

func TestRunAllEigenrayModeFillsTrajectoriesOnSecondPass(t *testing.T) {
	p := flatRunAllEnv(params.ModeEigenray, 2)
	out := &params.Outputs{}
	cfg := stepper.Config{H0: 50, NSteps: 100, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	ok := RunAll(p, out, cfg)
	require.True(t, ok)
	require.Equal(t, len(out.Eigens), len(out.Rays), "each eigenray hit must be recorded exactly once, not once per pass")
	for _, r := range out.Rays {
		require.NotEmpty(t, r.Points2D)
	}
}

func TestResolveWorkerCountHonorsConfigured(t *testing.T) {
	require.Equal(t, 3, ResolveWorkerCount(3))
	require.Greater(t, ResolveWorkerCount(0), 0)
}
