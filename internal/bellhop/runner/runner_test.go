package runner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/stepper"
)

func flatEnv(mode params.RunMode) *params.Params {
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
		Sources:     []params.Source{{X: 0, Y: 0, Z: 1000}},
		LaunchAlpha: []params.Real{0},
		Receivers: params.ReceiverGrid{
			Rr: []params.Real{1000, 2000},
			Rz: []params.Real{1000},
		},
		Mode:    mode,
		Errors:  params.NewErrorState(),
		LogSink: nil,
	}
}

func TestRunOneRayModeRecordsTrajectory(t *testing.T) {
	p := flatEnv(params.ModeRay)
	out := &params.Outputs{}
	cfg := stepper.Config{H0: 50, NSteps: 200, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	RunOne(p, out, cfg, 0, 0)
	require.Len(t, out.Rays, 1)
	require.Greater(t, len(out.Rays[0].Points2D), 1)
	last := out.Rays[0].Points2D[len(out.Rays[0].Points2D)-1]
	require.Greater(t, last.X.X, params.Real(0))
}

func TestRunOneTLModeAccumulatesField(t *testing.T) {
	p := flatEnv(params.ModeTL)
	out := &params.Outputs{Field: make([]params.Complex, len(p.Receivers.Rz)*len(p.Receivers.Rr))}
	cfg := stepper.Config{H0: 50, NSteps: 200, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	RunOne(p, out, cfg, 0, 0)
	var sum float64
	for _, v := range out.Field {
		sum += math.Abs(real(v)) + math.Abs(imag(v))
	}
	require.Greater(t, sum, 0.0)
}

func TestRunOneArrivalsModeRecordsArrival(t *testing.T) {
	p := flatEnv(params.ModeArrivals)
	out := &params.Outputs{Arrivals: make([][]params.Arrival, len(p.Receivers.Rz)*len(p.Receivers.Rr))}
	cfg := stepper.Config{H0: 50, NSteps: 200, BoxR: 10000, AmpFloor: 1e-9, MaxBounce: 50}
	RunOne(p, out, cfg, 0, 0)
	var total int
	for _, l := range out.Arrivals {
		total += len(l)
	}
	require.Greater(t, total, 0)
}
