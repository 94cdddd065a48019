package refcoef

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

func cosTable() *params.ReflCoefTable {
	t := &params.ReflCoefTable{}
	for theta := 0.0; theta <= 90.0; theta += 1.0 {
		t.Entries = append(t.Entries, params.ReflCoefEntry{
			ThetaDeg: theta,
			R:        cos(theta * 3.14159265358979323846 / 180),
			PhiRad:   0,
		})
	}
	return t
}

func cos(x float64) float64 {
	// small Taylor approximation is fine for test fixture purposes; table
	// resolution (1 degree steps) dominates the error budget.
	x2 := x * x
	return 1 - x2/2 + x2*x2/24 - x2*x2*x2/720
}

func TestInterpolate45Degrees(t *testing.T) {
	table := cosTable()
	errs := params.NewErrorState()
	r, phi := Interpolate(table, 45, errs, nil, "bottom")
	require.InDelta(t, 0.70710678, r, 1e-3)
	require.InDelta(t, 0, phi, 1e-9)
	require.False(t, errs.Fatal())
}

func TestInterpolateOutsideDomainClampsAndWarnsOnce(t *testing.T) {
	table := cosTable()
	errs := params.NewErrorState()
	var warnings int
	logSink := func(string) { warnings++ }

	r1, phi1 := Interpolate(table, -10, errs, logSink, "bottom")
	r2, phi2 := Interpolate(table, 100, errs, logSink, "bottom")

	require.Equal(t, params.Real(0), r1)
	require.Equal(t, params.Real(0), phi1)
	require.Equal(t, params.Real(0), r2)
	require.Equal(t, params.Real(0), phi2)
	require.Equal(t, 1, warnings)
}

func TestFoldThetaWrapsToFirstQuadrant(t *testing.T) {
	require.InDelta(t, 45, FoldTheta(135*3.14159265358979323846/180), 1e-6)
	require.InDelta(t, 10, FoldTheta(-10*3.14159265358979323846/180), 1e-6)
}
