// Package plotting is the opt-in "--graph" companion named in SPEC_FULL's
// DOMAIN STACK, grounded on the chart2d.Chart2D/ColorMap usage pattern of
// model_problems/eulerDFR.go: one chart, one color per ray, one AddSeries
// call per trajectory.
package plotting

import (
	"fmt"

	"github.com/notargets/avs/chart2d"
	utils2 "github.com/notargets/avs/utils"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

// PlotRays opens a chart2d window and plots every recorded ray trajectory
// (range on X, depth on Y as stored, with no axis inversion) for the
// Ray/Eigenray run modes. It returns an error when out.Rays is empty, as it
// is for modes that do not populate it.
func PlotRays(fileRoot string, p *params.Params, out *params.Outputs) error {
	if len(out.Rays) == 0 {
		return fmt.Errorf("plotting: no rays recorded for %s (run mode %d)", fileRoot, p.Mode)
	}

	xMin, xMax, yMin, yMax := rayBounds(out.Rays)
	chart := chart2d.NewChart2D(1280, 800, xMin, xMax, yMin, yMax)
	colorMap := utils2.NewColorMap(0, float32(len(out.Rays)), 1)

	for i, r := range out.Rays {
		x, y := rayXY(r)
		name := fmt.Sprintf("ray[%d,%d,%d]", r.ISrc, r.IAlpha, r.IBeta)
		if err := chart.AddSeries(name, x, y, chart2d.NoGlyph, chart2d.Solid, colorMap.GetRGB(float32(i))); err != nil {
			return fmt.Errorf("plotting: adding series %s: %w", name, err)
		}
	}
	go chart.Plot()
	return nil
}

// rayXY flattens one ray's trajectory into the (range, depth) float32 pairs
// chart2d.AddSeries expects, taking the 3D trajectory's horizontal range
// when the ray was traced in Nx2D or full 3D.
func rayXY(r params.RayRecord) (x, y []float32) {
	if len(r.Points3D) > 0 {
		x = make([]float32, len(r.Points3D))
		y = make([]float32, len(r.Points3D))
		for i, pt := range r.Points3D {
			horiz := params.Vec2{X: pt.X.X, Y: pt.X.Y}.Norm()
			x[i] = float32(horiz)
			y[i] = float32(pt.X.Z)
		}
		return
	}
	x = make([]float32, len(r.Points2D))
	y = make([]float32, len(r.Points2D))
	for i, pt := range r.Points2D {
		x[i] = float32(pt.X.X)
		y[i] = float32(pt.X.Y)
	}
	return
}

func rayBounds(rays []params.RayRecord) (xMin, xMax, yMin, yMax float32) {
	first := true
	for _, r := range rays {
		x, y := rayXY(r)
		for i := range x {
			if first {
				xMin, xMax, yMin, yMax = x[i], x[i], y[i], y[i]
				first = false
				continue
			}
			if x[i] < xMin {
				xMin = x[i]
			}
			if x[i] > xMax {
				xMax = x[i]
			}
			if y[i] < yMin {
				yMin = y[i]
			}
			if y[i] > yMax {
				yMax = y[i]
			}
		}
	}
	return
}
