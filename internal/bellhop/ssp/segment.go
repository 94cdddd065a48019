package ssp

import "github.com/oceanacoustics/gobellhop/internal/bellhop/params"

// UpdateDepthSegment advances segState.ISegz so that z falls in the segment
// it is entering, not the one it just left (SPEC_FULL, SUPPLEMENTED
// FEATURES: directional segment-cursor update). A downward-going ray
// (tz >= 0) uses the half-open interval [zi, zi+1); an upward-going ray
// (tz < 0) uses (zi, zi+1].
func UpdateDepthSegment(z []params.Real, seg *int, zpos, tz params.Real) {
	n := len(z)
	i := *seg
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	if tz >= 0 {
		for i > 0 && zpos < z[i] {
			i--
		}
		for i < n-2 && zpos >= z[i+1] {
			i++
		}
	} else {
		for i > 0 && zpos <= z[i] {
			i--
		}
		for i < n-2 && zpos > z[i+1] {
			i++
		}
	}
	*seg = i
}

// UpdateRangeSegment is the range-axis analogue of UpdateDepthSegment, used
// by the Quad (2D range-dependent) and Hexahedral SSP kinds.
func UpdateRangeSegment(r []params.Real, seg *int, rpos, tr params.Real) {
	UpdateDepthSegment(r, seg, rpos, tr)
}
