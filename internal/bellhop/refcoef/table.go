// Package refcoef implements component C: the tabulated reflection-
// coefficient interpolator queried by the reflector's File boundary
// condition.
package refcoef

import (
	"sort"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

// Interpolate bisects the table for the bracketing pair at thetaDeg
// (already folded to [0, 90]) and linearly interpolates R and phi. A query
// outside the tabulated domain returns R=0, phi=0 and raises a one-shot
// warning per table per run — not per direction, per query (SUPPLEMENTED
// FEATURES: the original's right-side overflow log call is silent, but
// SPEC_FULL folds both directions into a single one-shot flag rather than
// carrying that asymmetry forward verbatim).
func Interpolate(table *params.ReflCoefTable, thetaDeg params.Real, errs *params.ErrorState, logSink func(string), warnKey string) (r, phi params.Real) {
	n := len(table.Entries)
	if n == 0 {
		return 0, 0
	}
	if thetaDeg < table.Entries[0].ThetaDeg || thetaDeg > table.Entries[n-1].ThetaDeg {
		if errs != nil {
			errs.Raise(params.ErrNumericRecoverable, warnKey, logSink,
				"reflection-coefficient query outside tabulated domain, clamping to R=0")
		}
		return 0, 0
	}

	i := sort.Search(n, func(k int) bool { return table.Entries[k].ThetaDeg >= thetaDeg })
	if i == 0 {
		return table.Entries[0].R, table.Entries[0].PhiRad
	}
	if i >= n {
		return table.Entries[n-1].R, table.Entries[n-1].PhiRad
	}
	lo, hi := table.Entries[i-1], table.Entries[i]
	if hi.ThetaDeg == lo.ThetaDeg {
		return lo.R, lo.PhiRad
	}
	w := (thetaDeg - lo.ThetaDeg) / (hi.ThetaDeg - lo.ThetaDeg)
	r = (1-w)*lo.R + w*hi.R
	phi = (1-w)*lo.PhiRad + w*hi.PhiRad
	return r, phi
}

// FoldTheta folds an arbitrary incidence angle (radians) to degrees in
// [0, 90], the convention the File reflection coefficient is always looked
// up under (spec.md section 4.C/4.E: |atan2(Th, Tg)|*180/pi folded).
func FoldTheta(thetaRad params.Real) params.Real {
	d := thetaRad * 180 / 3.14159265358979323846
	if d < 0 {
		d = -d
	}
	for d > 180 {
		d -= 180
	}
	if d > 90 {
		d = 180 - d
	}
	return d
}
