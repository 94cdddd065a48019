// Package engine wires components A-H into the four operations of
// spec.md section 6.1: Setup, Run, Writeout, Finalize. It is the seam a
// CLI or another caller drives; the core itself never touches a file
// system path except through the envfile loader and writeout package it
// is handed.
package engine

import (
	"github.com/oceanacoustics/gobellhop/envfile"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/scheduler"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/stepper"
	"github.com/oceanacoustics/gobellhop/writeout"
)

// Setup loads fileRoot+".yaml" into a fresh Params/Outputs pair via the
// envfile loader (the external collaborator of section 6.3). logSink may
// be nil, which silences diagnostics; cmd/run.go passes a stdout sink.
func Setup(fileRoot string, logSink func(string)) (*params.Params, *params.Outputs, bool) {
	p, out, err := envfile.Load(fileRoot, logSink)
	if err != nil {
		if logSink != nil {
			logSink(err.Error())
		}
		return nil, nil, false
	}
	return p, out, params.CheckReportErrors(p.Errors)
}

// Run executes the simulation described by p into out (component H's job
// scheduler dispatching into components A-G), per the setup/run re-entrant
// pattern (SPEC_FULL, SUPPLEMENTED FEATURES): callers may mutate p between
// Run calls without calling Setup again.
func Run(p *params.Params, out *params.Outputs) bool {
	cfg := stepper.Config{
		H0:        p.Beam.H0,
		NSteps:    p.Beam.NSteps,
		BoxR:      p.Beam.BoxR,
		AmpFloor:  p.Beam.AmpFloor,
		MaxBounce: p.Beam.MaxBounce,
	}
	return scheduler.RunAll(p, out, cfg)
}

// Writeout serializes out into fileRoot's legacy-format sibling file
// (.ray/.shd/.arr per p.Mode), delegating the byte layout entirely to the
// writeout package — the external collaborator spec.md section 1 excludes
// from the core's own scope.
func Writeout(p *params.Params, out *params.Outputs, fileRoot string) bool {
	var err error
	switch p.Mode {
	case params.ModeRay, params.ModeEigenray:
		err = writeout.WriteRay(fileRoot, p, out)
	case params.ModeTL:
		err = writeout.WriteShd(fileRoot, p, out)
	case params.ModeArrivals:
		err = writeout.WriteArr(fileRoot, p, out)
	}
	if err != nil {
		p.Errors.Raise(params.ErrResource, "", p.LogSink, err.Error())
		return false
	}
	return params.CheckReportErrors(p.Errors)
}

// Finalize releases p/out's resources. Outputs hold no off-heap state in
// this implementation (no cgo buffers, no open file handles survive past
// Writeout), so Finalize's only job is to release the charged memory
// budget, matching section 3's "released at finalize" lifecycle note.
func Finalize(p *params.Params, out *params.Outputs) {
	if p.Budget != nil {
		p.Budget.Release(p.Budget.InUse())
	}
	out.Rays = nil
	out.Eigens = nil
	out.Arrivals = nil
	out.Field = nil
}
