package scheduler

import (
	"runtime"
	"sync"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/runner"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/stepper"
)

// ResolveWorkerCount picks the worker count of spec.md section 6.1/9: the
// configured NumWorkers if positive, else the host's hardware parallelism.
func ResolveWorkerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.GOMAXPROCS(0)
}

// RunAll parcels out the Sources x LaunchAngles job space (component H) to
// ResolveWorkerCount(p.NumWorkers) worker goroutines, each pulling job
// indices from p's atomic counter via NextJob until the space is exhausted
// or a fatal error is observed. Workers are created here and joined before
// RunAll returns, matching "created at run entry, joined at exit" (section
// 4.H). For eigenray mode, a second parallel pass re-traces the hits
// recorded by the first pass so their trajectories are filled in.
func RunAll(p *params.Params, out *params.Outputs, cfg stepper.Config) bool {
	p.ResetJobs()
	p.SetEigenRetrace(false)
	out.Rays, out.Eigens = nil, nil
	for i := range out.Field {
		out.Field[i] = 0
	}
	for i := range out.Arrivals {
		out.Arrivals[i] = nil
	}

	nAlpha := len(p.LaunchAlpha)
	nBeta := len(p.LaunchBeta)
	if nBeta == 0 {
		nBeta = 1
	}
	total := uint64(len(p.Sources)) * uint64(nAlpha) * uint64(nBeta)
	if total == 0 {
		return params.CheckReportErrors(p.Errors)
	}

	nWorkers := ResolveWorkerCount(p.NumWorkers)
	var wg sync.WaitGroup
	wg.Add(nWorkers)
	for w := 0; w < nWorkers; w++ {
		go func() {
			defer wg.Done()
			for {
				if p.Errors.Fatal() {
					return
				}
				idx, ok := p.NextJob(total)
				if !ok {
					return
				}
				iSrc, iAlpha, iBeta := params.DecodeJob(idx, nAlpha, nBeta)
				dispatchJob(p, out, cfg, iSrc, iAlpha, iBeta)
			}
		}()
	}
	wg.Wait()

	if p.Mode == params.ModeEigenray {
		retraceEigenHits(p, out, cfg)
	}

	return params.CheckReportErrors(p.Errors)
}

// dispatchJob routes one job to the 2D/Nx2D or full-3D ray runner according
// to p.Dim, the tagged dispatch of section 9 (no runtime branching survives
// into the stepper's own hot loop; the branch happens once per job here).
func dispatchJob(p *params.Params, out *params.Outputs, cfg stepper.Config, iSrc, iAlpha, iBeta int) {
	switch p.Dim {
	case params.Dim3D:
		runner.RunOne3D(p, out, cfg, iSrc, iAlpha, iBeta)
	case params.DimNx2D:
		runner.RunOneNx2D(p, out, cfg, iSrc, iAlpha, iBeta)
	default:
		runner.RunOne(p, out, cfg, iSrc, iAlpha)
	}
}

// retraceEigenHits re-runs the launch indices the first pass flagged as
// passing near a receiver, this time keeping the full trajectory in
// out.Rays (section 4.H: "a second parallel pass re-traces recorded hits
// and fills their trajectories"). p.SetEigenRetrace(true) tells the
// runner's dispatch that this pass is the trajectory-filling one, so it
// records the trajectory without re-detecting and re-appending the hit
// itself — the first pass already did that exactly once.
//
// The hit list is small and already fully known (unlike the first pass's
// open job space), so it is statically sharded across workers via
// PartitionMap rather than pulled from an atomic counter: each worker
// drains one contiguous bucket with no further coordination.
func retraceEigenHits(p *params.Params, out *params.Outputs, cfg stepper.Config) {
	hits := out.SnapshotEigens()
	if len(hits) == 0 {
		return
	}

	p.SetEigenRetrace(true)
	defer p.SetEigenRetrace(false)

	nWorkers := ResolveWorkerCount(p.NumWorkers)
	if nWorkers > len(hits) {
		nWorkers = len(hits)
	}
	pm := NewPartitionMap(nWorkers, len(hits))

	var wg sync.WaitGroup
	wg.Add(nWorkers)
	for w := 0; w < nWorkers; w++ {
		go func(bucket int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(bucket)
			for k := kMin; k < kMax; k++ {
				h := hits[k]
				dispatchJob(p, out, cfg, h.ISrc, h.IAlpha, h.IBeta)
			}
		}(w)
	}
	wg.Wait()
}
