package params

import (
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync/atomic"
)

// MemoryBudget is the tracked allocator of section 5: every ray-store and
// output-buffer allocation charges against maxMemory, and overflow is a
// structured Resource error (section 7), never an abort.
type MemoryBudget struct {
	max   int64
	inUse int64
}

// NewMemoryBudget builds a budget tracker. maxBytes <= 0 means unbounded,
// matching a CLI invocation with no --mem flag.
func NewMemoryBudget(maxBytes int64) *MemoryBudget {
	return &MemoryBudget{max: maxBytes}
}

// Charge reserves n bytes against the budget. It returns false, leaving the
// budget unchanged, if the charge would exceed maxMemory.
func (m *MemoryBudget) Charge(n int64) bool {
	if m.max <= 0 {
		atomic.AddInt64(&m.inUse, n)
		return true
	}
	for {
		cur := atomic.LoadInt64(&m.inUse)
		next := cur + n
		if next > m.max {
			return false
		}
		if atomic.CompareAndSwapInt64(&m.inUse, cur, next) {
			return true
		}
	}
}

// Release returns n bytes to the budget, e.g. when a worker's per-ray
// scratch is recycled rather than freed.
func (m *MemoryBudget) Release(n int64) {
	atomic.AddInt64(&m.inUse, -n)
}

// InUse reports current charged bytes, used by GetMemUsage and by
// engine.Finalize to release the whole charge.
func (m *MemoryBudget) InUse() int64 { return atomic.LoadInt64(&m.inUse) }

// GetMemUsage reports the process' Go runtime memory stats alongside the
// tracked budget as one line of text; no code in this module calls it.
func GetMemUsage(m *MemoryBudget) string {
	var rt runtime.MemStats
	runtime.ReadMemStats(&rt)
	bToMb := func(b uint64) uint64 { return b / 1024 / 1024 }
	return fmt.Sprintf("Alloc = %v MiB Sys = %v MiB NumGC = %v, tracked = %v MiB",
		bToMb(rt.Alloc), bToMb(rt.Sys), rt.NumGC, m.InUse()/1024/1024)
}

// IsNaN reports whether a ray-state value (float64, complex128 or
// []float64) has gone non-finite (NaN or ±Inf). The stepper and runners do
// not call it.
func IsNaN(v any) bool {
	switch x := v.(type) {
	case float64:
		return math.IsNaN(x) || math.IsInf(x, 0)
	case complex128:
		return cmplx.IsNaN(x) || cmplx.IsInf(x)
	case []float64:
		for _, f := range x {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return true
			}
		}
	}
	return false
}
