// Pixel-parallel map over a persistent worker pool
package algorithms

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"golang.org/x/sys/cpu"
)

// cacheLine is the size of the CPU cache line padding type
var cacheLine = int(unsafe.Sizeof(cpu.CacheLinePad{}))

// linesPerBatch is how many cache lines of output a worker claims at a time
const linesPerBatch = 64

// Runner executes the per-pixel algorithms on a fixed pool of workers.
// Work is split into disjoint index ranges; workers never write the
// same output byte, so no synchronization happens inside a batch.
type Runner struct {
	pool *workerpool.Pool
}

// NewRunner starts a runner with the given number of workers.
// workers <= 0 uses GOMAXPROCS.
func NewRunner(workers int) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{pool: workerpool.New(workers)}
}

var (
	defaultRunner     *Runner
	defaultRunnerOnce sync.Once
)

// Default returns the process-wide runner, created on first use
func Default() *Runner {
	defaultRunnerOnce.Do(func() {
		defaultRunner = NewRunner(0)
	})
	return defaultRunner
}

// Workers returns the number of pool workers
func (r *Runner) Workers() int {
	return r.pool.NumWorkers()
}

// Close stops the workers. A closed runner keeps working sequentially.
func (r *Runner) Close() {
	r.pool.Close()
}

// forRange calls fn over contiguous chunks of [0, n), one chunk per worker
func (r *Runner) forRange(n int, fn func(start, end int)) {
	r.pool.ParallelFor(n, fn)
}

// forBytes calls fn over cache-line aligned batches of [0, n)
func (r *Runner) forBytes(n int, fn func(start, end int)) {
	r.pool.ParallelForAtomicBatched(n, cacheLine*linesPerBatch, fn)
}
