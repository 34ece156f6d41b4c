// Package parallel provides parallel execution utilities for CPU kernels.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on the detected CPU topology.
// Physical core count is preferred over logical count: the matmul inner loops
// are FP-bound and gain nothing from SMT siblings.
func DefaultConfig() Config {
	n := cpuid.CPU.PhysicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	chunk := 64
	if cl := cpuid.CPU.CacheLine; cl > 0 {
		// One float32 cache line per iteration step keeps false sharing out
		// of the accumulation loops.
		chunk = max(chunk, cl*4)
	}
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: chunk,
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too
// small to amortize goroutine overhead.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForRows is tuned for the batch-of-matrices iteration pattern used by
// BatchMatMul: one task per (batch, row) pair.
func ForRows(batches, rows int, f func(batch, row int), cfg Config) {
	n := batches * rows
	For(n, func(k int) {
		f(k/rows, k%rows)
	}, cfg)
}
