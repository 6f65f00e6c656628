// Package parallel fans tensor kernels out across worker goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how the loops in this package split their work.
type Config struct {
	Enabled      bool // Run chunks on separate goroutines when true.
	NumWorkers   int  // Upper bound on goroutines per loop.
	MinChunkSize int  // Smallest iteration count worth spawning for.
}

// DefaultConfig sizes the worker pool from the CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// For calls f(i) for every i in [0, n). Small loops and disabled configs run
// inline on the caller's goroutine; everything else splits into contiguous
// chunks, one goroutine each. For returns after the last chunk finishes.
//
// f must be safe to call concurrently for distinct i.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				f(i)
			}
		}()
	}
	wg.Wait()
}

// ForBatch flattens a (rows, cols) loop nest into a single For so chunking
// can cross row boundaries. Spatial kernels use it to get enough work units
// out of small feature maps.
func ForBatch(rows, cols int, f func(row, col int), cfg Config) {
	For(rows*cols, func(k int) {
		f(k/cols, k%cols)
	}, cfg)
}
