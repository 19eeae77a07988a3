package core

import (
	"runtime"
	"sync"
)

// forEachRowChunk partitions the row range [0, n) across workers and runs fn
// on each chunk in its own goroutine, blocking until all chunks complete.
// Workers write only to their own disjoint output rows, so no locking is
// needed. A workers value <= 0 selects runtime.NumCPU().
func forEachRowChunk(n, workers int, fn func(start, end int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	rowsPerWorker := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := start + rowsPerWorker
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
