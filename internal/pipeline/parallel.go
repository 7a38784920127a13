package pipeline

import "sync"

// parallelFor runs fn over [0, n) split into contiguous chunks, one per
// worker. Each iteration range is disjoint, so fn must only write to
// indices it owns; no synchronization happens inside the phase.
func parallelFor(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	// Small ranges aren't worth the goroutine overhead.
	if workers <= 1 || n < 1024 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for workerID := 0; workerID < workers; workerID++ {
		start := workerID * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}

	wg.Wait()
}
