// Package parallel splits row ranges across goroutines for read-only work
// such as scoring a fitted model over a large matrix.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultRowThreshold is the row count below which ForRows stays sequential.
const DefaultRowThreshold = 512

// Parallelize divides [0, items) into contiguous ranges, one per worker, and
// runs fn on each range concurrently. It returns when every range is done.
// workers <= 0 means runtime.NumCPU().
func Parallelize(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ForRows runs fn over [0, rows) sequentially when rows <= threshold and in
// parallel otherwise. fn must only write to disjoint row ranges.
func ForRows(rows, threshold int, fn func(start, end int)) {
	if rows <= 0 {
		return
	}
	if rows <= threshold {
		fn(0, rows)
		return
	}
	Parallelize(rows, 0, fn)
}
