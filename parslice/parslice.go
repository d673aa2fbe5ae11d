// Package parslice provides simple, fixed-partition parallel primitives
// over plain Go slices: Map, Filter, Reduce, Any, All, and None.
//
// This is the teacher's original approach (github.com/jussi-kalliokoski/
// par), adapted in two ways for this module: every primitive accepts a
// context.Context so callers can cancel in-flight work, and the MapTraced
// variant reports per-partition durations in the shape a trace records.
// The adaptive engine's local backend does not call into this package.
//
// As with the teacher package: measure before applying. This is only
// beneficial when the dataset is large enough or the per-item
// computation is expensive enough to amortize the partitioning
// overhead.
package parslice

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Map returns a slice of type Out by applying transform to every item in
// values, partitioned across GOMAXPROCS goroutines. The result preserves
// the order of values. If ctx is cancelled before a partition starts,
// that partition's outputs are left at their zero value.
func Map[In, Out any](ctx context.Context, values []In, transform func(In) Out) []Out {
	if len(values) == 0 {
		return []Out(nil)
	}

	partitions, partitionSize := parts(values)
	result := make([]Out, len(values))
	var wg sync.WaitGroup
	wg.Add(partitions)
	for p := 0; p < partitions; p++ {
		start := partitionSize * p
		end := start + partitionSize
		if p == partitions-1 {
			end = len(values)
		}
		go func(start, end int) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					return
				default:
					result[i] = transform(values[i])
				}
			}
		}(start, end)
	}
	wg.Wait()

	return result
}

// MapTraced behaves like Map but additionally returns the wall-clock
// duration each partition took, indexed by partition number in
// submission order.
func MapTraced[In, Out any](ctx context.Context, values []In, transform func(In) Out) ([]Out, []time.Duration) {
	if len(values) == 0 {
		return []Out(nil), nil
	}

	partitions, partitionSize := parts(values)
	result := make([]Out, len(values))
	durations := make([]time.Duration, partitions)
	var wg sync.WaitGroup
	wg.Add(partitions)
	for p := 0; p < partitions; p++ {
		start := partitionSize * p
		end := start + partitionSize
		if p == partitions-1 {
			end = len(values)
		}
		go func(p, start, end int) {
			defer wg.Done()
			t0 := time.Now()
			defer func() { durations[p] = time.Since(t0) }()
			if ctx.Err() != nil {
				return
			}
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					return
				default:
					result[i] = transform(values[i])
				}
			}
		}(p, start, end)
	}
	wg.Wait()

	return result, durations
}

// Filter returns a copy of values without the items for which predicate
// returns false, preserving order.
//
// Internally, predicate is mapped into per-partition bitmaps in
// parallel, then the bitmaps are used to place matching values into the
// result in parallel.
func Filter[T any](ctx context.Context, values []T, predicate func(T) bool) []T {
	if len(values) == 0 {
		return []T(nil)
	}

	partitions, partitionSize := parts(values)
	bitmapSize := partitionSize/64 + 1
	lastBitmapSize := (len(values)-(partitions-1)*partitionSize)/64 + 1
	fullBitmap := make([]uint64, bitmapSize*(partitions-1)+lastBitmapSize)
	jobs := make([]struct {
		bitmap []uint64
		start  int
		end    int
		offset int
		count  int
	}, partitions)

	var wg sync.WaitGroup
	wg.Add(partitions)
	for p := range jobs {
		jobs[p].bitmap = fullBitmap[bitmapSize*p:]
		jobs[p].start = p * partitionSize
		jobs[p].end = jobs[p].start + partitionSize
		if p == partitions-1 {
			jobs[p].end = len(values)
		}
		go func(p int) {
			defer wg.Done()
			j := jobs[p]
			if ctx.Err() != nil {
				return
			}
			for i := j.start; i < j.end; i++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if predicate(values[i]) {
					pos := i - j.start
					j.bitmap[pos/64] |= 1 << (pos % 64)
					j.count++
				}
			}
			jobs[p].count = j.count
		}(p)
	}
	wg.Wait()

	var totalCount int
	for p := range jobs {
		jobs[p].offset = totalCount
		totalCount += jobs[p].count
	}

	result := make([]T, totalCount)
	wg.Add(partitions)
	for p := range jobs {
		go func(p int) {
			defer wg.Done()
			j := jobs[p]
			for i := j.start; i < j.end; i++ {
				pos := i - j.start
				if (j.bitmap[pos/64] & (1 << (pos % 64))) > 0 {
					result[j.offset] = values[i]
					j.offset++
				}
			}
		}(p)
	}
	wg.Wait()

	return result
}

// Reduce reduces values to a single value by repeatedly applying
// accumulator, in parallel within partitions and then across partition
// results. The ordering of accumulations is deterministic and linear
// only within a partition.
//
// Panics if values is empty.
func Reduce[T any](ctx context.Context, values []T, accumulator func(T, T) T) T {
	if len(values) < 1 {
		panic("parslice: cannot reduce an empty slice")
	}

	partitions, partitionSize := parts(values)
	results := make(chan T)
	for p := 0; p < partitions; p++ {
		start := partitionSize * p
		end := start + partitionSize
		if p == partitions-1 {
			end = len(values)
		}
		go func(start, end int) {
			v := values[start]
			for i := start + 1; i < end; i++ {
				if ctx.Err() != nil {
					break
				}
				v = accumulator(v, values[i])
			}
			results <- v
		}(start, end)
	}

	v := <-results
	for p := 1; p < partitions; p++ {
		v = accumulator(v, <-results)
	}
	return v
}

// Any reports whether predicate returns true for any value. A partition
// terminates on the first match, so predicate may not run on every
// value.
func Any[T any](ctx context.Context, values []T, predicate func(T) bool) bool {
	if len(values) == 0 {
		return false
	}

	partitions, partitionSize := parts(values)

	results := make(chan bool, partitions)
	done := make(chan struct{})
	for p := 0; p < partitions; p++ {
		start := partitionSize * p
		end := start + partitionSize
		if p == partitions-1 {
			end = len(values)
		}
		go func() {
			for i := start; i < end; i++ {
				select {
				case <-done:
					results <- false
					return
				case <-ctx.Done():
					results <- false
					return
				default:
					if predicate(values[i]) {
						results <- true
						return
					}
				}
			}
			results <- false
		}()
	}

	var result bool
	for p := 0; p < partitions; p++ {
		if <-results && !result {
			close(done)
			result = true
		}
	}
	return result
}

// All reports whether predicate returns true for every value.
func All[T any](ctx context.Context, values []T, predicate func(T) bool) bool {
	return None(ctx, values, func(v T) bool { return !predicate(v) })
}

// None reports whether predicate returns true for no value.
func None[T any](ctx context.Context, values []T, predicate func(T) bool) bool {
	return !Any(ctx, values, predicate)
}

// parts returns the number of partitions and the size per partition,
// optimised for the available CPUs and the given values.
func parts[In any](values []In) (count, size int) {
	if p := runtime.GOMAXPROCS(0); p <= len(values) {
		return p, len(values) / p
	}
	return len(values), 1
}
