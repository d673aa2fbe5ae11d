package parfun

import (
	"context"

	"github.com/bansalr/parfun/parslice"
)

// MapSlice is a convenience wrapper for the common case of transforming a
// plain Go slice with no need for the adaptive engine: no backend
// configuration, no estimator, no partition protocol. It partitions values
// by GOMAXPROCS and runs transform in parallel, the same way the teacher
// package's Map always has.
//
// Reach for Parallelize instead when the computation is expensive enough,
// or input large enough, to need adaptive partition sizing, a pluggable
// out-of-process backend, or a profiling trace.
func MapSlice[In, Out any](ctx context.Context, values []In, transform func(In) Out) []Out {
	return parslice.Map(ctx, values, transform)
}

// FilterSlice is the MapSlice-style convenience wrapper around parslice.Filter.
func FilterSlice[T any](ctx context.Context, values []T, predicate func(T) bool) []T {
	return parslice.Filter(ctx, values, predicate)
}

// ReduceSlice is the MapSlice-style convenience wrapper around parslice.Reduce.
// Panics if values is empty.
func ReduceSlice[T any](ctx context.Context, values []T, accumulator func(T, T) T) T {
	return parslice.Reduce(ctx, values, accumulator)
}
