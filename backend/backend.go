// Package backend defines the pluggable worker-backend capability set
// (spec.md §4.4) and provides two concrete implementations: an
// in-process bounded worker pool (localBackend) and a no-op sequential
// backend used when the engine falls back to running inline.
package backend

import (
	"context"
	"iter"

	"github.com/bansalr/parfun/partition"
	"github.com/bansalr/parfun/trace"
)

// Handle is an opaque reference to a value a Session has preloaded. A
// Backend may materialize the underlying value on each worker at most
// once per session.
type Handle any

// UserFunc is the user's computation, applied once per partition. It is
// pure with respect to its inputs.
type UserFunc func(ctx context.Context, payload partition.Payload) (any, error)

// Result is one partition's output, paired with its enriched trace.
type Result struct {
	Value any
	Trace *trace.PartitionedTaskTrace
}

// ApplyFunc wraps UserFunc with whatever the backend needs to dispatch
// it to a worker: the preloaded non-partitioned arguments are already
// bound into the closure by the controller (spec.md §4.4 describes the
// full input set to this wrapper: user function, preloaded arguments,
// partition payload + trace, and an optional child backend handle for
// nested tasks — the controller partially applies the first and last of
// these once per invocation rather than per partition, since they do
// not vary across partitions).
type ApplyFunc func(ctx context.Context, payload partition.Payload, tr *trace.PartitionedTaskTrace) (Result, error)

// Item is one partition flowing into Session.ParallelMap, paired with
// its trace so far (partition size and partition-generation duration).
type Item struct {
	Payload partition.Payload
	Trace   *trace.PartitionedTaskTrace
}

// Session is a scoped handle to a backend for the duration of one
// invocation. It must be closed exactly once, on every exit path
// (success, error, or cancellation).
type Session interface {
	// Preload transfers a value common to every task in this session.
	// Backends may cache the materialized value per worker.
	Preload(ctx context.Context, v any) (Handle, error)

	// ParallelMap consumes a lazy sequence of partitions and produces a
	// lazy sequence of (Result, error) pairs in the same order the
	// partitions were read from in. Workers may execute concurrently in
	// any order; the session re-sequences outputs. The backend may pause
	// pulling from in when its internal queue is saturated.
	ParallelMap(ctx context.Context, apply ApplyFunc, in iter.Seq[Item]) iter.Seq2[Result, error]

	// Close drains in-flight tasks on a clean exit, or cancels them if
	// ctx was already cancelled. It is safe to call at most once; callers
	// must not call Close twice.
	Close() error
}

// Backend is the pluggable worker-pool abstraction sessions are opened
// against.
type Backend interface {
	// AllowsNestedTasks reports whether a task running on this backend
	// may itself open a new session recursively (spec.md §4.6).
	AllowsNestedTasks() bool

	// OpenSession acquires a scoped Session. Callers must Close it on
	// every exit path.
	OpenSession(ctx context.Context) (Session, error)

	// Shutdown terminates worker resources at the end of process life.
	// It is distinct from Close: Shutdown tears down the backend itself,
	// not a single session.
	Shutdown() error
}
