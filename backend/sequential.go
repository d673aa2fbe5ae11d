package backend

import (
	"context"
	"iter"
	"sync/atomic"
)

// sequentialBackend runs every task inline, in submission order, on the
// caller's goroutine. It exists so callers can explicitly configure
// "no parallelism" (e.g. in tests asserting sequential-fallback
// equivalence) through the Backend contract. It is not used when no
// ambient backend is configured at all: the controller then calls the
// function directly without opening a session.
type sequentialBackend struct{}

// NewSequential returns a Backend that executes every task inline.
// AllowsNestedTasks is false: a sequential backend has no pool to
// oversubscribe, but nesting under it is still meaningless since there
// is nothing to parallelize into, so recursive calls degrade to
// sequential execution like any other non-nesting backend.
func NewSequential() Backend {
	return sequentialBackend{}
}

func (sequentialBackend) AllowsNestedTasks() bool { return false }

func (sequentialBackend) OpenSession(ctx context.Context) (Session, error) {
	return &sequentialSession{}, nil
}

func (sequentialBackend) Shutdown() error { return nil }

type sequentialSession struct {
	closed atomic.Bool
}

func (s *sequentialSession) Preload(ctx context.Context, v any) (Handle, error) {
	return Handle(v), nil
}

func (s *sequentialSession) ParallelMap(ctx context.Context, apply ApplyFunc, in iter.Seq[Item]) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		for item := range in {
			if ctx.Err() != nil {
				if !yield(Result{}, ctx.Err()) {
					return
				}
				continue
			}
			res, err := apply(ctx, item.Payload, item.Trace)
			if !yield(res, err) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

func (s *sequentialSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return errAlreadyClosed
	}
	return nil
}

var errAlreadyClosed = closedError{}

type closedError struct{}

func (closedError) Error() string { return "backend: session already closed" }
