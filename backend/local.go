package backend

import (
	"context"
	"iter"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// localBackend is an in-process, bounded worker-pool Backend. It is the
// one concrete, usable Backend this module ships; spec.md treats real
// backends as external collaborators, but a complete repo needs at
// least one to actually run.
//
// Grounded on the bounded worker pool in the retrieved perf-analysis
// WorkerPool[T,R] (task channel + semaphore-style concurrency cap) and
// on bigslice's executor session lifecycle (scoped open/close,
// re-sequencing of results into submission order).
type localBackend struct {
	concurrency int64
	allowNested bool
}

// Option configures a localBackend.
type Option func(*localBackend)

// WithConcurrency overrides the maximum number of concurrently running
// tasks. The zero value uses runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(b *localBackend) {
		if n != 0 {
			b.concurrency = int64(n)
		}
	}
}

// WithNestedTasksAllowed marks the backend as supporting nested
// parallelism: a recursive Invoke observing this backend's task marker
// will continue in parallel (using a child backend sized to a fraction
// of the parent's concurrency) instead of degrading to sequential
// execution.
func WithNestedTasksAllowed() Option {
	return func(b *localBackend) { b.allowNested = true }
}

// NewLocal returns a new in-process worker-pool Backend.
func NewLocal(opts ...Option) Backend {
	b := &localBackend{concurrency: int64(runtime.GOMAXPROCS(0))}
	for _, opt := range opts {
		opt(b)
	}
	if b.concurrency < 1 {
		b.concurrency = 1
	}
	return b
}

func (b *localBackend) AllowsNestedTasks() bool { return b.allowNested }

func (b *localBackend) OpenSession(ctx context.Context) (Session, error) {
	return &localSession{
		backend: b,
		sem:     semaphore.NewWeighted(b.concurrency),
	}, nil
}

func (b *localBackend) Shutdown() error { return nil }

// childConcurrency is what a nested invocation running on this backend
// gets: at least 1, and a fraction of the parent's budget so a nested
// call doesn't oversubscribe the machine.
func (b *localBackend) childConcurrency() int64 {
	c := b.concurrency / 2
	if c < 1 {
		c = 1
	}
	return c
}

// Child returns the Backend a task should install as its ambient
// context when it wants to permit further nesting, sized down from the
// parent's concurrency.
func (b *localBackend) Child() Backend {
	return NewLocal(WithConcurrency(int(b.childConcurrency())), func(c *localBackend) {
		c.allowNested = b.allowNested
	})
}

type localSession struct {
	backend *localBackend
	sem     *semaphore.Weighted
	closed  atomic.Bool
}

func (s *localSession) Preload(ctx context.Context, v any) (Handle, error) {
	return Handle(v), nil
}

type applyOutcome struct {
	result Result
	err    error
}

// ParallelMap dispatches apply over in with bounded concurrency,
// re-sequencing completions into submission order. The semaphore both
// bounds in-flight goroutines and provides the backpressure spec.md §5
// describes: once the concurrency budget is exhausted, the dispatch loop
// blocks before pulling the next item from in.
func (s *localSession) ParallelMap(ctx context.Context, apply ApplyFunc, in iter.Seq[Item]) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		type promise struct {
			outcome chan applyOutcome
		}
		promises := make(chan promise, s.backend.concurrency)
		var wg sync.WaitGroup

		go func() {
			defer close(promises)
			for item := range in {
				if ctx.Err() != nil {
					return
				}
				if err := s.sem.Acquire(ctx, 1); err != nil {
					return
				}

				p := promise{outcome: make(chan applyOutcome, 1)}
				select {
				case promises <- p:
				case <-ctx.Done():
					s.sem.Release(1)
					return
				}

				wg.Add(1)
				go func(item Item, p promise) {
					defer wg.Done()
					defer s.sem.Release(1)
					res, err := apply(ctx, item.Payload, item.Trace)
					p.outcome <- applyOutcome{result: res, err: err}
				}(item, p)
			}
		}()

		stoppedEarly := false
		for p := range promises {
			outcome := <-p.outcome
			if !yield(outcome.result, outcome.err) {
				stoppedEarly = true
				cancel()
				break
			}
		}

		if stoppedEarly {
			// Drain remaining promises so the dispatch goroutine above
			// never blocks forever trying to send one we stopped
			// reading; in-flight tasks may still complete, their
			// results are discarded per spec.md's cancellation
			// semantics.
			go func() {
				for p := range promises {
					<-p.outcome
				}
			}()
			return
		}
		wg.Wait()
	}
}

func (s *localSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return errAlreadyClosed
	}
	return nil
}
