// Package parfun is a parallel map-reduce execution engine: it
// transparently parallelizes a user function by splitting its input
// arguments into partitions, dispatching each as an independent task to
// a pluggable backend, and combining the per-partition outputs into a
// single result. Partition sizes adapt at runtime by fitting a cost
// model to observed task durations, so callers do not need to hand-tune
// chunk sizes.
package parfun

import (
	"context"
	"fmt"
	"io"
	"iter"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/bansalr/parfun/ambient"
	"github.com/bansalr/parfun/backend"
	"github.com/bansalr/parfun/estimator"
	"github.com/bansalr/parfun/parfunlog"
	"github.com/bansalr/parfun/partition"
	"github.com/bansalr/parfun/partools"
	"github.com/bansalr/parfun/trace"
)

// UserFunc is the computation being parallelized. It is expected to be
// pure with respect to args.
type UserFunc func(ctx context.Context, args partools.NamedArguments) (any, error)

// CombinerFunc reduces the lazy sequence of per-partition outputs into a
// single result. It must be associative; the sequence is presented in
// submission order regardless of completion order.
type CombinerFunc func(results iter.Seq[any]) (any, error)

// Controller is the top-level orchestrator: Invoke binds arguments,
// drives the partition generator with adaptive sizing, submits work to
// a backend, and combines the results.
type Controller struct {
	Function UserFunc
	Combiner CombinerFunc
	Splitter partition.Func

	InitialSize SizeOption
	FixedSize   SizeOption

	EstimatorFactory estimator.Factory
	Signature        *partools.FunctionSignature

	Profile     bool
	TraceExport io.Writer

	Logger *zap.SugaredLogger
}

func (c *Controller) logger() *zap.SugaredLogger {
	if c.Logger != nil {
		return c.Logger
	}
	return parfunlog.Default()
}

// Callable is the wrapped callable Parallelize returns: behaviorally
// identical to the bare function when no backend is configured.
type Callable struct {
	controller *Controller
}

// Parallelize returns a Callable wrapping fn: when invoked, its
// arguments are split by splitter, dispatched in partitions to the
// ambient backend, and combined by combiner.
func Parallelize(fn UserFunc, combiner CombinerFunc, splitter partition.Func, opts ...Option) (*Callable, error) {
	c := &Controller{
		Function: fn,
		Combiner: combiner,
		Splitter: splitter,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.EstimatorFactory == nil {
		c.EstimatorFactory = estimator.NewLinearRegression()
	}
	return &Callable{controller: c}, nil
}

// Call invokes the wrapped function with already-bound arguments.
func (cl *Callable) Call(ctx context.Context, args partools.NamedArguments) (any, error) {
	return cl.controller.Invoke(ctx, args)
}

// CallArgs binds positional and named call arguments against the
// Callable's configured Signature (see WithSignature) and invokes the
// wrapped function.
func (cl *Callable) CallArgs(ctx context.Context, positional []any, named map[string]any) (any, error) {
	if cl.controller.Signature == nil {
		return nil, &ConfigurationError{Msg: "CallArgs requires WithSignature to have been set on Parallelize"}
	}
	args, err := cl.controller.Signature.Assign(positional, named)
	if err != nil {
		return nil, &ConfigurationError{Msg: err.Error()}
	}
	return cl.controller.Invoke(ctx, args)
}

// Invoke runs one scatter-gather call: see spec.md §4.1 for the
// algorithm. Invoke is safe to call concurrently from multiple
// goroutines; all per-invocation state lives on the stack or in values
// created fresh here.
func (c *Controller) Invoke(ctx context.Context, args partools.NamedArguments) (any, error) {
	invocationID := uuid.New().String()
	logger := c.logger().With("invocation_id", invocationID)

	b := ambient.CurrentBackend(ctx)
	if b == nil {
		logger.Warnw("no backend configured, falling back to sequential execution", "error", (&BackendUnavailable{}).Error())
		return c.Function(ctx, args)
	}

	if childBackend, inTask := ambient.InTask(ctx); inTask && childBackend == nil {
		logger.Debugw("nested call observed under a non-nesting backend, falling back to sequential execution")
		return c.Function(ctx, args)
	}

	nonPartitioned, gen, err := c.Splitter(args)
	if err != nil {
		return nil, &InvalidInput{Msg: err.Error(), Err: err}
	}
	if err := gen.Start(); err != nil {
		return nil, &InvalidInput{Msg: err.Error(), Err: err}
	}

	session, err := b.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	closed := false
	closeSession := func() error {
		if closed {
			return nil
		}
		closed = true
		return session.Close()
	}
	defer closeSession() //nolint:errcheck // error path below captures and reports it explicitly

	preloadHandle, err := session.Preload(ctx, nonPartitioned)
	if err != nil {
		_ = closeSession()
		return nil, err
	}

	est := c.EstimatorFactory()
	tt := &trace.TaskTrace{InvocationID: invocationID}
	wallStart := time.Now()

	var genErr error
	items := c.drive(gen, est, args, &genErr)

	apply := c.applyFunc(b, preloadHandle)

	results := session.ParallelMap(ctx, apply, items)

	partitionIdx := 0
	var workerErr error
	combinedSeq := func(yield func(any) bool) {
		for res, err := range results {
			if err != nil {
				workerErr = &WorkerFailure{PartitionIndex: partitionIdx, Err: err}
				return
			}
			if res.Trace != nil {
				est.Observe(res.Trace.PartitionSize, res.Trace.TaskDuration)
				tt.Partitions = append(tt.Partitions, *res.Trace)
			}
			partitionIdx++
			if !yield(res.Value) {
				return
			}
		}
	}

	combineStart := time.Now()
	combined, combineErr := c.Combiner(combinedSeq)
	combineDuration := time.Since(combineStart)
	if n := len(tt.Partitions); n > 0 {
		tt.Partitions[n-1].CombineDuration = combineDuration
	}
	tt.WallClock = time.Since(wallStart)

	if cerr := closeSession(); cerr != nil {
		combineErr = multierr.Append(combineErr, cerr)
	}

	if genErr != nil {
		return nil, genErr
	}
	if workerErr != nil {
		return nil, workerErr
	}
	if ctx.Err() != nil {
		return nil, &Cancelled{Err: ctx.Err()}
	}
	if combineErr != nil {
		return nil, combineErr
	}

	if introspect, ok := est.(estimator.Introspectable); ok {
		params := introspect.Params()
		tt.EstimatorParams = &params
	}

	if c.Profile {
		logger.Info(tt.Summarize().String())
	}
	if c.TraceExport != nil {
		if err := tt.ExportCSV(c.TraceExport); err != nil {
			logger.Warnw("failed to export trace", "error", err)
		}
	}

	return combined, nil
}

// drive implements the adaptive partition-size loop of spec.md §4.2: it
// requests a size from the fixed/initial/estimator policy, pulls one
// partition from gen, times partition generation, and yields the
// (payload, trace) pair downstream. Any generator error or size-bound
// violation is stored in *outErr and stops the stream, since iter.Seq
// has no channel of its own to report it through.
func (c *Controller) drive(gen partition.Generator, est estimator.Estimator, args partools.NamedArguments, outErr *error) iter.Seq[backend.Item] {
	return func(yield func(backend.Item) bool) {
		first := true
		idx := 0
		for {
			remaining := math.MaxInt
			if sized, ok := gen.(partition.Sized); ok {
				remaining = sized.Remaining()
			}

			requested := c.nextRequestedSize(est, args, remaining, first)
			first = false

			t0 := time.Now()
			actual, payload, done, err := gen.Next(requested)
			partitionDuration := time.Since(t0)
			if err != nil {
				*outErr = err
				return
			}
			if done {
				return
			}
			if boundErr := partition.CheckBounds(requested, actual); boundErr != nil {
				*outErr = &InvalidPartition{Requested: requested, Actual: actual, Reason: boundErr.Error()}
				return
			}

			tr := &trace.PartitionedTaskTrace{
				PartitionIndex:    idx,
				PartitionSize:     actual,
				PartitionDuration: partitionDuration,
			}
			idx++

			if !yield(backend.Item{Payload: payload, Trace: tr}) {
				return
			}
		}
	}
}

// nextRequestedSize implements spec.md §4.2's size request policy.
func (c *Controller) nextRequestedSize(est estimator.Estimator, args partools.NamedArguments, remaining int, first bool) int {
	switch {
	case c.FixedSize.IsSet():
		return positiveOrOne(c.FixedSize.Resolve(args))
	case first && c.InitialSize.IsSet():
		return positiveOrOne(c.InitialSize.Resolve(args))
	default:
		return positiveOrOne(est.NextSize(remaining))
	}
}

func positiveOrOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// applyFunc builds the per-task wrapper the backend session dispatches:
// it merges the preloaded non-partitioned arguments with the partition
// payload, installs the nested-call marker (and, when the backend
// allows nesting, a child backend handle as the new ambient backend),
// times the user function, and records its duration into the trace.
func (c *Controller) applyFunc(b backend.Backend, preloadHandle backend.Handle) backend.ApplyFunc {
	return func(ctx context.Context, payload partition.Payload, tr *trace.PartitionedTaskTrace) (backend.Result, error) {
		nonPartitioned, ok := preloadHandle.(partools.NamedArguments)
		if !ok {
			return backend.Result{}, fmt.Errorf("parfun: preloaded handle is not NamedArguments (got %T)", preloadHandle)
		}
		merged, err := nonPartitioned.Merge(payload)
		if err != nil {
			return backend.Result{}, err
		}

		var childBackend backend.Backend
		if b.AllowsNestedTasks() {
			childBackend = childOf(b)
		}

		taskCtx := ambient.WithTaskMarker(ctx, childBackend)
		if childBackend != nil {
			taskCtx = ambient.WithBackend(taskCtx, childBackend)
		}

		t0 := time.Now()
		out, err := c.Function(taskCtx, merged)
		tr.TaskDuration = time.Since(t0)
		if err != nil {
			return backend.Result{Trace: tr}, err
		}
		return backend.Result{Value: out, Trace: tr}, nil
	}
}

// childDescender is implemented by backends that know how to size a
// child backend for nested tasks; backend.localBackend implements it.
type childDescender interface {
	Child() backend.Backend
}

func childOf(b backend.Backend) backend.Backend {
	if d, ok := b.(childDescender); ok {
		return d.Child()
	}
	return b
}
