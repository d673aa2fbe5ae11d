// Package estimator implements online partition-size estimation: models
// per-task duration as a function of partition size and recommends the
// next size to request from a partition.Generator.
package estimator

import "time"

// Estimator is the narrow capability the controller depends on. It is
// touched only by the controller: Observe is called once per completed
// task, NextSize once before each partition request. There is no
// callback path from the estimator back into the controller.
type Estimator interface {
	// Observe records that a partition of the given size took duration
	// to execute.
	Observe(size int, duration time.Duration)

	// NextSize recommends the size of the next partition to request,
	// given how many base units of input remain. The result is always
	// in [1, remaining] when remaining > 0.
	NextSize(remaining int) int
}

// Introspectable is optionally implemented by estimators that can report
// their current fitted parameters, for the profiling summary (spec.md
// §4.7, "estimator's final parameters").
type Introspectable interface {
	Params() Params
}

// Params is a snapshot of an estimator's fitted model, reported for
// profiling purposes only.
type Params struct {
	Alpha        float64 // fixed per-task overhead
	Beta         float64 // marginal per-unit cost
	RSquared     float64
	Samples      int
	LastGoodSize int
}

// Factory constructs a fresh Estimator. The controller calls it once per
// invocation by default (spec.md §4.3 "one estimator per invocation"),
// so there is no cross-invocation leakage unless a caller deliberately
// shares a Factory's closed-over state (which must then document its own
// thread-safety, per spec.md).
type Factory func() Estimator
