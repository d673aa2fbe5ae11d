package estimator

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	// defaultWindow is the number of most recent observations the
	// regression is fit over (spec.md §4.3, W = 32).
	defaultWindow = 32

	// defaultColdStart is the number of observations required before the
	// regression is trusted (spec.md §4.3, k = 3).
	defaultColdStart = 3

	// defaultMinRSquared gates the regression's confidence; below this
	// the estimator falls back to the last known-good size.
	defaultMinRSquared = 0.2

	defaultTargetMin = time.Millisecond
	defaultTargetMax = 2 * time.Second
)

// Option configures a LinearRegression estimator.
type Option func(*LinearRegression)

// WithWindow overrides the number of recent observations kept for the
// regression fit.
func WithWindow(w int) Option {
	return func(e *LinearRegression) { e.window = w }
}

// WithColdStart overrides how many observations are required before the
// regression is trusted.
func WithColdStart(k int) Option {
	return func(e *LinearRegression) { e.coldStart = k }
}

// WithMinRSquared overrides the confidence gate below which the
// regression is distrusted and the last known-good size is reused.
func WithMinRSquared(r2 float64) Option {
	return func(e *LinearRegression) { e.minRSquared = r2 }
}

// WithTargetBounds overrides the [T_min, T_max] clamp applied to the
// target duration T (spec.md §4.3).
func WithTargetBounds(min, max time.Duration) Option {
	return func(e *LinearRegression) { e.targetMin, e.targetMax = min, max }
}

// WithInitialSize seeds the first requested size; the estimator
// continues the cold-start doubling sequence from it (spec.md §4.3
// "If initial_partition_size was supplied, use it once and continue
// doubling from there until k is reached").
func WithInitialSize(size int) Option {
	return func(e *LinearRegression) { e.nextColdStartSize = size }
}

// NewLinearRegression returns a Factory for the default estimator
// variant: ordinary-least-squares regression of duration on size over a
// sliding window, targeting a clamped median historical duration.
func NewLinearRegression(opts ...Option) Factory {
	return func() Estimator {
		e := &LinearRegression{
			window:            defaultWindow,
			coldStart:         defaultColdStart,
			minRSquared:       defaultMinRSquared,
			targetMin:         defaultTargetMin,
			targetMax:         defaultTargetMax,
			nextColdStartSize: 1,
			lastGoodSize:      1,
		}
		for _, opt := range opts {
			opt(e)
		}
		return e
	}
}

// LinearRegression is the default partition-size estimator: it fits
// duration ~ alpha + beta*size by OLS over the most recent window of
// observations and recommends the size that would make the next task's
// duration approximate a target T, clamped to [T_min, T_max] and to the
// remaining input.
type LinearRegression struct {
	mu sync.Mutex

	window      int
	coldStart   int
	minRSquared float64
	targetMin   time.Duration
	targetMax   time.Duration

	sizes     []float64
	durations []float64

	nextColdStartSize int
	lastGoodSize      int

	alpha, beta, rSquared float64
}

// Observe records a completed task's partition size and duration.
func (e *LinearRegression) Observe(size int, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sizes = append(e.sizes, float64(size))
	e.durations = append(e.durations, float64(duration))
	if len(e.sizes) > e.window {
		overflow := len(e.sizes) - e.window
		e.sizes = e.sizes[overflow:]
		e.durations = e.durations[overflow:]
	}
	e.refit()
}

// NextSize recommends the next partition size.
func (e *LinearRegression) NextSize(remaining int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if remaining <= 0 {
		return 1
	}

	if len(e.sizes) < e.coldStart {
		size := e.nextColdStartSize
		e.nextColdStartSize *= 2
		if e.nextColdStartSize < 1 {
			e.nextColdStartSize = 1
		}
		return clamp(size, 1, remaining)
	}

	if e.beta <= 0 || e.rSquared < e.minRSquared {
		return clamp(e.lastGoodSize, 1, remaining)
	}

	target := e.targetDuration()
	size := int(math.Round((target - e.alpha) / e.beta))
	size = clamp(size, 1, remaining)
	e.lastGoodSize = size
	return size
}

// Params reports the estimator's last fitted model, for profiling.
func (e *LinearRegression) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Params{
		Alpha:        e.alpha,
		Beta:         e.beta,
		RSquared:     e.rSquared,
		Samples:      len(e.sizes),
		LastGoodSize: e.lastGoodSize,
	}
}

// refit recomputes alpha, beta, and R^2 over the current window. Must be
// called with e.mu held.
func (e *LinearRegression) refit() {
	if len(e.sizes) < 2 {
		return
	}
	e.alpha, e.beta = stat.LinearRegression(e.sizes, e.durations, nil, false)
	e.rSquared = stat.RSquared(e.sizes, e.durations, nil, e.alpha, e.beta)
}

// targetDuration is the median of the observed window's durations,
// clamped to [targetMin, targetMax]. Must be called with e.mu held.
func (e *LinearRegression) targetDuration() float64 {
	sorted := append([]float64(nil), e.durations...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	if median < float64(e.targetMin) {
		median = float64(e.targetMin)
	}
	if median > float64(e.targetMax) {
		median = float64(e.targetMax)
	}
	return median
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
