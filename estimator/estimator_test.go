package estimator_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bansalr/parfun/estimator"
)

func TestFixedEstimatorClampsToRemaining(t *testing.T) {
	e := estimator.NewFixed(50)()
	assert.Equal(t, 50, e.NextSize(1000))
	assert.Equal(t, 10, e.NextSize(10))
	assert.Equal(t, 1, e.NextSize(0))
}

func TestLinearRegressionColdStartDoubles(t *testing.T) {
	e := estimator.NewLinearRegression(estimator.WithColdStart(4), estimator.WithInitialSize(2))()

	sizes := []int(nil)
	for i := 0; i < 4; i++ {
		sizes = append(sizes, e.NextSize(1000))
		e.Observe(sizes[i], time.Millisecond)
	}
	assert.Equal(t, []int{2, 4, 8, 16}, sizes)
}

func TestLinearRegressionConvergesTowardTargetRate(t *testing.T) {
	// Synthetic cost model: duration = 1ms + size*0.1ms, plus up to 10%
	// seeded positive jitter. Once
	// past cold start, the estimator should settle on a size whose
	// predicted duration sits within the estimator's [T_min, T_max]
	// bounds, not oscillate wildly.
	const alpha = time.Millisecond
	const beta = 100 * time.Microsecond

	e := estimator.NewLinearRegression(
		estimator.WithColdStart(3),
		estimator.WithWindow(32),
		estimator.WithTargetBounds(10*time.Millisecond, 50*time.Millisecond),
	)()

	rng := rand.New(rand.NewSource(1))
	remaining := 1_000_000
	var lastSize int
	for i := 0; i < 40; i++ {
		size := e.NextSize(remaining)
		require.GreaterOrEqual(t, size, 1)
		require.LessOrEqual(t, size, remaining)

		duration := alpha + beta*time.Duration(size)
		jitter := time.Duration(rng.Int63n(int64(duration) / 10))
		e.Observe(size, duration+jitter)

		remaining -= size
		lastSize = size
	}

	introspect, ok := e.(estimator.Introspectable)
	require.True(t, ok)
	params := introspect.Params()
	assert.Greater(t, params.RSquared, 0.8)
	assert.Greater(t, lastSize, 0)
}
