// Package trace carries per-partition timing records through the
// execution pipeline and exports them in a documented tabular form.
package trace

import (
	"fmt"
	"sort"
	"time"

	"github.com/bansalr/parfun/estimator"
)

// PartitionedTaskTrace is created when a partition is produced and
// enriched as it flows through the pipeline: partition generation,
// worker execution, and combine each contribute a duration.
type PartitionedTaskTrace struct {
	PartitionIndex    int
	PartitionSize     int
	PartitionDuration time.Duration
	TaskDuration      time.Duration
	CombineDuration   time.Duration
}

// TaskTrace aggregates the PartitionedTaskTrace records of one
// invocation along with the invocation's wall-clock total.
type TaskTrace struct {
	// InvocationID identifies one Controller.Invoke call across its log
	// lines, profile summary, and CSV export, so concurrent invocations
	// sharing a backend can be told apart.
	InvocationID string

	Partitions []PartitionedTaskTrace
	WallClock  time.Duration

	// EstimatorParams is populated from estimator.Introspectable when the
	// configured estimator supports it, for the profiling summary.
	EstimatorParams *estimator.Params
}

// PartitionCount is a convenience accessor for len(Partitions).
func (t TaskTrace) PartitionCount() int {
	return len(t.Partitions)
}

// Summary is the human-readable aggregate printed when profiling is
// enabled.
type Summary struct {
	InvocationID   string
	PartitionCount int
	MeanTaskTime   time.Duration
	MedianTaskTime time.Duration
	WallClock      time.Duration
	Estimator      *estimator.Params
}

// Summarize computes the Summary for the trace.
func (t TaskTrace) Summarize() Summary {
	s := Summary{
		InvocationID:   t.InvocationID,
		PartitionCount: len(t.Partitions),
		WallClock:      t.WallClock,
		Estimator:      t.EstimatorParams,
	}
	if len(t.Partitions) == 0 {
		return s
	}

	durations := make([]time.Duration, len(t.Partitions))
	var total time.Duration
	for i, p := range t.Partitions {
		durations[i] = p.TaskDuration
		total += p.TaskDuration
	}
	s.MeanTaskTime = total / time.Duration(len(durations))

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	mid := len(durations) / 2
	if len(durations)%2 == 0 {
		s.MedianTaskTime = (durations[mid-1] + durations[mid]) / 2
	} else {
		s.MedianTaskTime = durations[mid]
	}

	return s
}

// String renders the summary the way Controller.Profile prints it:
// partition count, mean/median task duration, and the estimator's final
// parameters when available.
func (s Summary) String() string {
	out := fmt.Sprintf("parfun[%s]: %d partition(s), wall=%s, mean task=%s, median task=%s",
		s.InvocationID, s.PartitionCount, s.WallClock, s.MeanTaskTime, s.MedianTaskTime)
	if s.Estimator != nil {
		out += fmt.Sprintf(", estimator(alpha=%.4g, beta=%.4g, r2=%.3f, samples=%d)",
			s.Estimator.Alpha, s.Estimator.Beta, s.Estimator.RSquared, s.Estimator.Samples)
	}
	return out
}
