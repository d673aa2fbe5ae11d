// Command parfunbench runs a small, tunable parallel sum over a synthetic
// slice of integers, exercising Parallelize end to end against the
// in-process local backend. It prints a profiling summary and, optionally,
// a per-partition CSV trace.
package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/bansalr/parfun"
	"github.com/bansalr/parfun/ambient"
	"github.com/bansalr/parfun/backend"
	"github.com/bansalr/parfun/parfunlog"
	"github.com/bansalr/parfun/partition/slicesplit"
	"github.com/bansalr/parfun/partools"
)

func main() {
	n := flag.Int("n", 10_000_000, "number of integers to sum")
	concurrency := flag.Int("concurrency", 0, "worker concurrency (0 = GOMAXPROCS)")
	fixedSize := flag.Int("fixed-size", 0, "fixed partition size (0 = adaptive)")
	workNS := flag.Int("work-ns", 0, "simulated per-item work in nanoseconds")
	traceOut := flag.String("trace", "", "path to write a CSV trace (empty = none)")
	flag.Parse()

	logger := parfunlog.Default()
	defer logger.Sync() //nolint:errcheck

	values := make([]int, *n)
	for i := range values {
		values[i] = i
	}

	sumFunc := func(ctx context.Context, args partools.NamedArguments) (any, error) {
		part := args.Values["values"].([]int)
		sum := 0
		for _, v := range part {
			if *workNS > 0 {
				busyWait(time.Duration(*workNS))
			}
			sum += v
		}
		return sum, nil
	}
	sumCombiner := func(results iter.Seq[any]) (any, error) {
		total := 0
		for v := range results {
			total += v.(int)
		}
		return total, nil
	}

	opts := []parfun.Option{parfun.WithProfile()}
	if *fixedSize > 0 {
		opts = append(opts, parfun.WithFixedPartitionSize(parfun.Size(*fixedSize)))
	}

	var traceFile *os.File
	if *traceOut != "" {
		f, err := os.Create(*traceOut)
		if err != nil {
			logger.Fatalw("failed to open trace output", "error", err)
		}
		traceFile = f
		defer traceFile.Close()
		opts = append(opts, parfun.WithTraceExport(traceFile))
	}

	callable, err := parfun.Parallelize(sumFunc, sumCombiner, slicesplit.New[int]("values"), opts...)
	if err != nil {
		logger.Fatalw("failed to configure parallelize", "error", err)
	}

	backendOpts := []backend.Option(nil)
	if *concurrency > 0 {
		backendOpts = append(backendOpts, backend.WithConcurrency(*concurrency))
	}
	ambient.Configure(backend.NewLocal(backendOpts...))

	args := partools.NamedArguments{Values: map[string]any{"values": values}}

	start := time.Now()
	result, err := callable.Call(context.Background(), args)
	if err != nil {
		logger.Fatalw("invocation failed", "error", err)
	}
	fmt.Printf("sum=%v elapsed=%s\n", result, time.Since(start))
}

func busyWait(d time.Duration) {
	end := time.Now().Add(d)
	for time.Now().Before(end) {
	}
}
