package parfun_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"iter"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bansalr/parfun"
	"github.com/bansalr/parfun/ambient"
	"github.com/bansalr/parfun/backend"
	"github.com/bansalr/parfun/partition/rowsplit"
	"github.com/bansalr/parfun/partition/slicesplit"
	"github.com/bansalr/parfun/partools"
)

func sumFunc(ctx context.Context, args partools.NamedArguments) (any, error) {
	values := args.Values["values"].([]int)
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum, nil
}

func sumCombiner(results iter.Seq[any]) (any, error) {
	total := 0
	for v := range results {
		total += v.(int)
	}
	return total, nil
}

func sequenceUpTo(n int) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = i + 1
	}
	return values
}

// scenario 1: row-partitioned sum with fixed size 10 over 1..100 expects 5050.
func TestResultEquivalenceAcrossBackends(t *testing.T) {
	callable, err := parfun.Parallelize(sumFunc, sumCombiner, slicesplit.New[int]("values"),
		parfun.WithFixedPartitionSize(parfun.Size(10)))
	require.NoError(t, err)

	args := partools.NamedArguments{Values: map[string]any{"values": sequenceUpTo(100)}}

	local := backend.NewLocal()
	ctxLocal := ambient.WithBackend(context.Background(), local)
	gotLocal, err := callable.Call(ctxLocal, args)
	require.NoError(t, err)
	assert.Equal(t, 5050, gotLocal)

	sequential := backend.NewSequential()
	ctxSeq := ambient.WithBackend(context.Background(), sequential)
	gotSeq, err := callable.Call(ctxSeq, args)
	require.NoError(t, err)
	assert.Equal(t, gotLocal, gotSeq)
}

// sequential fallback equivalence: no ambient backend configured at all.
func TestSequentialFallbackWhenNoBackendConfigured(t *testing.T) {
	defer ambient.Configure(nil)
	ambient.Configure(nil)

	callable, err := parfun.Parallelize(sumFunc, sumCombiner, slicesplit.New[int]("values"))
	require.NoError(t, err)

	args := partools.NamedArguments{Values: map[string]any{"values": sequenceUpTo(100)}}
	got, err := callable.Call(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, 5050, got)
}

// scenario 2: co-partitioned row count with columns of 7 rows, size 3.
func TestRowCountWithCoPartitionedColumns(t *testing.T) {
	ids := sequenceUpTo(7)
	names := make([]string, 7)
	for i := range names {
		names[i] = "x"
	}

	countFunc := func(ctx context.Context, args partools.NamedArguments) (any, error) {
		return len(args.Values["ids"].([]int)), nil
	}
	countCombiner := func(results iter.Seq[any]) (any, error) {
		total := 0
		for v := range results {
			total += v.(int)
		}
		return total, nil
	}

	splitter := rowsplit.New(rowsplit.NewColumn("ids", ids), rowsplit.NewColumn("names", names))
	callable, err := parfun.Parallelize(countFunc, countCombiner, splitter,
		parfun.WithFixedPartitionSize(parfun.Size(3)))
	require.NoError(t, err)

	local := backend.NewLocal()
	ctx := ambient.WithBackend(context.Background(), local)
	got, err := callable.Call(ctx, partools.NamedArguments{Values: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

// scenario 3: empty input.
func TestEmptyInputProducesNoPartitions(t *testing.T) {
	splitter := rowsplit.New(rowsplit.NewColumn[int]("ids", nil))
	callable, err := parfun.Parallelize(sumFunc, sumCombiner, splitter)
	require.NoError(t, err)

	local := backend.NewLocal()
	ctx := ambient.WithBackend(context.Background(), local)
	got, err := callable.Call(ctx, partools.NamedArguments{Values: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

// scenario 4: mismatched co-partition sizes surface as InvalidInput.
func TestMismatchedCoPartitionIsInvalidInput(t *testing.T) {
	splitter := rowsplit.New(
		rowsplit.NewColumn("a", []int{1, 2, 3}),
		rowsplit.NewColumn("b", []int{1, 2}),
	)
	callable, err := parfun.Parallelize(sumFunc, sumCombiner, splitter)
	require.NoError(t, err)

	local := backend.NewLocal()
	ctx := ambient.WithBackend(context.Background(), local)
	_, err = callable.Call(ctx, partools.NamedArguments{Values: map[string]any{}})
	require.Error(t, err)

	var invalidInput *parfun.InvalidInput
	assert.ErrorAs(t, err, &invalidInput)
	assert.ErrorIs(t, err, rowsplit.ErrMismatchedRows)
}

// scenario 5: both size options set is a construction-time ConfigurationError.
func TestBothSizeOptionsSetIsConfigurationError(t *testing.T) {
	_, err := parfun.Parallelize(sumFunc, sumCombiner, slicesplit.New[int]("values"),
		parfun.WithInitialPartitionSize(parfun.Size(4)),
		parfun.WithFixedPartitionSize(parfun.Size(8)))
	require.Error(t, err)
	var cfgErr *parfun.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

// scenario 7: a worker exception surfaces as WorkerFailure, preserving the
// original error via Unwrap.
func TestWorkerFailureWrapsOriginalError(t *testing.T) {
	failing := errors.New("boom")
	failFunc := func(ctx context.Context, args partools.NamedArguments) (any, error) {
		return nil, failing
	}
	callable, err := parfun.Parallelize(failFunc, sumCombiner, slicesplit.New[int]("values"))
	require.NoError(t, err)

	local := backend.NewLocal()
	ctx := ambient.WithBackend(context.Background(), local)
	args := partools.NamedArguments{Values: map[string]any{"values": sequenceUpTo(20)}}
	_, err = callable.Call(ctx, args)
	require.Error(t, err)

	var workerErr *parfun.WorkerFailure
	assert.ErrorAs(t, err, &workerErr)
	assert.ErrorIs(t, err, failing)
}

// fixed-size obedience: every requested partition is exactly the
// configured size, except possibly a smaller final one.
func TestFixedSizeObedience(t *testing.T) {
	var traceBuf bytes.Buffer
	callable, err := parfun.Parallelize(sumFunc, sumCombiner, slicesplit.New[int]("values"),
		parfun.WithFixedPartitionSize(parfun.Size(12)),
		parfun.WithTraceExport(&traceBuf))
	require.NoError(t, err)

	local := backend.NewLocal()
	ctx := ambient.WithBackend(context.Background(), local)
	args := partools.NamedArguments{Values: map[string]any{"values": sequenceUpTo(100)}}
	_, err = callable.Call(ctx, args)
	require.NoError(t, err)

	reader := csv.NewReader(&traceBuf)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(rows), 2) // invocation_id comment + header + data

	dataRows := rows[2:]
	for i, row := range dataRows {
		size, err := strconv.Atoi(row[1])
		require.NoError(t, err)
		if i < len(dataRows)-1 {
			assert.Equal(t, 12, size)
		} else {
			assert.LessOrEqual(t, size, 12)
		}
	}
}

// resource release: the session is closed exactly once on the success path.
func TestSessionIsClosedExactlyOnce(t *testing.T) {
	local := backend.NewLocal()
	counting := &closeCountingBackend{Backend: local}

	callable, err := parfun.Parallelize(sumFunc, sumCombiner, slicesplit.New[int]("values"))
	require.NoError(t, err)

	ctx := ambient.WithBackend(context.Background(), counting)
	args := partools.NamedArguments{Values: map[string]any{"values": sequenceUpTo(50)}}
	_, err = callable.Call(ctx, args)
	require.NoError(t, err)

	assert.Equal(t, int32(1), counting.closes.Load())
}

type closeCountingBackend struct {
	backend.Backend
	closes atomic.Int32
}

func (b *closeCountingBackend) OpenSession(ctx context.Context) (backend.Session, error) {
	session, err := b.Backend.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	return &closeCountingSession{Session: session, closes: &b.closes}, nil
}

type closeCountingSession struct {
	backend.Session
	closes *atomic.Int32
}

func (s *closeCountingSession) Close() error {
	s.closes.Add(1)
	return s.Session.Close()
}
