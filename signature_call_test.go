package parfun_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bansalr/parfun"
	"github.com/bansalr/parfun/ambient"
	"github.com/bansalr/parfun/backend"
	"github.com/bansalr/parfun/partition/slicesplit"
	"github.com/bansalr/parfun/partools"
)

// CallArgs binds positional/named call arguments against the Callable's
// configured signature before invoking the wrapped function, exercising
// spec.md §4.1's "bind arguments via the signature" step end to end.
func TestCallArgsBindsAgainstConfiguredSignature(t *testing.T) {
	sig, err := partools.NewSignature(
		partools.Parameter{Name: "values", Kind: partools.KindPositionalOrNamed},
	)
	require.NoError(t, err)

	callable, err := parfun.Parallelize(sumFunc, sumCombiner, slicesplit.New[int]("values"),
		parfun.WithFixedPartitionSize(parfun.Size(10)),
		parfun.WithSignature(sig))
	require.NoError(t, err)

	local := backend.NewLocal()
	ctx := ambient.WithBackend(context.Background(), local)

	got, err := callable.CallArgs(ctx, []any{sequenceUpTo(100)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5050, got)
}

func TestCallArgsWithoutSignatureIsConfigurationError(t *testing.T) {
	callable, err := parfun.Parallelize(sumFunc, sumCombiner, slicesplit.New[int]("values"))
	require.NoError(t, err)

	_, err = callable.CallArgs(context.Background(), []any{sequenceUpTo(10)}, nil)
	require.Error(t, err)

	var cfgErr *parfun.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
