package slicesplit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bansalr/parfun/partition/slicesplit"
	"github.com/bansalr/parfun/partools"
)

func TestGeneratorCoversInput(t *testing.T) {
	values := make([]int, 97)
	for i := range values {
		values[i] = i
	}

	fn := slicesplit.New[int]("values")
	args := partools.NamedArguments{Values: map[string]any{"values": values, "factor": 2}}

	nonPartitioned, gen, err := fn(args)
	require.NoError(t, err)
	assert.NotContains(t, nonPartitioned.Values, "values")
	assert.Equal(t, 2, nonPartitioned.Values["factor"])

	require.NoError(t, gen.Start())

	var collected []int
	for {
		actual, payload, done, err := gen.Next(10)
		require.NoError(t, err)
		if done {
			break
		}
		require.LessOrEqual(t, actual, 10)
		require.GreaterOrEqual(t, actual, 1)
		part := payload.Values["values"].([]int)
		assert.Equal(t, actual, len(part))
		collected = append(collected, part...)
	}
	assert.Equal(t, values, collected)
}

func TestGeneratorRejectsWrongArgument(t *testing.T) {
	fn := slicesplit.New[int]("values")
	_, _, err := fn(partools.NamedArguments{Values: map[string]any{"values": "not a slice"}})
	assert.Error(t, err)
}

func TestGeneratorEmptyInput(t *testing.T) {
	fn := slicesplit.New[int]("values")
	_, gen, err := fn(partools.NamedArguments{Values: map[string]any{"values": []int{}}})
	require.NoError(t, err)
	require.NoError(t, gen.Start())

	_, _, done, err := gen.Next(10)
	require.NoError(t, err)
	assert.True(t, done)
}
