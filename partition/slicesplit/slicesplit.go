// Package slicesplit provides a concrete PartitionFunction over a single
// []T argument. It is a reference partitioner exercising the
// partition.Generator protocol; spec.md puts concrete tabular
// partitioners out of the engine's core scope, so this stays
// intentionally small.
package slicesplit

import (
	"fmt"

	"github.com/bansalr/parfun/partition"
	"github.com/bansalr/parfun/partools"
)

// New returns a partition.Func that partitions the []T argument named
// paramName into contiguous slices, as requested by the controller, and
// passes every other argument through unpartitioned.
func New[T any](paramName string) partition.Func {
	return func(args partools.NamedArguments) (partools.NamedArguments, partition.Generator, error) {
		raw, ok := args.Values[paramName]
		if !ok {
			return partools.NamedArguments{}, nil, fmt.Errorf("slicesplit: no argument named %q", paramName)
		}
		values, ok := raw.([]T)
		if !ok {
			var zero T
			return partools.NamedArguments{}, nil, fmt.Errorf("slicesplit: argument %q is not a []%T", paramName, zero)
		}

		nonPartitioned := partools.NamedArguments{Values: make(map[string]any, len(args.Values))}
		for k, v := range args.Values {
			if k == paramName {
				continue
			}
			nonPartitioned.Values[k] = v
		}
		nonPartitioned.PositionalTail = args.PositionalTail
		nonPartitioned.NamedExtras = args.NamedExtras

		return nonPartitioned, &generator[T]{paramName: paramName, values: values}, nil
	}
}

// generator yields contiguous sub-slices of values, honoring whatever
// size the controller requests on each Next call.
type generator[T any] struct {
	paramName string
	values    []T
	pos       int
}

func (g *generator[T]) Start() error { return nil }

// Remaining reports how many elements of values have not yet been
// delivered, satisfying partition.Sized.
func (g *generator[T]) Remaining() int { return len(g.values) - g.pos }

func (g *generator[T]) Next(requestedSize int) (int, partition.Payload, bool, error) {
	if requestedSize < 1 {
		return 0, partition.Payload{}, false, fmt.Errorf("slicesplit: requested size must be positive, got %d", requestedSize)
	}
	if g.pos >= len(g.values) {
		return 0, partition.Payload{}, true, nil
	}

	end := g.pos + requestedSize
	if end > len(g.values) {
		end = len(g.values)
	}
	actual := end - g.pos

	payload := partition.Payload{Values: map[string]any{g.paramName: g.values[g.pos:end]}}
	g.pos = end

	return actual, payload, false, nil
}
