// Package rowsplit provides a concrete PartitionFunction over several
// equal-length "columns" that must be co-partitioned row-wise — the
// Go analogue of splitting a dataframe's rows across partitions while
// keeping every column's i-th element aligned. Like slicesplit, this is
// a minimal reference partitioner: spec.md excludes concrete tabular
// partitioners from the engine's core.
package rowsplit

import (
	"fmt"

	"github.com/bansalr/parfun/partition"
	"github.com/bansalr/parfun/partools"
)

// Column names one argument participating in the co-partition. Len
// reports the row count of the underlying value (e.g. len(column) for a
// concrete slice), and Slice returns the [start:end) sub-slice as an
// opaque value to be placed back under the same argument name.
type Column interface {
	Name() string
	Len() int
	Slice(start, end int) any
}

// sliceColumn adapts a Go slice to Column.
type sliceColumn[T any] struct {
	name   string
	values []T
}

// NewColumn returns a Column backed by a []T argument named name.
func NewColumn[T any](name string, values []T) Column {
	return &sliceColumn[T]{name: name, values: values}
}

func (c *sliceColumn[T]) Name() string { return c.name }
func (c *sliceColumn[T]) Len() int     { return len(c.values) }
func (c *sliceColumn[T]) Slice(start, end int) any {
	return c.values[start:end]
}

// New returns a partition.Func that row-partitions the given columns
// together. All columns must report the same Len(), or the returned
// Func fails with InvalidInput-shaped error when invoked. Empty input
// (Len() == 0) is valid: the generator immediately reports end-of-stream
// and no partitions are produced, matching spec.md scenario 3.
func New(columns ...Column) partition.Func {
	return func(args partools.NamedArguments) (partools.NamedArguments, partition.Generator, error) {
		if len(columns) == 0 {
			return partools.NamedArguments{}, nil, fmt.Errorf("rowsplit: no columns declared")
		}
		rows := columns[0].Len()
		for _, c := range columns[1:] {
			if c.Len() != rows {
				return partools.NamedArguments{}, nil, fmt.Errorf("rowsplit: %w: column %q has %d rows, expected %d", ErrMismatchedRows, c.Name(), c.Len(), rows)
			}
		}

		names := make(map[string]struct{}, len(columns))
		for _, c := range columns {
			names[c.Name()] = struct{}{}
		}
		nonPartitioned := partools.NamedArguments{Values: make(map[string]any, len(args.Values))}
		for k, v := range args.Values {
			if _, partitioned := names[k]; partitioned {
				continue
			}
			nonPartitioned.Values[k] = v
		}
		nonPartitioned.PositionalTail = args.PositionalTail
		nonPartitioned.NamedExtras = args.NamedExtras

		return nonPartitioned, &generator{columns: columns, rows: rows}, nil
	}
}

// ErrMismatchedRows is wrapped into the error returned when co-partitioned
// columns do not agree on row count (spec.md InvalidInput, scenario 4).
var ErrMismatchedRows = fmt.Errorf("rowsplit: mismatched row counts across co-partitioned columns")

type generator struct {
	columns []Column
	rows    int
	pos     int
}

func (g *generator) Start() error { return nil }

// Remaining reports how many rows have not yet been delivered,
// satisfying partition.Sized.
func (g *generator) Remaining() int { return g.rows - g.pos }

func (g *generator) Next(requestedSize int) (int, partition.Payload, bool, error) {
	if requestedSize < 1 {
		return 0, partition.Payload{}, false, fmt.Errorf("rowsplit: requested size must be positive, got %d", requestedSize)
	}
	if g.pos >= g.rows {
		return 0, partition.Payload{}, true, nil
	}

	end := g.pos + requestedSize
	if end > g.rows {
		end = g.rows
	}
	actual := end - g.pos

	values := make(map[string]any, len(g.columns))
	for _, c := range g.columns {
		values[c.Name()] = c.Slice(g.pos, end)
	}
	g.pos = end

	return actual, partition.Payload{Values: values}, false, nil
}
