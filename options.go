package parfun

import (
	"io"

	"go.uber.org/zap"

	"github.com/bansalr/parfun/estimator"
	"github.com/bansalr/parfun/partools"
)

// SizeOption is either a constant partition size or a function of the
// bound call arguments that computes one, per spec.md §4.1
// ("optional integer or callable").
type SizeOption struct {
	fixed int
	fn    func(partools.NamedArguments) int
	set   bool
}

// Size returns a SizeOption fixed at n.
func Size(n int) SizeOption {
	return SizeOption{fixed: n, set: true}
}

// SizeFunc returns a SizeOption computed from the bound call arguments
// at invocation time.
func SizeFunc(fn func(partools.NamedArguments) int) SizeOption {
	return SizeOption{fn: fn, set: true}
}

// IsSet reports whether the option was configured at all.
func (s SizeOption) IsSet() bool { return s.set }

// Resolve computes the size for a given invocation's bound arguments.
func (s SizeOption) Resolve(args partools.NamedArguments) int {
	if s.fn != nil {
		return s.fn(args)
	}
	return s.fixed
}

// Option configures a Controller built by Parallelize.
type Option func(*Controller) error

// WithInitialPartitionSize sets the size requested for the first
// partition only; later partitions use the estimator's recommendation.
// The estimator is not told this size: its cold-start sequence begins
// from its own starting size. Mutually exclusive with
// WithFixedPartitionSize.
func WithInitialPartitionSize(size SizeOption) Option {
	return func(c *Controller) error {
		if c.FixedSize.IsSet() {
			return &ConfigurationError{Msg: "initial_partition_size and fixed_partition_size cannot both be set"}
		}
		c.InitialSize = size
		return nil
	}
}

// WithFixedPartitionSize disables the estimator and uses size for every
// partition (except possibly a smaller final one). Mutually exclusive
// with WithInitialPartitionSize.
func WithFixedPartitionSize(size SizeOption) Option {
	return func(c *Controller) error {
		if c.InitialSize.IsSet() {
			return &ConfigurationError{Msg: "initial_partition_size and fixed_partition_size cannot both be set"}
		}
		c.FixedSize = size
		return nil
	}
}

// WithProfile enables printing a human-readable trace summary at the
// end of each invocation.
func WithProfile() Option {
	return func(c *Controller) error {
		c.Profile = true
		return nil
	}
}

// WithTraceExport configures a destination for the tabular CSV trace
// export, written once per invocation.
func WithTraceExport(w io.Writer) Option {
	return func(c *Controller) error {
		c.TraceExport = w
		return nil
	}
}

// WithEstimatorFactory overrides the default estimator (linear
// regression) with a pluggable alternative.
func WithEstimatorFactory(f estimator.Factory) Option {
	return func(c *Controller) error {
		c.EstimatorFactory = f
		return nil
	}
}

// WithSignature attaches a FunctionSignature so Callable.CallArgs can
// bind positional/named call arguments the way spec.md §4.5 describes,
// instead of requiring pre-bound NamedArguments.
func WithSignature(sig *partools.FunctionSignature) Option {
	return func(c *Controller) error {
		c.Signature = sig
		return nil
	}
}

// WithLogger overrides the Controller's logger; the default is the
// package-wide parfunlog logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Controller) error {
		c.Logger = logger
		return nil
	}
}
