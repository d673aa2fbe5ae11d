// Package partition defines the bidirectional partition-generator
// protocol and a PartitionFunction factory that splits a bound call's
// arguments into a non-partitioned subset and a lazy, resumable stream
// of partitions.
//
// Go has no native bidirectional coroutines, so the protocol is an
// explicit interface: Start primes the generator, and Next both sends
// the controller's requested size and receives the next partition.
package partition

import (
	"errors"
	"fmt"

	"github.com/bansalr/parfun/partools"
)

// Payload is the NamedArguments holding one partition's slice of the
// partitioned arguments.
type Payload = partools.NamedArguments

// Generator is a lazy, bidirectional, finite sequence of partitions.
//
// Protocol: the controller calls Start exactly once before any Next
// call. It then calls Next repeatedly, each time with a requested size;
// Next returns the actual size delivered (1 <= actual <= requested),
// the partition payload, and done=true once the underlying input is
// exhausted (in which case payload is the zero value and must not be
// used). Any partial final partition is returned with its real actual
// size on the call before done is reported; done is never reported
// together with a non-empty payload.
type Generator interface {
	// Start performs the initial handshake. It must be called exactly
	// once, before the first Next call.
	Start() error

	// Next requests a partition of up to requestedSize base units. It
	// returns the number actually delivered, the partition payload, and
	// whether the generator has reached end-of-stream.
	Next(requestedSize int) (actual int, payload Payload, done bool, err error)
}

// Sized is optionally implemented by a Generator that can report how
// many base units of input remain before end-of-stream. The controller
// uses it to clamp the estimator's recommended size to the input that
// actually remains; a Generator that cannot report this (e.g. one
// backed by an open-ended stream) simply does not implement it.
type Sized interface {
	Remaining() int
}

// Func is a PartitionFunction: given the full bound arguments, it
// decides which are partitioned and returns the subset that is not,
// alongside a Generator over the rest.
type Func func(args partools.NamedArguments) (nonPartitioned partools.NamedArguments, gen Generator, err error)

// ErrInvalidPartition is wrapped into errors describing a generator
// that violated the size-bound or termination invariants.
var ErrInvalidPartition = errors.New("partition: invalid partition")

// SizeBoundError reports a generator yielding actual > requested or
// actual <= 0.
type SizeBoundError struct {
	Requested int
	Actual    int
}

func (e *SizeBoundError) Error() string {
	return fmt.Sprintf("partition: actual size %d outside bounds [1, %d]: %v", e.Actual, e.Requested, ErrInvalidPartition)
}

func (e *SizeBoundError) Unwrap() error { return ErrInvalidPartition }

// CheckBounds validates the size-bound invariant from spec ("1 <=
// actual_size <= requested_size") and returns a *SizeBoundError when it
// is violated.
func CheckBounds(requested, actual int) error {
	if actual < 1 || actual > requested {
		return &SizeBoundError{Requested: requested, Actual: actual}
	}
	return nil
}
