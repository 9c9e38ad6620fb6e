package orq

import (
	"errors"
	"fmt"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
)

var (
	// ErrImmutable is returned when inserting into or clearing an index that
	// is built once, such as the kd-tree.
	ErrImmutable = errors.New("index is immutable")

	// ErrUnsupported is returned when the index kind does not implement an
	// operation, such as domain-tracking queries on a cell array.
	ErrUnsupported = errors.New("operation not supported by index kind")

	// ErrInvalidArgument is returned for invalid construction parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMemoryLimitExceeded is returned when an operation would exceed the
	// configured memory limit. The index is left unchanged.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

	// ErrCorrupted is returned by Check when a structural invariant is
	// violated, typically because a record key changed while indexed.
	ErrCorrupted = errors.New("index invariants violated")
)

// ErrOutOfDomain indicates an insert whose key lies outside the index domain.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrOutOfDomain struct {
	Key    geom.Point
	Domain geom.BBox
	cause  error
}

func (e *ErrOutOfDomain) Error() string {
	return fmt.Sprintf("key %v outside domain %v", e.Key, e.Domain)
}

func (e *ErrOutOfDomain) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ood *index.ErrOutOfDomain
	if errors.As(err, &ood) {
		return &ErrOutOfDomain{Key: ood.Key, Domain: ood.Domain, cause: err}
	}

	if errors.Is(err, index.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}
	if errors.Is(err, index.ErrInconsistent) {
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	}

	// Argument normalization.
	for _, target := range []error{
		index.ErrInvalidDomain,
		index.ErrInvalidCellSize,
		index.ErrInvalidLeafSize,
		index.ErrUnsortedView,
		index.ErrViewLengthMismatch,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
	}

	return err
}
