package index

import (
	"errors"
	"fmt"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/internal/resource"
)

var (
	// ErrInvalidDomain is returned when a domain is empty, degenerate or not finite.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInvalidCellSize is returned when a cell size is not positive.
	ErrInvalidCellSize = errors.New("cell size must be positive")

	// ErrInvalidLeafSize is returned when a leaf size is not positive.
	ErrInvalidLeafSize = errors.New("leaf size must be positive")

	// ErrInconsistent is returned by Check when an invariant does not hold.
	ErrInconsistent = errors.New("index is inconsistent")

	// ErrUnsortedView is returned when a presorted view is not sorted on its axis.
	ErrUnsortedView = errors.New("view is not sorted")

	// ErrViewLengthMismatch is returned when presorted views differ in length.
	ErrViewLengthMismatch = errors.New("views differ in length")

	// ErrMemoryLimitExceeded is returned when an allocation would exceed the
	// configured memory limit. The index is left unchanged.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// ErrOutOfDomain is returned when a record key lies outside the index domain.
type ErrOutOfDomain struct {
	Key    geom.Point
	Domain geom.BBox
}

// Error returns the error message for an out-of-domain key.
func (e *ErrOutOfDomain) Error() string {
	return fmt.Sprintf("key %v outside domain %v", e.Key, e.Domain)
}

// ValidateDomain returns ErrInvalidDomain unless d can serve as an index domain.
func ValidateDomain(d geom.BBox) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidDomain, d)
	}
	return nil
}

// ValidateLeafSize returns ErrInvalidLeafSize unless n is positive.
func ValidateLeafSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLeafSize, n)
	}
	return nil
}

// Inconsistent wraps ErrInconsistent with a description of the violation.
func Inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInconsistent, fmt.Sprintf(format, args...))
}
