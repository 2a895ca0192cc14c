package workload

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWeight is returned when operation weights cannot be turned into
	// an allocation: a weight is negative or not finite, or all weights are zero.
	ErrInvalidWeight = errors.New("invalid operation weight")

	// ErrInvalidWorkers is returned when the total worker count is not positive.
	ErrInvalidWorkers = errors.New("worker count must be positive")

	// ErrNoOperations is returned when a plan is requested without operations.
	ErrNoOperations = errors.New("no operations declared")

	// ErrEmptyPlan is returned when rounding leaves every operation without
	// workers.
	ErrEmptyPlan = errors.New("allocation assigns no workers")

	// ErrInvalidBatchSize is returned for a negative window size.
	ErrInvalidBatchSize = errors.New("batch size must not be negative")
)

// WeightError reports the offending weight of an operation.
type WeightError struct {
	Index  int
	Weight float64
}

func (e *WeightError) Error() string {
	return fmt.Sprintf("invalid operation weight: operation %d has weight %v", e.Index, e.Weight)
}

func (e *WeightError) Unwrap() error { return ErrInvalidWeight }
