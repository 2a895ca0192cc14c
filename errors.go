package vecbench

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPrepared is returned when a phase needs a connected collection
	// and Prepare has not run.
	ErrNotPrepared = errors.New("vecbench: collection not prepared")

	// ErrNoDataset is returned when a phase needs a dataset and none was loaded.
	ErrNoDataset = errors.New("vecbench: no dataset loaded")

	// ErrInvalidTopK is returned when a recall pass has a non-positive top_k or nq.
	ErrInvalidTopK = errors.New("vecbench: nq and top_k must be positive")
)

// DimensionMismatchError indicates that the collection and the dataset
// disagree on the vector dimension.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vecbench: dimension mismatch: collection has %d, dataset has %d", e.Expected, e.Actual)
}

// PhaseError records which step of the prepare phase failed.
//
// The original underlying error can be accessed via errors.Unwrap.
type PhaseError struct {
	Phase string
	cause error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("vecbench: %s: %v", e.Phase, e.cause)
}

func (e *PhaseError) Unwrap() error { return e.cause }

func phaseError(phase string, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Phase: phase, cause: err}
}
