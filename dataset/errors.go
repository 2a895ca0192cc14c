package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned when a dataset has no train vectors.
	ErrEmpty = errors.New("dataset: no train vectors")
	// ErrNeighborCount is returned when the ground truth does not cover every test vector.
	ErrNeighborCount = errors.New("dataset: ground truth rows do not match test vectors")
	// ErrUnknownFormat is returned for a file extension without a codec.
	ErrUnknownFormat = errors.New("dataset: unknown file format")
	// ErrCorrupt is returned when a vecs file ends mid-record or has an
	// implausible record dimension.
	ErrCorrupt = errors.New("dataset: truncated or corrupt vecs file")
)

// DimensionMismatchError reports a vector whose dimension differs from the
// first vector of the same matrix.
type DimensionMismatchError struct {
	Row      int
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dataset: dimension mismatch at row %d: expected %d, got %d", e.Row, e.Expected, e.Actual)
}
