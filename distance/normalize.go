package distance

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDegenerateVector is returned by NormalizeStrict for a zero-norm row.
var ErrDegenerateVector = errors.New("degenerate vector")

// DegenerateVectorError reports the first zero-norm row met by NormalizeStrict.
type DegenerateVectorError struct {
	Row    int
	Metric Metric
}

func (e *DegenerateVectorError) Error() string {
	return fmt.Sprintf("degenerate vector: row %d has zero norm under %s", e.Row, e.Metric)
}

func (e *DegenerateVectorError) Unwrap() error { return ErrDegenerateVector }

// Normalize returns a copy of vectors preprocessed for m. Rows are divided by
// their Euclidean norm when m requires unit vectors; zero-norm rows are copied
// unchanged. For other metrics the copy is returned as is.
//
// The input is never modified.
func Normalize(m Metric, vectors [][]float32) [][]float32 {
	out := cloneMatrix(vectors)
	if !m.RequiresNormalization() {
		return out
	}
	for _, row := range out {
		_ = NormalizeL2InPlace(row)
	}
	return out
}

// NormalizeStrict is like Normalize but fails with a *DegenerateVectorError
// when a row has zero norm under a normalizing metric.
func NormalizeStrict(m Metric, vectors [][]float32) ([][]float32, error) {
	out := cloneMatrix(vectors)
	if !m.RequiresNormalization() {
		return out, nil
	}
	for i, row := range out {
		if !NormalizeL2InPlace(row) {
			return nil, &DegenerateVectorError{Row: i, Metric: m}
		}
	}
	return out, nil
}

func cloneMatrix(vectors [][]float32) [][]float32 {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		out[i] = slices.Clone(v)
	}
	return out
}
