package dataset

import (
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/vecbench/distance"
)

// TrainBatch is a contiguous slice of train vectors and their ids.
type TrainBatch struct {
	IDs     []int64
	Vectors [][]float32
}

// TestBatch is a contiguous slice of test vectors and their top-k ground truth.
type TestBatch struct {
	Vectors   [][]float32
	Neighbors [][]int64
}

// Provider yields the batches consumed by the prepare and recall phases.
type Provider interface {
	TrainBatches(batchSize int) iter.Seq[TrainBatch]
	TestBatches(nq, topK int) iter.Seq[TestBatch]
}

// Dataset is an in-memory benchmark dataset.
type Dataset struct {
	Name      string
	Metric    distance.Metric
	IDs       []int64
	Train     [][]float32
	Test      [][]float32
	Neighbors [][]int64

	normalizeOnce sync.Once
	normalized    atomic.Bool
}

// New validates the matrices and returns a dataset with ids 0..len(train)-1.
// Neighbors may be nil for datasets without ground truth.
func New(name string, metric distance.Metric, train, test [][]float32, neighbors [][]int64) (*Dataset, error) {
	if len(train) == 0 {
		return nil, ErrEmpty
	}
	dim := len(train[0])
	if err := checkDim(train, dim); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if err := checkDim(test, dim); err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}
	if neighbors != nil && len(neighbors) != len(test) {
		return nil, fmt.Errorf("%w: %d rows for %d test vectors", ErrNeighborCount, len(neighbors), len(test))
	}

	ids := make([]int64, len(train))
	for i := range ids {
		ids[i] = int64(i)
	}

	return &Dataset{
		Name:      name,
		Metric:    metric,
		IDs:       ids,
		Train:     train,
		Test:      test,
		Neighbors: neighbors,
	}, nil
}

func checkDim(vectors [][]float32, dim int) error {
	for i, v := range vectors {
		if len(v) != dim {
			return &DimensionMismatchError{Row: i, Expected: dim, Actual: len(v)}
		}
	}
	return nil
}

// Dim returns the vector dimension.
func (d *Dataset) Dim() int {
	if len(d.Train) == 0 {
		return 0
	}
	return len(d.Train[0])
}

// Normalize applies the metric's preprocessing to train and test vectors.
// Only the first call has an effect; it reports whether vectors were changed.
func (d *Dataset) Normalize() bool {
	changed := false
	d.normalizeOnce.Do(func() {
		if !d.Metric.RequiresNormalization() {
			return
		}
		d.Train = distance.Normalize(d.Metric, d.Train)
		d.Test = distance.Normalize(d.Metric, d.Test)
		d.normalized.Store(true)
		changed = true
	})
	return changed
}

// Normalized reports whether Normalize transformed the vectors.
func (d *Dataset) Normalized() bool {
	return d.normalized.Load()
}

// TrainBatches yields train vectors in order, batchSize at a time. The last
// batch may be shorter. A non-positive batchSize yields everything at once.
func (d *Dataset) TrainBatches(batchSize int) iter.Seq[TrainBatch] {
	return func(yield func(TrainBatch) bool) {
		n := len(d.Train)
		if batchSize <= 0 {
			batchSize = max(n, 1)
		}
		for start := 0; start < n; start += batchSize {
			end := min(start+batchSize, n)
			if !yield(TrainBatch{IDs: d.IDs[start:end], Vectors: d.Train[start:end]}) {
				return
			}
		}
	}
}

// TestBatches yields test vectors nq at a time together with their ground
// truth cut to topK. The last batch may be shorter. Nothing is yielded for
// nq <= 0 or a dataset without ground truth.
func (d *Dataset) TestBatches(nq, topK int) iter.Seq[TestBatch] {
	return func(yield func(TestBatch) bool) {
		if nq <= 0 || d.Neighbors == nil {
			return
		}
		n := len(d.Test)
		for start := 0; start < n; start += nq {
			end := min(start+nq, n)
			truth := make([][]int64, end-start)
			for i, row := range d.Neighbors[start:end] {
				if topK > 0 && len(row) > topK {
					row = row[:topK]
				}
				truth[i] = row
			}
			if !yield(TestBatch{Vectors: d.Test[start:end], Neighbors: truth}) {
				return
			}
		}
	}
}

var _ Provider = (*Dataset)(nil)
