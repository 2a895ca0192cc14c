package recall

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// DefaultPrecision is the number of decimals the final recall is rounded to.
const DefaultPrecision = 4

var (
	// ErrEmptyAccumulator is returned when a mean is requested before any batch
	// was evaluated.
	ErrEmptyAccumulator = errors.New("recall: no batches evaluated")

	// ErrEmptyBatch is returned for a batch without queries.
	ErrEmptyBatch = errors.New("recall: empty batch")
)

// BatchSizeError reports a mismatch between predicted and ground-truth rows.
type BatchSizeError struct {
	Predicted int
	Truth     int
}

func (e *BatchSizeError) Error() string {
	return fmt.Sprintf("recall: %d result rows for %d ground-truth rows", e.Predicted, e.Truth)
}

// Recall returns |predicted ∩ truth| / |truth| for one query, where truth is
// cut to its first k ids when k > 0. Negative ids are padding and ignored on
// both sides; duplicates count once. An empty truth set yields 0.
func Recall(predicted, truth []int64, k int) float64 {
	if k > 0 && len(truth) > k {
		truth = truth[:k]
	}

	want := roaring64.New()
	for _, id := range truth {
		if id >= 0 {
			want.Add(uint64(id))
		}
	}
	if want.GetCardinality() == 0 {
		return 0
	}

	hits := roaring64.New()
	for _, id := range predicted {
		if id >= 0 && want.Contains(uint64(id)) {
			hits.Add(uint64(id))
		}
	}

	return float64(hits.GetCardinality()) / float64(want.GetCardinality())
}

// BatchRecall returns the mean recall over the queries of one batch.
func BatchRecall(predicted, truth [][]int64, k int) (float64, error) {
	if len(predicted) != len(truth) {
		return 0, &BatchSizeError{Predicted: len(predicted), Truth: len(truth)}
	}
	if len(truth) == 0 {
		return 0, ErrEmptyBatch
	}

	var sum float64
	for i := range truth {
		sum += Recall(predicted[i], truth[i], k)
	}
	return sum / float64(len(truth)), nil
}

// Round rounds v to the given number of decimals, halves away from zero.
func Round(v float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}

// Accumulator is the ordered sequence of batch recalls of one evaluation.
type Accumulator struct {
	values []float64
}

// Add appends one batch recall.
func (a *Accumulator) Add(v float64) {
	a.values = append(a.values, v)
}

// Len returns the number of batches recorded.
func (a *Accumulator) Len() int {
	return len(a.values)
}

// Values returns a copy of the recorded batch recalls.
func (a *Accumulator) Values() []float64 {
	return append([]float64(nil), a.values...)
}

// Merge appends the batches of other after those of a. Merging partial
// accumulators keeps every batch, so the mean equals a serial evaluation.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	a.values = append(a.values, other.values...)
}

// Mean returns the unweighted mean of the batch recalls rounded to precision
// decimals.
func (a *Accumulator) Mean(precision int) (float64, error) {
	if len(a.values) == 0 {
		return 0, ErrEmptyAccumulator
	}
	var sum float64
	for _, v := range a.values {
		sum += v
	}
	return Round(sum/float64(len(a.values)), precision), nil
}

// Reset drops all recorded batches.
func (a *Accumulator) Reset() {
	a.values = a.values[:0]
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithPrecision sets the number of decimals of the final recall.
func WithPrecision(p int) Option {
	return func(e *Evaluator) {
		e.precision = p
	}
}

// Evaluator accumulates batch recalls at a fixed k.
type Evaluator struct {
	k         int
	precision int
	acc       Accumulator
}

// NewEvaluator creates an Evaluator for recall-at-k.
func NewEvaluator(k int, optFns ...Option) *Evaluator {
	e := &Evaluator{k: k, precision: DefaultPrecision}
	for _, fn := range optFns {
		fn(e)
	}
	return e
}

// K returns the cut-off of the evaluator.
func (e *Evaluator) K() int {
	return e.k
}

// Observe computes the recall of one batch and records it.
func (e *Evaluator) Observe(predicted, truth [][]int64) (float64, error) {
	r, err := BatchRecall(predicted, truth, e.k)
	if err != nil {
		return 0, err
	}
	e.acc.Add(r)
	return r, nil
}

// Batches returns the number of batches observed so far.
func (e *Evaluator) Batches() int {
	return e.acc.Len()
}

// Result returns the final recall and resets the evaluator.
func (e *Evaluator) Result() (float64, error) {
	m, err := e.acc.Mean(e.precision)
	if err != nil {
		return 0, err
	}
	e.acc.Reset()
	return m, nil
}
