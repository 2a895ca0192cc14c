package workload

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Kind identifies the request type a worker issues.
type Kind int

const (
	// KindSearch issues vector searches fed by a WindowSource.
	KindSearch Kind = iota
	// KindQuery issues scalar queries fed by a StaticSource.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindSearch:
		return "search"
	case KindQuery:
		return "query"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Params is one request's parameter set.
//
// Fields holds the fixed request fields (limit, expression, index params...).
// Data holds the query vectors of a search window; it is nil for queries.
type Params struct {
	Fields map[string]any
	Data   [][]float32
}

// Clone returns a deep copy of p. Nested maps and slices inside Fields are
// copied as well, so callers may mutate the result freely.
func (p Params) Clone() Params {
	out := Params{Fields: cloneFields(p.Fields)}
	if p.Data != nil {
		out.Data = make([][]float32, len(p.Data))
		for i, v := range p.Data {
			out.Data[i] = slices.Clone(v)
		}
	}
	return out
}

// OperationSpec declares one operation type of the mixed workload.
type OperationSpec struct {
	Kind Kind

	// Weight is the relative share of workers given to this operation.
	Weight float64

	// Params are the fixed request fields sent with every call.
	Params map[string]any

	// NQ is the number of query vectors per search window.
	NQ int

	// TopK is the number of neighbors requested by a search.
	TopK int

	// Vectors is the candidate pool search windows are drawn from.
	Vectors [][]float32
}

// ConcurrencyConfig holds the timing of a concurrent run. The executor owns
// every field except Workers, which drives the allocation.
type ConcurrencyConfig struct {
	// Workers is the total number of concurrent workers.
	Workers int

	// Duration is the total wall-clock time of the run.
	Duration time.Duration

	// Interval is the pause between two calls of one worker.
	Interval time.Duration

	// WarmUp is the initial part of Duration whose results are discarded.
	WarmUp time.Duration
}

// Validate checks the configuration.
func (c ConcurrencyConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Workers)
	}
	if c.Duration < 0 || c.Interval < 0 || c.WarmUp < 0 {
		return fmt.Errorf("negative duration in concurrency config: %+v", c)
	}
	if c.Duration > 0 && c.WarmUp >= c.Duration {
		return fmt.Errorf("warm-up %s must be shorter than duration %s", c.WarmUp, c.Duration)
	}
	return nil
}

func cloneFields(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case []int64:
		return slices.Clone(t)
	case []float32:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}
