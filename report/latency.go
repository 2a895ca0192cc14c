package report

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// LatencyStats summarizes a set of call durations in milliseconds.
type LatencyStats struct {
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
	AvgMs float64 `json:"avg_ms"`
	N     int     `json:"n"`
}

// Percentile returns the p-th percentile (0-100) of sorted using the
// nearest-rank-below rule.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*p/100)]
}

// LatencyStatsFromDurations computes P50/P95/P99 and the mean.
func LatencyStatsFromDurations(durations []time.Duration) LatencyStats {
	if len(durations) == 0 {
		return LatencyStats{}
	}

	ms := make([]float64, len(durations))
	var sum float64
	for i, d := range durations {
		ms[i] = float64(d.Nanoseconds()) / 1e6
		sum += ms[i]
	}
	slices.Sort(ms)

	return LatencyStats{
		P50Ms: Percentile(ms, 50),
		P95Ms: Percentile(ms, 95),
		P99Ms: Percentile(ms, 99),
		AvgMs: sum / float64(len(ms)),
		N:     len(ms),
	}
}

// OperationResult summarizes one kind of call over a timed run.
type OperationResult struct {
	Kind    string       `json:"kind"`
	Calls   int64        `json:"calls"`
	Errors  int64        `json:"errors"`
	Items   int64        `json:"items"`
	QPS     float64      `json:"qps"`
	Latency LatencyStats `json:"latency"`
}

// LatencyRecorder keeps every observed duration per operation kind.
// It satisfies the harness MetricsCollector interface and is safe for
// concurrent use.
type LatencyRecorder struct {
	mu    sync.Mutex
	kinds map[string]*series
}

type series struct {
	durations []time.Duration
	errors    int64
	items     int64
}

// NewLatencyRecorder returns an empty recorder.
func NewLatencyRecorder() *LatencyRecorder {
	return &LatencyRecorder{kinds: make(map[string]*series)}
}

// Observe records one call of kind covering items units of work.
func (r *LatencyRecorder) Observe(kind string, items int, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.kinds[kind]
	if !ok {
		s = &series{}
		r.kinds[kind] = s
	}
	s.durations = append(s.durations, d)
	s.items += int64(items)
	if err != nil {
		s.errors++
	}
}

// RecordInsert records an insert of count vectors.
func (r *LatencyRecorder) RecordInsert(count int, d time.Duration, err error) {
	r.Observe("insert", count, d, err)
}

// RecordSearch records a search of nq queries.
func (r *LatencyRecorder) RecordSearch(nq, _ int, d time.Duration, err error) {
	r.Observe("search", nq, d, err)
}

// RecordQuery records a scalar query.
func (r *LatencyRecorder) RecordQuery(d time.Duration, err error) {
	r.Observe("query", 1, d, err)
}

// Results returns one summary per kind, sorted by kind. QPS is calls per
// second of elapsed; it is zero when elapsed is not positive.
func (r *LatencyRecorder) Results(elapsed time.Duration) []OperationResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]OperationResult, 0, len(r.kinds))
	for kind, s := range r.kinds {
		res := OperationResult{
			Kind:    kind,
			Calls:   int64(len(s.durations)),
			Errors:  s.errors,
			Items:   s.items,
			Latency: LatencyStatsFromDurations(s.durations),
		}
		if elapsed > 0 {
			res.QPS = float64(res.Calls) / elapsed.Seconds()
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Reset drops all samples.
func (r *LatencyRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = make(map[string]*series)
}
