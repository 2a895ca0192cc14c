package vecbench

import (
	"golang.org/x/time/rate"

	"github.com/hupe1980/vecbench/recall"
	"github.com/hupe1980/vecbench/workload"
)

// DefaultInsertBatchSize is the number of vectors per insert call.
const DefaultInsertBatchSize = 10_000

type options struct {
	logger            *Logger
	metricsCollector  MetricsCollector
	insertBatchSize   int
	insertRate        rate.Limit
	precision         int
	recallParallelism int
	name              string
	workloadOptions   []workload.Option
}

// Option configures a Runner.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:            NewLogger(nil),
		metricsCollector:  NoopMetricsCollector{},
		insertBatchSize:   DefaultInsertBatchSize,
		insertRate:        rate.Inf,
		precision:         recall.DefaultPrecision,
		recallParallelism: 1,
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the collector notified of every insert, search
// and query call.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithInsertBatchSize sets the number of vectors per insert call.
// Values <= 0 are ignored.
func WithInsertBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.insertBatchSize = n
		}
	}
}

// WithInsertRateLimit caps ingestion at vectorsPerSecond. Zero or negative
// removes the cap.
//
// Throttled waiting is not counted as insert time.
func WithInsertRateLimit(vectorsPerSecond float64) Option {
	return func(o *options) {
		if vectorsPerSecond <= 0 {
			o.insertRate = rate.Inf
			return
		}
		o.insertRate = rate.Limit(vectorsPerSecond)
	}
}

// WithPrecision sets the number of decimals for timings and recall.
func WithPrecision(p int) Option {
	return func(o *options) {
		if p >= 0 {
			o.precision = p
		}
	}
}

// WithRecallParallelism evaluates test batches with n concurrent searches.
// The Client must then be safe for concurrent Search calls. Default: 1.
func WithRecallParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.recallParallelism = n
		}
	}
}

// WithName sets the run name stored in the report.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithRoundingPolicy selects how worker counts are rounded.
// Default: workload.RoundConserve.
func WithRoundingPolicy(p workload.RoundingPolicy) Option {
	return func(o *options) {
		o.workloadOptions = append(o.workloadOptions, workload.WithRoundingPolicy(p))
	}
}

// WithCursorMode selects whether search workers share one cursor.
// Default: workload.CursorShared.
func WithCursorMode(m workload.CursorMode) Option {
	return func(o *options) {
		o.workloadOptions = append(o.workloadOptions, workload.WithCursorMode(m))
	}
}

// WithWrapMode selects how search windows wrap at the end of the pool.
// Default: workload.WrapCircular.
func WithWrapMode(m workload.WrapMode) Option {
	return func(o *options) {
		o.workloadOptions = append(o.workloadOptions, workload.WithWrapMode(m))
	}
}
