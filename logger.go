package vecbench

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/vecbench/report"
	"github.com/hupe1980/vecbench/workload"
)

// Logger wraps slog.Logger with vecbench-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDataset adds a dataset field to the logger.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", name),
	}
}

// WithWorker adds worker id and kind fields to the logger.
func (l *Logger) WithWorker(id int, kind workload.Kind) *Logger {
	return &Logger{
		Logger: l.Logger.With("worker", id, "kind", kind.String()),
	}
}

// LogPrepare logs the end of the prepare phase.
func (l *Logger) LogPrepare(ctx context.Context, t *report.PrepareTimings, err error) {
	if err != nil {
		l.ErrorContext(ctx, "prepare failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "prepare completed",
		"vectors", t.Vectors,
		"insert_s", t.InsertSeconds,
		"index_s", t.BuildIndexSeconds,
		"load_s", t.LoadSeconds,
	)
}

// LogRecall logs one serial recall pass.
func (l *Logger) LogRecall(ctx context.Context, res report.RecallResult, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search recall failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "search recall",
		"recall", res.Recall,
		"nq", res.NQ,
		"top_k", res.TopK,
		"batches", res.Batches,
		"params", res.Params,
	)
}

// LogPlan logs the worker allocation of a concurrent run.
func (l *Logger) LogPlan(ctx context.Context, plan *workload.Plan) {
	l.InfoContext(ctx, "concurrent plan ready",
		"workers", len(plan.Workers),
		"search", plan.Count(workload.KindSearch),
		"query", plan.Count(workload.KindQuery),
		"duration", plan.Config.Duration,
		"interval", plan.Config.Interval,
		"warm_up", plan.Config.WarmUp,
	)
}

// LogWorkerInit logs the setup of one pool worker.
func (l *Logger) LogWorkerInit(ctx context.Context, id int, kind workload.Kind, err error) {
	if err != nil {
		l.ErrorContext(ctx, "worker init failed",
			"worker", id,
			"kind", kind.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "worker ready",
		"worker", id,
		"kind", kind.String(),
	)
}
