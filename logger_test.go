package vecbench

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecbench/report"
	"github.com/hupe1980/vecbench/workload"
)

func jsonLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestLogger_LogPrepare(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf)
	ctx := context.Background()

	l.LogPrepare(ctx, &report.PrepareTimings{Vectors: 10, InsertSeconds: 1.5}, nil)
	l.LogPrepare(ctx, nil, errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "prepare completed", lines[0]["msg"])
	assert.Equal(t, 1.5, lines[0]["insert_s"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestLogger_WithWorker(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf).WithDataset("sift").WithWorker(3, workload.KindQuery)

	l.Info("tick")
	l.LogWorkerInit(context.Background(), 3, workload.KindQuery, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "sift", lines[0]["dataset"])
	assert.Equal(t, float64(3), lines[0]["worker"])
	assert.Equal(t, "query", lines[0]["kind"])
	assert.Equal(t, "DEBUG", lines[1]["level"])
}

func TestLogger_LogPlan(t *testing.T) {
	var buf bytes.Buffer
	plan, err := workload.NewPlan([]workload.OperationSpec{
		{Kind: workload.KindQuery, Weight: 1},
	}, workload.ConcurrencyConfig{Workers: 2})
	require.NoError(t, err)

	jsonLogger(&buf).LogPlan(context.Background(), plan)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(2), lines[0]["workers"])
	assert.Equal(t, float64(2), lines[0]["query"])
}

func TestNoopLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NoopLogger().LogRecall(context.Background(), report.RecallResult{}, nil)
	})
}
