package vecbench_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecbench"
	"github.com/hupe1980/vecbench/baseline"
	"github.com/hupe1980/vecbench/dataset"
	"github.com/hupe1980/vecbench/distance"
	"github.com/hupe1980/vecbench/report"
	"github.com/hupe1980/vecbench/workload"
)

func testDataset(t *testing.T, metric distance.Metric) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Generate(context.Background(), dataset.GenerateConfig{
		Name:   "tiny",
		Metric: metric,
		Dim:    8,
		Train:  100,
		Test:   10,
		K:      10,
		Seed:   42,
	})
	require.NoError(t, err)
	return ds
}

func prepareConfig() vecbench.PrepareConfig {
	return vecbench.PrepareConfig{
		Prepare:    true,
		Collection: vecbench.CollectionSpec{Name: "bench"},
		Index:      vecbench.IndexParams{Field: "emb", Type: "FLAT"},
	}
}

func preparedRunner(t *testing.T, b *baseline.Backend, metric distance.Metric, opts ...vecbench.Option) *vecbench.Runner {
	t.Helper()
	opts = append([]vecbench.Option{vecbench.WithLogger(vecbench.NoopLogger())}, opts...)
	r := vecbench.NewRunner(b.Connect, opts...)
	r.LoadDataset(testDataset(t, metric))

	_, err := r.Prepare(context.Background(), prepareConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// lossyClient drops the second half of every search result.
type lossyClient struct {
	vecbench.Client
}

func (c lossyClient) Search(ctx context.Context, params workload.Params) ([][]int64, error) {
	res, err := c.Client.Search(ctx, params)
	for i, row := range res {
		for j := len(row) / 2; j < len(row); j++ {
			row[j] = -1
		}
		res[i] = row
	}
	return res, err
}

// leakyClient fails to close.
type leakyClient struct {
	vecbench.Client
}

func (leakyClient) Close() error { return errors.New("connection reset") }

func TestRunner_Prepare(t *testing.T) {
	b := baseline.New()
	metrics := &vecbench.BasicMetricsCollector{}
	r := vecbench.NewRunner(b.Connect,
		vecbench.WithLogger(vecbench.NoopLogger()),
		vecbench.WithMetricsCollector(metrics),
		vecbench.WithInsertBatchSize(30),
	)
	defer r.Close()
	r.LoadDataset(testDataset(t, distance.MetricL2))

	timings, err := r.Prepare(context.Background(), prepareConfig())
	require.NoError(t, err)
	require.NotNil(t, timings)

	assert.Equal(t, 100, timings.Vectors)
	assert.GreaterOrEqual(t, timings.InsertSeconds, 0.0)
	assert.Equal(t, 100, b.Len("bench"))

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.InsertCount)
	assert.Equal(t, int64(100), stats.InsertVectors)
	assert.Zero(t, stats.InsertErrors)

	assert.Equal(t, timings, r.Report(0).Prepare)
}

func TestRunner_PrepareExisting(t *testing.T) {
	b := baseline.New()
	preparedRunner(t, b, distance.MetricL2)

	r := vecbench.NewRunner(b.Connect, vecbench.WithLogger(vecbench.NoopLogger()))
	defer r.Close()

	cfg := prepareConfig()
	cfg.Prepare = false
	timings, err := r.Prepare(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, timings)
	assert.Equal(t, 100, b.Len("bench"))

	cfg.Collection.Name = "missing"
	_, err = vecbench.NewRunner(b.Connect).Prepare(context.Background(), cfg)
	assert.ErrorIs(t, err, baseline.ErrCollectionNotFound)
}

func TestRunner_PrepareErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("NoDataset", func(t *testing.T) {
		r := vecbench.NewRunner(baseline.New().Connect, vecbench.WithLogger(vecbench.NoopLogger()))
		_, err := r.Prepare(ctx, prepareConfig())
		assert.ErrorIs(t, err, vecbench.ErrNoDataset)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		r := vecbench.NewRunner(baseline.New().Connect, vecbench.WithLogger(vecbench.NoopLogger()))
		r.LoadDataset(testDataset(t, distance.MetricL2))

		cfg := prepareConfig()
		cfg.Collection.Dim = 16
		_, err := r.Prepare(ctx, cfg)

		var dimErr *vecbench.DimensionMismatchError
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 16, dimErr.Expected)
		assert.Equal(t, 8, dimErr.Actual)
	})

	t.Run("InsertFailure", func(t *testing.T) {
		b := baseline.New()
		boom := errors.New("disk full")
		b.FailOn("insert", boom)

		r := vecbench.NewRunner(b.Connect, vecbench.WithLogger(vecbench.NoopLogger()))
		r.LoadDataset(testDataset(t, distance.MetricL2))

		_, err := r.Prepare(ctx, prepareConfig())
		require.ErrorIs(t, err, boom)

		var phaseErr *vecbench.PhaseError
		require.ErrorAs(t, err, &phaseErr)
		assert.Equal(t, "insert", phaseErr.Phase)
		assert.Nil(t, r.Report(0).Prepare)
	})

	t.Run("ConnectFailure", func(t *testing.T) {
		boom := errors.New("refused")
		r := vecbench.NewRunner(func(context.Context) (vecbench.Client, error) { return nil, boom })

		_, err := r.Prepare(ctx, prepareConfig())
		var phaseErr *vecbench.PhaseError
		require.ErrorAs(t, err, &phaseErr)
		assert.Equal(t, "connect", phaseErr.Phase)
	})
}

func TestRunner_SerialRecall(t *testing.T) {
	for _, metric := range []distance.Metric{distance.MetricL2, distance.MetricCosine} {
		t.Run(metric.String(), func(t *testing.T) {
			r := preparedRunner(t, baseline.New(), metric)

			results, err := r.SerialRecall(context.Background(), []vecbench.RecallParams{
				{NQ: 3, TopK: 5},
				{NQ: 10, TopK: 10, Params: map[string]any{"ef": 64}},
			})
			require.NoError(t, err)
			require.Len(t, results, 2)

			assert.Equal(t, 1.0, results[0].Recall)
			assert.Equal(t, 4, results[0].Batches)
			assert.Equal(t, 4, results[0].Latency.N)

			assert.Equal(t, 1.0, results[1].Recall)
			assert.Equal(t, 1, results[1].Batches)
			assert.Equal(t, 64, results[1].Params["ef"])

			assert.Len(t, r.Report(0).Recall, 2)
		})
	}
}

func TestRunner_SerialRecallParallel(t *testing.T) {
	r := preparedRunner(t, baseline.New(), distance.MetricL2, vecbench.WithRecallParallelism(4))

	results, err := r.SerialRecall(context.Background(), []vecbench.RecallParams{{NQ: 2, TopK: 10}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].Recall)
	assert.Equal(t, 5, results[0].Batches)
}

func TestRunner_SerialRecallPartial(t *testing.T) {
	b := baseline.New()
	connect := func(ctx context.Context) (vecbench.Client, error) {
		c, err := b.Connect(ctx)
		if err != nil {
			return nil, err
		}
		return lossyClient{Client: c}, nil
	}

	r := vecbench.NewRunner(connect, vecbench.WithLogger(vecbench.NoopLogger()))
	defer r.Close()
	r.LoadDataset(testDataset(t, distance.MetricL2))
	_, err := r.Prepare(context.Background(), prepareConfig())
	require.NoError(t, err)

	results, err := r.SerialRecall(context.Background(), []vecbench.RecallParams{{NQ: 5, TopK: 10}})
	require.NoError(t, err)
	assert.Equal(t, 0.5, results[0].Recall)
}

func TestRunner_SerialRecallErrors(t *testing.T) {
	ctx := context.Background()

	r := vecbench.NewRunner(baseline.New().Connect, vecbench.WithLogger(vecbench.NoopLogger()))
	_, err := r.SerialRecall(ctx, []vecbench.RecallParams{{NQ: 1, TopK: 1}})
	assert.ErrorIs(t, err, vecbench.ErrNotPrepared)

	b := baseline.New()
	r = preparedRunner(t, b, distance.MetricL2)

	_, err = r.SerialRecall(ctx, []vecbench.RecallParams{{NQ: 1, TopK: 0}})
	assert.ErrorIs(t, err, vecbench.ErrInvalidTopK)

	boom := errors.New("timeout")
	b.FailOn("search", boom)
	results, err := r.SerialRecall(ctx, []vecbench.RecallParams{{NQ: 1, TopK: 1}})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, results)
}

func TestRunner_LoadDatasetNormalizesOnce(t *testing.T) {
	ds := testDataset(t, distance.MetricCosine)
	want := distance.Normalize(distance.MetricCosine, ds.Train)

	r := vecbench.NewRunner(baseline.New().Connect, vecbench.WithLogger(vecbench.NoopLogger()))
	r.LoadDataset(ds)
	r.LoadDataset(ds)

	assert.True(t, ds.Normalized())
	assert.Equal(t, want, r.Dataset().Train)

	rep := r.Report(0)
	assert.Equal(t, "tiny", rep.Dataset)
	assert.Equal(t, distance.MetricCosine.String(), rep.Metric)
	assert.Equal(t, 8, rep.Dim)
}

func TestRunner_ConcurrentPlan(t *testing.T) {
	ctx := context.Background()
	recorder := report.NewLatencyRecorder()
	r := preparedRunner(t, baseline.New(), distance.MetricL2,
		vecbench.WithMetricsCollector(recorder),
		vecbench.WithInsertBatchSize(50),
	)

	specs := []workload.OperationSpec{
		{Kind: workload.KindSearch, Weight: 3, NQ: 2, TopK: 5, Params: map[string]any{"ef": 32}},
		{Kind: workload.KindQuery, Weight: 1, Params: map[string]any{"limit": 3}},
	}
	cp, err := r.ConcurrentPlan(ctx, specs, workload.ConcurrencyConfig{Workers: 8, Duration: time.Second})
	require.NoError(t, err)

	assert.Equal(t, []int{6, 2}, cp.Plan.Allocation)
	assert.Equal(t, 6, cp.Plan.Count(workload.KindSearch))
	assert.Equal(t, 2, cp.Plan.Count(workload.KindQuery))
	assert.Equal(t, time.Second, cp.Config.Duration)
	assert.NotContains(t, specs[0].Params, vecbench.ParamAnnsField)

	for id, w := range cp.Plan.Workers {
		wc, err := cp.Initializer(ctx, id, w)
		require.NoError(t, err)
		assert.Equal(t, id, wc.ID)
		assert.Equal(t, w.Kind, wc.Kind)

		if wc.Kind == workload.KindSearch {
			params := wc.Producer.Produce()
			assert.Equal(t, "emb", params.Fields[vecbench.ParamAnnsField])
			assert.Equal(t, distance.MetricL2.String(), params.Fields[vecbench.ParamMetricType])
			assert.Equal(t, 5, params.Fields[vecbench.ParamTopK])
			assert.Equal(t, 32, params.Fields["ef"])
			assert.Len(t, params.Data, 2)
		}

		require.NoError(t, cp.PoolFunc(ctx, wc))
		require.NoError(t, wc.Close())
	}

	ops := r.Report(time.Second).Operations
	require.Len(t, ops, 3)
	assert.Equal(t, "insert", ops[0].Kind)
	assert.Equal(t, int64(2), ops[0].Calls)
	assert.Equal(t, "query", ops[1].Kind)
	assert.Equal(t, int64(2), ops[1].Calls)
	assert.Equal(t, "search", ops[2].Kind)
	assert.Equal(t, int64(6), ops[2].Calls)
}

func TestRunner_ConcurrentPlanErrors(t *testing.T) {
	ctx := context.Background()
	cfg := workload.ConcurrencyConfig{Workers: 2}

	b := baseline.New()
	r := vecbench.NewRunner(b.Connect, vecbench.WithLogger(vecbench.NoopLogger()))
	_, err := r.ConcurrentPlan(ctx, []workload.OperationSpec{{Kind: workload.KindQuery, Weight: 1}}, cfg)
	var phaseErr *vecbench.PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, "collection schema", phaseErr.Phase)

	r = preparedRunner(t, b, distance.MetricL2)
	_, err = r.ConcurrentPlan(ctx, []workload.OperationSpec{{Kind: workload.KindQuery, Weight: 0}}, cfg)
	assert.ErrorIs(t, err, workload.ErrInvalidWeight)

	_, err = r.ConcurrentPlan(ctx, nil, cfg)
	assert.ErrorIs(t, err, workload.ErrNoOperations)
}

func TestRunner_ConcurrentPlanLogsCloseError(t *testing.T) {
	ctx := context.Background()
	b := baseline.New()
	preparedRunner(t, b, distance.MetricL2)

	var buf bytes.Buffer
	logger := vecbench.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	connect := func(ctx context.Context) (vecbench.Client, error) {
		c, err := b.Connect(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.UseCollection(ctx, "bench"); err != nil {
			return nil, err
		}
		return leakyClient{Client: c}, nil
	}

	r := vecbench.NewRunner(connect, vecbench.WithLogger(logger))
	_, err := r.ConcurrentPlan(ctx, []workload.OperationSpec{{Kind: workload.KindQuery, Weight: 1}}, workload.ConcurrencyConfig{Workers: 1})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "closing schema session failed")
	assert.Contains(t, buf.String(), "connection reset")
}
