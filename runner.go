package vecbench

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/vecbench/dataset"
	"github.com/hupe1980/vecbench/recall"
	"github.com/hupe1980/vecbench/report"
	"github.com/hupe1980/vecbench/workload"
)

// PrepareConfig configures the prepare phase.
type PrepareConfig struct {
	// Prepare recreates and fills the collection. When false, Prepare only
	// connects to the existing collection named by Collection.Name.
	Prepare    bool
	Collection CollectionSpec
	Index      IndexParams
	Load       map[string]any
}

// RecallParams configures one serial recall pass.
type RecallParams struct {
	NQ     int
	TopK   int
	Params map[string]any
}

// ConcurrentPlan is everything an external pool executor needs to drive the
// concurrent workload: one entry per worker, the per-worker initializer, the
// call to make each iteration, and the timing configuration.
type ConcurrentPlan struct {
	Plan   *workload.Plan
	Config workload.ConcurrencyConfig
	// Initializer opens a session for worker id and binds its producer.
	Initializer func(ctx context.Context, id int, w workload.Worker) (*WorkerContext, error)
	// PoolFunc issues one request with the worker's next parameter set.
	PoolFunc func(ctx context.Context, wc *WorkerContext) error
}

// Runner drives the phases of a benchmark run against one backend.
// Its methods are not safe for concurrent use; the Initializer and PoolFunc
// of a ConcurrentPlan are.
type Runner struct {
	connect Connector
	opts    options

	client    Client
	annsField string
	ds        *dataset.Dataset
	rep       report.Report
}

// NewRunner creates a Runner that opens sessions with connect.
func NewRunner(connect Connector, optFns ...Option) *Runner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		connect: connect,
		opts:    opts,
		rep: report.Report{
			Name:      opts.name,
			StartedAt: time.Now().UTC(),
		},
	}
}

// LoadDataset sets the dataset and applies the metric's normalization to its
// train and test vectors. A dataset is normalized at most once, however often
// it is loaded.
func (r *Runner) LoadDataset(ds *dataset.Dataset) {
	r.ds = ds
	if ds.Normalize() {
		r.opts.logger.WithDataset(ds.Name).Info("dataset normalized", "metric", ds.Metric.String())
	}

	r.rep.Dataset = ds.Name
	r.rep.Metric = ds.Metric.String()
	r.rep.Dim = ds.Dim()
}

// Dataset returns the loaded dataset or nil.
func (r *Runner) Dataset() *dataset.Dataset {
	return r.ds
}

// Prepare connects to the backend and, if cfg.Prepare is set, drops all
// collections, creates a fresh one, inserts the train vectors in batches,
// flushes, builds the index and loads the collection. Insert time is the sum
// of the per-batch times reported by the Client; index and load are timed
// around the calls. It returns nil timings when cfg.Prepare is false.
func (r *Runner) Prepare(ctx context.Context, cfg PrepareConfig) (*report.PrepareTimings, error) {
	log := r.opts.logger

	if r.client == nil {
		client, err := r.connect(ctx)
		if err != nil {
			return nil, phaseError("connect", err)
		}
		r.client = client
	}

	if !cfg.Prepare {
		if err := r.client.UseCollection(ctx, cfg.Collection.Name); err != nil {
			return nil, phaseError("use collection", err)
		}
		r.annsField = cfg.Index.Field
		log.InfoContext(ctx, "connected to existing collection", "collection", cfg.Collection.Name)
		return nil, nil
	}

	if r.ds == nil {
		return nil, ErrNoDataset
	}

	timings, err := r.prepare(ctx, cfg)
	log.LogPrepare(ctx, timings, err)
	if err != nil {
		return nil, err
	}

	r.annsField = cfg.Index.Field
	r.rep.Prepare = timings
	return timings, nil
}

func (r *Runner) prepare(ctx context.Context, cfg PrepareConfig) (*report.PrepareTimings, error) {
	spec := cfg.Collection
	if spec.Dim != 0 && spec.Dim != r.ds.Dim() {
		return nil, &DimensionMismatchError{Expected: spec.Dim, Actual: r.ds.Dim()}
	}
	spec.Dim = r.ds.Dim()
	spec.Metric = r.ds.Metric

	if err := r.client.DropAll(ctx); err != nil {
		return nil, phaseError("drop collections", err)
	}
	if err := r.client.CreateCollection(ctx, spec); err != nil {
		return nil, phaseError("create collection", err)
	}

	r.opts.logger.InfoContext(ctx, "inserting train vectors",
		"collection", spec.Name,
		"vectors", len(r.ds.Train),
		"batch", r.opts.insertBatchSize,
	)

	limiter := rate.NewLimiter(r.opts.insertRate, r.opts.insertBatchSize)

	var insertTime time.Duration
	for batch := range r.ds.TrainBatches(r.opts.insertBatchSize) {
		if err := limiter.WaitN(ctx, len(batch.IDs)); err != nil {
			return nil, phaseError("insert", err)
		}
		d, err := r.client.Insert(ctx, batch.IDs, batch.Vectors)
		r.opts.metricsCollector.RecordInsert(len(batch.IDs), d, err)
		if err != nil {
			return nil, phaseError("insert", err)
		}
		insertTime += d
	}

	if err := r.client.Flush(ctx); err != nil {
		return nil, phaseError("flush", err)
	}

	index := cfg.Index
	index.Metric = r.ds.Metric
	start := time.Now()
	if err := r.client.BuildIndex(ctx, index); err != nil {
		return nil, phaseError("build index", err)
	}
	indexTime := time.Since(start)

	start = time.Now()
	if err := r.client.Load(ctx, cfg.Load); err != nil {
		return nil, phaseError("load", err)
	}
	loadTime := time.Since(start)

	prec := r.opts.precision
	return &report.PrepareTimings{
		Vectors:           len(r.ds.Train),
		InsertSeconds:     recall.Round(insertTime.Seconds(), prec),
		BuildIndexSeconds: recall.Round(indexTime.Seconds(), prec),
		LoadSeconds:       recall.Round(loadTime.Seconds(), prec),
	}, nil
}

// SerialRecall runs one recall pass per entry of params: the test vectors
// are searched nq at a time and every batch's recall@top_k is recorded. The
// result of a pass is the unweighted mean over its batches.
func (r *Runner) SerialRecall(ctx context.Context, params []RecallParams) ([]report.RecallResult, error) {
	if r.client == nil {
		return nil, ErrNotPrepared
	}
	if r.ds == nil {
		return nil, ErrNoDataset
	}

	results := make([]report.RecallResult, 0, len(params))
	for _, p := range params {
		res, err := r.recallPass(ctx, p)
		r.opts.logger.LogRecall(ctx, res, err)
		if err != nil {
			return results, fmt.Errorf("recall nq=%d top_k=%d: %w", p.NQ, p.TopK, err)
		}
		results = append(results, res)
		r.rep.Recall = append(r.rep.Recall, res)
	}
	return results, nil
}

func (r *Runner) recallPass(ctx context.Context, p RecallParams) (report.RecallResult, error) {
	res := report.RecallResult{NQ: p.NQ, TopK: p.TopK, Params: p.Params}
	if p.NQ <= 0 || p.TopK <= 0 {
		return res, ErrInvalidTopK
	}

	latencies := report.NewLatencyRecorder()
	search := func(ctx context.Context, b dataset.TestBatch) ([][]int64, error) {
		params := r.searchParams(p, b.Vectors)
		start := time.Now()
		predicted, err := r.client.Search(ctx, params)
		d := time.Since(start)
		latencies.RecordSearch(len(b.Vectors), p.TopK, d, err)
		r.opts.metricsCollector.RecordSearch(len(b.Vectors), p.TopK, d, err)
		return predicted, err
	}

	var mean float64
	if r.opts.recallParallelism > 1 {
		batches := slices.Collect(r.ds.TestBatches(p.NQ, p.TopK))
		acc, err := recall.EvaluateParallel(ctx, batches, r.opts.recallParallelism,
			func(ctx context.Context, b dataset.TestBatch) (float64, error) {
				predicted, err := search(ctx, b)
				if err != nil {
					return 0, err
				}
				return recall.BatchRecall(predicted, b.Neighbors, p.TopK)
			})
		if err != nil {
			return res, err
		}
		res.Batches = acc.Len()
		if mean, err = acc.Mean(r.opts.precision); err != nil {
			return res, err
		}
	} else {
		ev := recall.NewEvaluator(p.TopK, recall.WithPrecision(r.opts.precision))
		for b := range r.ds.TestBatches(p.NQ, p.TopK) {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			predicted, err := search(ctx, b)
			if err != nil {
				return res, err
			}
			if _, err := ev.Observe(predicted, b.Neighbors); err != nil {
				return res, err
			}
		}
		res.Batches = ev.Batches()
		var err error
		if mean, err = ev.Result(); err != nil {
			return res, err
		}
	}

	res.Recall = mean
	if ops := latencies.Results(0); len(ops) > 0 {
		res.Latency = ops[0].Latency
	}
	return res, nil
}

func (r *Runner) searchParams(p RecallParams, vectors [][]float32) workload.Params {
	fields := make(map[string]any, len(p.Params)+3)
	maps.Copy(fields, p.Params)
	fields[ParamTopK] = p.TopK
	fields[ParamMetricType] = r.ds.Metric.String()
	if r.annsField != "" {
		fields[ParamAnnsField] = r.annsField
	}
	return workload.Params{Fields: fields, Data: vectors}
}

// ConcurrentPlan opens a session to read the collection schema, completes the
// search specs with the vector field, metric and top_k, and allocates workers.
// Search specs without Vectors use the dataset's test vectors.
func (r *Runner) ConcurrentPlan(ctx context.Context, specs []workload.OperationSpec, cfg workload.ConcurrencyConfig) (*ConcurrentPlan, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, phaseError("connect", err)
	}
	schema, err := client.CollectionSchema(ctx)
	if cerr := client.Close(); cerr != nil {
		r.opts.logger.WarnContext(ctx, "closing schema session failed", "error", cerr)
	}
	if err != nil {
		return nil, phaseError("collection schema", err)
	}

	resolved := make([]workload.OperationSpec, len(specs))
	for i, spec := range specs {
		spec.Params = maps.Clone(spec.Params)
		if spec.Params == nil {
			spec.Params = make(map[string]any)
		}

		if spec.Kind == workload.KindSearch {
			if spec.Vectors == nil {
				if r.ds == nil {
					return nil, ErrNoDataset
				}
				if r.ds.Dim() != schema.Dim {
					return nil, &DimensionMismatchError{Expected: schema.Dim, Actual: r.ds.Dim()}
				}
				spec.Vectors = r.ds.Test
			}
			spec.Params[ParamAnnsField] = schema.Field
			spec.Params[ParamMetricType] = schema.Metric.String()
			if spec.TopK > 0 {
				spec.Params[ParamTopK] = spec.TopK
			}
		}
		resolved[i] = spec
	}

	plan, err := workload.NewPlan(resolved, cfg, r.opts.workloadOptions...)
	if err != nil {
		return nil, err
	}
	r.opts.logger.LogPlan(ctx, plan)

	return &ConcurrentPlan{
		Plan:        plan,
		Config:      plan.Config,
		Initializer: r.initWorker,
		PoolFunc:    r.poolFunc,
	}, nil
}

func (r *Runner) initWorker(ctx context.Context, id int, w workload.Worker) (*WorkerContext, error) {
	client, err := r.connect(ctx)
	r.opts.logger.LogWorkerInit(ctx, id, w.Kind, err)
	if err != nil {
		return nil, err
	}

	return &WorkerContext{
		ID:        id,
		Kind:      w.Kind,
		Operation: w.Operation,
		Client:    client,
		Producer:  w.Factory(),
		Logger:    r.opts.logger.WithWorker(id, w.Kind),
	}, nil
}

func (r *Runner) poolFunc(ctx context.Context, wc *WorkerContext) error {
	params := wc.Producer.Produce()
	start := time.Now()

	switch wc.Kind {
	case workload.KindSearch:
		_, err := wc.Client.Search(ctx, params)
		topK, _ := params.Fields[ParamTopK].(int)
		r.opts.metricsCollector.RecordSearch(len(params.Data), topK, time.Since(start), err)
		return err
	default:
		_, err := wc.Client.Query(ctx, params)
		r.opts.metricsCollector.RecordQuery(time.Since(start), err)
		return err
	}
}

type operationReporter interface {
	Results(elapsed time.Duration) []report.OperationResult
}

// Report returns the results gathered so far. When the metrics collector
// keeps latency distributions (report.LatencyRecorder), per-kind operation
// results over elapsed are included.
func (r *Runner) Report(elapsed time.Duration) *report.Report {
	rep := r.rep
	rep.Recall = slices.Clone(r.rep.Recall)
	if rec, ok := r.opts.metricsCollector.(operationReporter); ok {
		rep.Operations = rec.Results(elapsed)
	}
	return &rep
}

// Close ends the serial session opened by Prepare.
func (r *Runner) Close() error {
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}
