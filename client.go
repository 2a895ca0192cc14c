package vecbench

import (
	"context"
	"time"

	"github.com/hupe1980/vecbench/distance"
	"github.com/hupe1980/vecbench/workload"
)

// Well-known keys of workload.Params.Fields set by the harness.
const (
	ParamTopK       = "top_k"
	ParamAnnsField  = "anns_field"
	ParamMetricType = "metric_type"
)

// CollectionSpec describes the collection created by Prepare. Dim and Metric
// are taken from the loaded dataset.
type CollectionSpec struct {
	Name   string
	Dim    int
	Metric distance.Metric
	Params map[string]any
}

// IndexParams describes the index built by Prepare.
type IndexParams struct {
	Field  string
	Type   string
	Metric distance.Metric
	Params map[string]any
}

// Schema is the vector field of an existing collection.
type Schema struct {
	Field  string
	Dim    int
	Metric distance.Metric
}

// Client is a session with the vector database under test.
//
// Implementations wrap the database's native SDK. A Client is used by one
// goroutine at a time unless WithRecallParallelism is set above 1.
type Client interface {
	// DropAll removes every collection the benchmark may have left behind.
	DropAll(ctx context.Context) error
	CreateCollection(ctx context.Context, spec CollectionSpec) error
	// UseCollection binds the session to an existing collection.
	UseCollection(ctx context.Context, name string) error
	// Insert writes one batch and returns the time the backend spent on it.
	Insert(ctx context.Context, ids []int64, vectors [][]float32) (time.Duration, error)
	Flush(ctx context.Context) error
	BuildIndex(ctx context.Context, params IndexParams) error
	Load(ctx context.Context, params map[string]any) error
	// Search returns the ids of the nearest neighbors of every query in
	// params.Data, best first.
	Search(ctx context.Context, params workload.Params) ([][]int64, error)
	Query(ctx context.Context, params workload.Params) ([]map[string]any, error)
	CollectionSchema(ctx context.Context) (Schema, error)
	Close() error
}

// Connector opens a new Client session.
type Connector func(ctx context.Context) (Client, error)

// WorkerContext is the per-worker state built by ConcurrentPlan.Initializer.
// Each worker owns its Client; the Producer may be shared with other workers
// of the same operation.
type WorkerContext struct {
	ID        int
	Kind      workload.Kind
	Operation int
	Client    Client
	Producer  workload.Producer
	Logger    *Logger
}

// Close releases the worker's session.
func (w *WorkerContext) Close() error {
	return w.Client.Close()
}
