package vecbench_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hupe1980/vecbench"
	"github.com/hupe1980/vecbench/baseline"
	"github.com/hupe1980/vecbench/dataset"
	"github.com/hupe1980/vecbench/distance"
	"github.com/hupe1980/vecbench/recall"
	"github.com/hupe1980/vecbench/workload"
)

// Example_recall prepares an exact in-memory backend and measures recall.
func Example_recall() {
	ctx := context.Background()

	ds, err := dataset.Generate(ctx, dataset.GenerateConfig{
		Metric: distance.MetricCosine,
		Dim:    16,
		Train:  500,
		Test:   20,
		K:      10,
		Seed:   1,
	})
	if err != nil {
		log.Fatal(err)
	}

	r := vecbench.NewRunner(baseline.New().Connect, vecbench.WithLogger(vecbench.NoopLogger()))
	defer r.Close()
	r.LoadDataset(ds)

	if _, err := r.Prepare(ctx, vecbench.PrepareConfig{
		Prepare:    true,
		Collection: vecbench.CollectionSpec{Name: "example"},
		Index:      vecbench.IndexParams{Field: "vector", Type: "FLAT"},
	}); err != nil {
		log.Fatal(err)
	}

	results, err := r.SerialRecall(ctx, []vecbench.RecallParams{{NQ: 5, TopK: 10}})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: recall@%d=%.2f over %d batches\n", ds.Name, results[0].TopK, results[0].Recall, results[0].Batches)
	// Output: synthetic-16-COSINE: recall@10=1.00 over 4 batches
}

// Example_allocate splits ten workers across a 3:1:1 workload.
func Example_allocate() {
	alloc, err := workload.Allocate([]float64{3, 1, 1}, 10, workload.RoundConserve)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(alloc)
	// Output: [6 2 2]
}

// Example_recallAtK compares a search result against ground truth.
func Example_recallAtK() {
	predicted := []int64{7, 3, 9, 1}
	truth := []int64{3, 7, 2, 8}
	fmt.Println(recall.Recall(predicted, truth, 4))
	// Output: 0.5
}

// Example_concurrentPlan builds the per-worker plan for a mixed workload.
func Example_concurrentPlan() {
	ctx := context.Background()
	b := baseline.New()

	ds, err := dataset.Generate(ctx, dataset.GenerateConfig{Metric: distance.MetricL2, Dim: 4, Train: 50, Test: 8, K: 5})
	if err != nil {
		log.Fatal(err)
	}

	r := vecbench.NewRunner(b.Connect, vecbench.WithLogger(vecbench.NoopLogger()))
	defer r.Close()
	r.LoadDataset(ds)
	if _, err := r.Prepare(ctx, vecbench.PrepareConfig{
		Prepare:    true,
		Collection: vecbench.CollectionSpec{Name: "mixed"},
	}); err != nil {
		log.Fatal(err)
	}

	cp, err := r.ConcurrentPlan(ctx, []workload.OperationSpec{
		{Kind: workload.KindSearch, Weight: 3, NQ: 1, TopK: 5},
		{Kind: workload.KindQuery, Weight: 1, Params: map[string]any{"limit": 1}},
	}, workload.ConcurrencyConfig{Workers: 8, Duration: time.Minute})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("search:", cp.Plan.Count(workload.KindSearch))
	fmt.Println("query:", cp.Plan.Count(workload.KindQuery))
	// Output:
	// search: 6
	// query: 2
}
