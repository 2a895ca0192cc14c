// Package vecbench is a benchmarking harness for vector-search backends.
//
// A run has three phases:
//
//   - Prepare: recreate the collection, insert the train vectors in batches,
//     flush, build the index and load it, timing each step.
//   - Serial recall: search the test vectors batch by batch and compare the
//     returned ids with the ground truth (recall@k).
//   - Concurrent workload: split a fixed number of workers across weighted
//     operation kinds and hand each worker an endless parameter stream, to be
//     driven by an external pool executor for a fixed duration.
//
// The database itself stays behind the Client interface. Package baseline
// provides an exact in-memory Client for dry runs.
//
// # Quick Start
//
//	ds, _ := dataset.Load(ctx, blobstore.NewLocalStore("./data"), dataset.Source{...})
//
//	r := vecbench.NewRunner(connect, vecbench.WithInsertBatchSize(50_000))
//	r.LoadDataset(ds) // normalizes once for IP and cosine
//
//	timings, _ := r.Prepare(ctx, vecbench.PrepareConfig{Prepare: true, ...})
//	results, _ := r.SerialRecall(ctx, []vecbench.RecallParams{{NQ: 10, TopK: 10}})
//
//	cp, _ := r.ConcurrentPlan(ctx, specs, workload.ConcurrencyConfig{
//	    Workers:  16,
//	    Duration: time.Minute,
//	})
//	for i, w := range cp.Plan.Workers {
//	    wc, _ := cp.Initializer(ctx, i, w)
//	    go loop(ctx, wc, cp.PoolFunc) // external executor
//	}
//
// # Key Features
//
//   - Worker allocation that always sums to the requested total
//   - Lock-free shared cursor over the query pool with gap-free coverage
//   - Recall aggregation that is exact across parallel evaluators
//   - Datasets from local disk, S3 or MinIO, optionally zstd/lz4 compressed
//   - Reports as JSON/CSV blobs or DynamoDB items
package vecbench
