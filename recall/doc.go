// Package recall computes recall-at-k of search results against ground-truth
// neighbor sets and aggregates it over query batches.
//
// Batch recall is the mean of the per-query recalls of the batch; the final
// recall is the unweighted mean of all batch recalls, rounded to
// DefaultPrecision decimals.
//
//	ev := recall.NewEvaluator(topK)
//	for _, b := range batches {
//	    predicted := search(b.Vectors)
//	    if _, err := ev.Observe(predicted, b.Neighbors); err != nil { ... }
//	}
//	r, err := ev.Result()
//
// An Evaluator is not safe for concurrent use. Use EvaluateParallel, which
// gives every goroutine its own Accumulator and concatenates them in order.
package recall
