// Package workload turns declared operation weights into the per-worker
// parameter streams consumed by a concurrent benchmark executor.
//
// # Building Blocks
//
//   - Allocate: splits a total worker count across operations by weight
//   - WindowSource: endless stream of search parameters carrying successive
//     fixed-size windows over a query vector pool (cyclic)
//   - StaticSource: endless stream of one fixed parameter set
//   - Assemble / NewPlan: one (Kind, Factory) entry per logical worker
//
// Sources never block and never fail once constructed. Timing (interval,
// warm-up, duration) and cancellation belong to the executor polling them.
//
// # Usage
//
//	plan, err := workload.NewPlan(specs, workload.ConcurrencyConfig{
//	    Workers:  8,
//	    Duration: time.Minute,
//	})
//	for _, w := range plan.Workers {
//	    src := w.Factory()
//	    go func() {
//	        for ctx.Err() == nil {
//	            params := src.Produce()
//	            // issue request for w.Kind with params
//	        }
//	    }()
//	}
package workload
