package recall

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchFunc evaluates one batch and returns its recall.
type BatchFunc[B any] func(ctx context.Context, batch B) (float64, error)

// EvaluateParallel evaluates batches on up to parallelism goroutines. Batches
// are split into contiguous chunks; each chunk fills its own Accumulator and
// the chunks are merged in order, so the result holds the same sequence of
// batch recalls as a serial evaluation.
func EvaluateParallel[B any](ctx context.Context, batches []B, parallelism int, fn BatchFunc[B]) (*Accumulator, error) {
	if parallelism <= 0 {
		parallelism = 1
	}
	parallelism = min(parallelism, max(len(batches), 1))

	parts := make([]Accumulator, parallelism)
	chunk := (len(batches) + parallelism - 1) / parallelism

	g, ctx := errgroup.WithContext(ctx)
	for i := range parts {
		lo := min(i*chunk, len(batches))
		hi := min(lo+chunk, len(batches))
		acc := &parts[i]
		g.Go(func() error {
			for _, b := range batches[lo:hi] {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := fn(ctx, b)
				if err != nil {
					return err
				}
				acc.Add(r)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Accumulator{}
	for i := range parts {
		out.Merge(&parts[i])
	}
	return out, nil
}
