package dataset

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/hupe1980/vecbench/distance"
	"github.com/hupe1980/vecbench/testutil"
	"golang.org/x/sync/errgroup"
)

// Distribution selects how synthetic vectors are drawn.
type Distribution int

const (
	// Uniform draws components from [0, 1).
	Uniform Distribution = iota
	// Gaussian draws components from a standard normal.
	Gaussian
	// Clustered draws points around random unit centroids.
	Clustered
)

// GenerateConfig describes a synthetic dataset.
type GenerateConfig struct {
	Name         string
	Metric       distance.Metric
	Dim          int
	Train        int
	Test         int
	K            int
	Seed         int64
	Distribution Distribution
	// Clusters and Spread apply to Clustered only.
	Clusters int
	Spread   float32
}

// Generate creates a seeded dataset whose ground truth is the exact top-K by
// brute force. For metrics that require normalization, ground truth is
// computed on normalized vectors while the dataset keeps the raw ones.
func Generate(ctx context.Context, cfg GenerateConfig) (*Dataset, error) {
	if cfg.Dim <= 0 || cfg.Train <= 0 || cfg.Test < 0 || cfg.K <= 0 {
		return nil, errors.New("dataset: dim, train and k must be positive")
	}

	fn, err := distance.Provider(cfg.Metric)
	if err != nil {
		return nil, err
	}

	rng := testutil.NewRNG(cfg.Seed)
	draw := func(n int) [][]float32 {
		switch cfg.Distribution {
		case Gaussian:
			return rng.GaussianVectors(n, cfg.Dim)
		case Clustered:
			clusters := cfg.Clusters
			if clusters <= 0 {
				clusters = 16
			}
			spread := cfg.Spread
			if spread <= 0 {
				spread = 0.1
			}
			return rng.ClusteredVectors(n, cfg.Dim, clusters, spread)
		default:
			return rng.UniformVectors(n, cfg.Dim)
		}
	}

	train := draw(cfg.Train)
	test := draw(cfg.Test)

	neighbors, err := groundTruth(ctx, distance.Normalize(cfg.Metric, train), distance.Normalize(cfg.Metric, test), cfg.K, fn)
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("synthetic-%d-%s", cfg.Dim, cfg.Metric)
	}
	return New(name, cfg.Metric, train, test, neighbors)
}

func groundTruth(ctx context.Context, train, test [][]float32, k int, fn distance.Func) ([][]int64, error) {
	neighbors := make([][]int64, len(test))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, q := range test {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := testutil.BruteForceSearch(train, q, k, fn)
			row := make([]int64, len(res))
			for j, r := range res {
				row[j] = r.ID
			}
			neighbors[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return neighbors, nil
}
