// Package testutil provides seeded vector generation and exact search for
// tests and synthetic benchmark datasets.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UniformVectors(1000, 128) // uniform [0, 1)
//	vecs = rng.GaussianVectors(1000, 128) // standard normal
//
// # Exact Search (Ground Truth)
//
//	results := testutil.BruteForceSearch(train, query, k, distance.SquaredL2)
package testutil
