// Package testutil provides testing utilities for vamana.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors, computing exact
// nearest neighbors, and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	data := rng.UniformVectors(10000, 10)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.BruteForceSearch(data, ids, query, k, distance.MetricL2)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
