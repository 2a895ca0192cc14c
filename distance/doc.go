// Package distance provides the similarity metrics understood by the benchmark
// harness and the metric-dependent preprocessing applied to datasets.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (no preprocessing)
//   - MetricIP: Inner product, compared as cosine on unit vectors
//   - MetricCosine: Cosine similarity
//   - MetricHamming, MetricJaccard: binary metrics (no preprocessing)
//
// # Usage
//
//	m, err := distance.ParseMetric("IP")
//	train := distance.Normalize(m, train) // unit rows for IP/Cosine
package distance
