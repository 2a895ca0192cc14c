package distance

import (
	"fmt"
	"math"
	"strings"
)

// Metric represents the similarity metric a collection is built with.
type Metric int

const (
	MetricL2 Metric = iota
	MetricIP
	MetricCosine
	MetricHamming
	MetricJaccard
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricIP:
		return "IP"
	case MetricCosine:
		return "COSINE"
	case MetricHamming:
		return "HAMMING"
	case MetricJaccard:
		return "JACCARD"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// RequiresNormalization reports whether vectors must be unit-length before
// they are indexed or searched under m.
func (m Metric) RequiresNormalization() bool {
	return m == MetricIP || m == MetricCosine
}

// ParseMetric maps a metric name to a Metric. Matching is case-insensitive and
// accepts the common aliases used by ann-benchmarks style dataset descriptors.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L2", "EUCLIDEAN":
		return MetricL2, nil
	case "IP", "DOT", "INNER_PRODUCT":
		return MetricIP, nil
	case "COSINE", "ANGULAR":
		return MetricCosine, nil
	case "HAMMING":
		return MetricHamming, nil
	case "JACCARD":
		return MetricJaccard, nil
	default:
		return 0, fmt.Errorf("unsupported metric %q", s)
	}
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm := Norm(v)
	if norm == 0 {
		return false
	}
	inv := 1 / norm
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return true
}

// Func is a function type for distance calculation where lower is closer.
type Func func(a, b []float32) float32

// Provider returns the ranking function for the given metric. Similarity
// metrics are negated so that every returned Func orders closest first.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricIP, MetricCosine:
		return func(a, b []float32) float32 { return -Dot(a, b) }, nil
	default:
		return nil, fmt.Errorf("unsupported metric for float32: %v", m)
	}
}
