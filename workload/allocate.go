package workload

import (
	"fmt"
	"math"
)

// RoundingPolicy selects how fractional worker shares are turned into integers.
type RoundingPolicy int

const (
	// RoundConserve rounds every share half-to-even except the last operation
	// with a positive weight, which receives the remainder. The allocation
	// always sums to the requested total.
	RoundConserve RoundingPolicy = iota

	// RoundIndependent rounds every share half-to-even on its own. The sum may
	// drift from the requested total by up to half the number of operations.
	RoundIndependent
)

func (p RoundingPolicy) String() string {
	switch p {
	case RoundConserve:
		return "conserve"
	case RoundIndependent:
		return "independent"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// Allocate splits n workers across operations proportionally to weights.
//
// Each share is round(w_i / sum(w) * n) with round-half-to-even. Under
// RoundConserve the running total is clamped to n so that no share is ever
// negative, and zero-weight operations never receive workers.
func Allocate(weights []float64, n int, policy RoundingPolicy) ([]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, n)
	}

	var peak float64
	last := -1
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, &WeightError{Index: i, Weight: w}
		}
		if w > 0 {
			last = i
		}
		peak = max(peak, w)
	}
	if last < 0 {
		return nil, fmt.Errorf("%w: all weights are zero", ErrInvalidWeight)
	}

	// Scale by the largest weight so the sum cannot overflow.
	var total float64
	for _, w := range weights {
		total += w / peak
	}

	out := make([]int, len(weights))
	assigned := 0
	for i, w := range weights {
		share := int(math.RoundToEven(w / peak / total * float64(n)))
		if policy == RoundConserve {
			if i == last {
				continue
			}
			share = min(share, n-assigned)
		}
		out[i] = share
		assigned += share
	}

	if policy == RoundConserve {
		out[last] = n - assigned
	}

	return out, nil
}
