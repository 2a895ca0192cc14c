package workload

import (
	"fmt"
)

// CursorMode selects how search workers of one operation share windows.
type CursorMode int

const (
	// CursorShared gives every search worker of an operation the same
	// WindowSource. Windows are handed out in global order without gaps.
	CursorShared CursorMode = iota

	// CursorPerWorker gives worker i of k its own WindowSource starting at
	// floor(i*L/k). Workers never contend, but windows of different workers may
	// overlap and there is no global order.
	CursorPerWorker
)

func (m CursorMode) String() string {
	switch m {
	case CursorShared:
		return "shared"
	case CursorPerWorker:
		return "per-worker"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Factory returns the Producer a worker polls. Whether successive calls
// return the same instance depends on the CursorMode, see Assemble.
type Factory func() Producer

// Worker is one logical worker of a Plan.
type Worker struct {
	// Kind is the request type the worker issues.
	Kind Kind
	// Operation is the index of the OperationSpec the worker belongs to.
	Operation int
	// Factory yields the worker's parameter stream.
	Factory Factory
}

// Plan is the assembled concurrent workload.
type Plan struct {
	// Workers holds one entry per logical worker: all search workers first,
	// then all query workers, each group in declaration order.
	Workers []Worker

	// Allocation is the number of workers per OperationSpec.
	Allocation []int

	// Config is the concurrency configuration the plan was built for.
	Config ConcurrencyConfig
}

// Count returns the number of workers of the given kind.
func (p *Plan) Count(kind Kind) int {
	n := 0
	for _, w := range p.Workers {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Option configures plan assembly.
type Option func(*options)

type options struct {
	rounding RoundingPolicy
	cursor   CursorMode
	wrap     WrapMode
}

// WithRoundingPolicy sets the allocation rounding policy used by NewPlan.
// Default is RoundConserve.
func WithRoundingPolicy(p RoundingPolicy) Option {
	return func(o *options) {
		o.rounding = p
	}
}

// WithCursorMode sets how search workers share windows. Default is CursorShared.
func WithCursorMode(m CursorMode) Option {
	return func(o *options) {
		o.cursor = m
	}
}

// WithWrapMode sets the wrap behavior of search windows. Default is WrapCircular.
func WithWrapMode(m WrapMode) Option {
	return func(o *options) {
		o.wrap = m
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		rounding: RoundConserve,
		cursor:   CursorShared,
		wrap:     WrapCircular,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// NewPlan allocates cfg.Workers across specs by weight and assembles the plan.
func NewPlan(specs []OperationSpec, cfg ConcurrencyConfig, optFns ...Option) (*Plan, error) {
	if len(specs) == 0 {
		return nil, ErrNoOperations
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(optFns)

	weights := make([]float64, len(specs))
	for i, s := range specs {
		weights[i] = s.Weight
	}

	alloc, err := Allocate(weights, cfg.Workers, o.rounding)
	if err != nil {
		return nil, err
	}
	if sum(alloc) == 0 {
		return nil, fmt.Errorf("%w: %d workers over weights %v", ErrEmptyPlan, cfg.Workers, weights)
	}

	return Assemble(specs, cfg, alloc, optFns...)
}

// Assemble builds one Worker per allocated slot. alloc[i] is the number of
// workers of specs[i]; the plan length is the sum of alloc.
//
// Search workers of one operation share a single WindowSource under
// CursorShared; under CursorPerWorker each call of a worker's Factory returns
// a fresh WindowSource at that worker's offset. Query workers of one operation
// share a single StaticSource, which is stateless.
func Assemble(specs []OperationSpec, cfg ConcurrencyConfig, alloc []int, optFns ...Option) (*Plan, error) {
	if len(specs) == 0 {
		return nil, ErrNoOperations
	}
	if len(alloc) != len(specs) {
		return nil, fmt.Errorf("allocation has %d entries for %d operations", len(alloc), len(specs))
	}

	o := applyOptions(optFns)

	total := 0
	for i, n := range alloc {
		if n < 0 {
			return nil, fmt.Errorf("negative allocation %d for operation %d", n, i)
		}
		if specs[i].Kind != KindSearch && specs[i].Kind != KindQuery {
			return nil, fmt.Errorf("operation %d: unsupported kind %v", i, specs[i].Kind)
		}
		if specs[i].Kind == KindSearch && specs[i].NQ < 0 {
			return nil, fmt.Errorf("operation %d: %w: got %d", i, ErrInvalidBatchSize, specs[i].NQ)
		}
		total += n
	}

	plan := &Plan{
		Workers:    make([]Worker, 0, total),
		Allocation: append([]int(nil), alloc...),
		Config:     cfg,
	}

	for _, kind := range []Kind{KindSearch, KindQuery} {
		for i, spec := range specs {
			if spec.Kind != kind || alloc[i] == 0 {
				continue
			}
			for _, f := range factories(spec, alloc[i], o) {
				plan.Workers = append(plan.Workers, Worker{Kind: kind, Operation: i, Factory: f})
			}
		}
	}

	return plan, nil
}

func factories(spec OperationSpec, n int, o options) []Factory {
	out := make([]Factory, n)

	if spec.Kind == KindQuery {
		src := NewStaticSource(spec.Params)
		for i := range out {
			out[i] = func() Producer { return src }
		}
		return out
	}

	if o.cursor == CursorShared {
		src := newWindowSource(spec.Params, spec.Vectors, spec.NQ, windowOptions{mode: o.wrap})
		for i := range out {
			out[i] = func() Producer { return src }
		}
		return out
	}

	l := len(spec.Vectors)
	for i := range out {
		wo := windowOptions{mode: o.wrap, start: i * l / n}
		out[i] = func() Producer {
			return newWindowSource(spec.Params, spec.Vectors, spec.NQ, wo)
		}
	}
	return out
}

func sum(alloc []int) int {
	n := 0
	for _, a := range alloc {
		n += a
	}
	return n
}
