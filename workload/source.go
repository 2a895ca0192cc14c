package workload

import (
	"fmt"
	"slices"
	"sync/atomic"
)

// Producer yields the parameter set of the next request. Implementations
// never block and never terminate; the caller decides when to stop polling.
type Producer interface {
	Produce() Params
}

// WrapMode selects how a WindowSource handles the end of its pool.
type WrapMode int

const (
	// WrapCircular advances the cursor by the window size modulo the pool
	// length and reads windows circularly, so every window has the same size.
	WrapCircular WrapMode = iota

	// WrapReset truncates the window at the end of the pool and restarts at
	// position 0 once start+size reaches the pool length.
	WrapReset
)

func (m WrapMode) String() string {
	switch m {
	case WrapCircular:
		return "circular"
	case WrapReset:
		return "reset"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// WindowOption configures a WindowSource.
type WindowOption func(*windowOptions)

type windowOptions struct {
	mode  WrapMode
	start int
}

// WithWrap sets the wrap behavior. Default is WrapCircular.
func WithWrap(mode WrapMode) WindowOption {
	return func(o *windowOptions) {
		o.mode = mode
	}
}

// WithStart sets the initial cursor position. Out of range values are reduced
// modulo the pool length (WrapCircular) or reset to 0 (WrapReset).
func WithStart(pos int) WindowOption {
	return func(o *windowOptions) {
		o.start = pos
	}
}

// WindowSource produces search parameters carrying successive windows of nq
// vectors over a fixed pool.
//
// The cursor is advanced with compare-and-swap, so a single WindowSource may be
// shared by any number of goroutines: every production claims a distinct
// window and the sequence of claimed starts is exactly the serial sequence.
// The stream is not restartable.
type WindowSource struct {
	fields map[string]any
	pool   [][]float32
	nq     int
	mode   WrapMode
	cursor atomic.Int64
}

// NewWindowSource creates a WindowSource over pool. fields are sent with every
// window. The pool is referenced, not copied; windows are copied on production.
func NewWindowSource(fields map[string]any, pool [][]float32, nq int, optFns ...WindowOption) (*WindowSource, error) {
	if nq < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, nq)
	}

	opts := windowOptions{mode: WrapCircular}
	for _, fn := range optFns {
		fn(&opts)
	}

	return newWindowSource(fields, pool, nq, opts), nil
}

func newWindowSource(fields map[string]any, pool [][]float32, nq int, opts windowOptions) *WindowSource {
	s := &WindowSource{
		fields: cloneFields(fields),
		pool:   pool,
		nq:     nq,
		mode:   opts.mode,
	}
	s.cursor.Store(int64(s.clamp(opts.start)))
	return s
}

// Produce claims the next window and returns it with a copy of the fixed fields.
func (s *WindowSource) Produce() Params {
	for {
		start := s.cursor.Load()
		if s.cursor.CompareAndSwap(start, int64(s.next(int(start)))) {
			return Params{
				Fields: cloneFields(s.fields),
				Data:   s.window(int(start)),
			}
		}
	}
}

// Cursor returns the start position of the next window.
func (s *WindowSource) Cursor() int {
	return int(s.cursor.Load())
}

// Len returns the pool length.
func (s *WindowSource) Len() int {
	return len(s.pool)
}

// BatchSize returns the window size.
func (s *WindowSource) BatchSize() int {
	return s.nq
}

func (s *WindowSource) clamp(pos int) int {
	l := len(s.pool)
	if l == 0 || s.nq == 0 || s.nq >= l {
		return 0
	}
	if s.mode == WrapReset {
		if pos < 0 || pos >= l {
			return 0
		}
		return pos
	}
	pos %= l
	if pos < 0 {
		pos += l
	}
	return pos
}

func (s *WindowSource) next(start int) int {
	l := len(s.pool)
	// Empty windows and full-pool windows wrap on every call.
	if l == 0 || s.nq == 0 || s.nq >= l {
		return 0
	}
	end := start + s.nq
	if s.mode == WrapReset {
		if end < l {
			return end
		}
		return 0
	}
	return end % l
}

func (s *WindowSource) window(start int) [][]float32 {
	l := len(s.pool)
	size := min(s.nq, l)
	if s.mode == WrapReset {
		size = min(start+s.nq, l) - start
	}

	out := make([][]float32, size)
	for i := range out {
		out[i] = slices.Clone(s.pool[(start+i)%l])
	}
	return out
}

// StaticSource produces the same parameter set forever. It holds no state
// besides the template; every production is an independent deep copy.
type StaticSource struct {
	params Params
}

// NewStaticSource creates a StaticSource sending fields with every call.
func NewStaticSource(fields map[string]any) *StaticSource {
	return &StaticSource{params: Params{Fields: cloneFields(fields)}}
}

// Produce returns a copy of the fixed parameter set.
func (s *StaticSource) Produce() Params {
	return s.params.Clone()
}

var (
	_ Producer = (*WindowSource)(nil)
	_ Producer = (*StaticSource)(nil)
)
