// Package baseline is an in-memory, exact-search backend for vecbench.
//
// It answers every search by brute force, so its recall is 1.0 by
// construction. Use it to validate datasets and harness settings before
// pointing a run at a real database, and as a floor for latency numbers.
package baseline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/vecbench"
	"github.com/hupe1980/vecbench/distance"
	"github.com/hupe1980/vecbench/testutil"
	"github.com/hupe1980/vecbench/workload"
)

var (
	// ErrNoCollection is returned when a session is not bound to a collection.
	ErrNoCollection = errors.New("baseline: no collection selected")
	// ErrCollectionNotFound is returned by UseCollection for unknown names.
	ErrCollectionNotFound = errors.New("baseline: collection not found")
	// ErrNotLoaded is returned when searching a collection before Load.
	ErrNotLoaded = errors.New("baseline: collection not loaded")
	// ErrClosed is returned by a closed session.
	ErrClosed = errors.New("baseline: session closed")
)

type collection struct {
	spec    vecbench.CollectionSpec
	fn      distance.Func
	ids     []int64
	vectors [][]float32
	index   *vecbench.IndexParams
	loaded  bool
}

// Backend holds the collections shared by all sessions.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]*collection
	faults      map[string]error
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		collections: make(map[string]*collection),
		faults:      make(map[string]error),
	}
}

// FailOn makes every call of op ("insert", "search", ...) return err.
// A nil err clears the fault.
func (b *Backend) FailOn(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.faults, op)
		return
	}
	b.faults[op] = err
}

// Connect opens a session. It satisfies vecbench.Connector.
func (b *Backend) Connect(ctx context.Context) (vecbench.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.fault("connect"); err != nil {
		return nil, err
	}
	return &Session{backend: b}, nil
}

// Len returns the number of vectors stored in the named collection.
func (b *Backend) Len(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if c, ok := b.collections[name]; ok {
		return len(c.ids)
	}
	return 0
}

func (b *Backend) fault(op string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.faults[op]
}

// Session is one client connection.
type Session struct {
	backend *Backend
	name    string
	closed  bool
}

func (s *Session) check(op string) error {
	if s.closed {
		return ErrClosed
	}
	return s.backend.fault(op)
}

// current returns the bound collection; the caller holds the backend lock.
func (s *Session) current() (*collection, error) {
	if s.name == "" {
		return nil, ErrNoCollection
	}
	c, ok := s.backend.collections[s.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, s.name)
	}
	return c, nil
}

func (s *Session) DropAll(_ context.Context) error {
	if err := s.check("drop"); err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	clear(s.backend.collections)
	return nil
}

func (s *Session) CreateCollection(_ context.Context, spec vecbench.CollectionSpec) error {
	if err := s.check("create"); err != nil {
		return err
	}
	fn, err := distance.Provider(spec.Metric)
	if err != nil {
		return err
	}

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if _, ok := s.backend.collections[spec.Name]; ok {
		return fmt.Errorf("baseline: collection %q exists", spec.Name)
	}
	s.backend.collections[spec.Name] = &collection{spec: spec, fn: fn}
	s.name = spec.Name
	return nil
}

func (s *Session) UseCollection(_ context.Context, name string) error {
	if err := s.check("use"); err != nil {
		return err
	}
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	if _, ok := s.backend.collections[name]; !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	s.name = name
	return nil
}

func (s *Session) Insert(_ context.Context, ids []int64, vectors [][]float32) (time.Duration, error) {
	start := time.Now()
	if err := s.check("insert"); err != nil {
		return 0, err
	}
	if len(ids) != len(vectors) {
		return 0, fmt.Errorf("baseline: %d ids for %d vectors", len(ids), len(vectors))
	}

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	c, err := s.current()
	if err != nil {
		return 0, err
	}
	for _, v := range vectors {
		if len(v) != c.spec.Dim {
			return 0, &vecbench.DimensionMismatchError{Expected: c.spec.Dim, Actual: len(v)}
		}
	}
	c.ids = append(c.ids, ids...)
	for _, v := range vectors {
		c.vectors = append(c.vectors, slices.Clone(v))
	}
	return time.Since(start), nil
}

func (s *Session) Flush(_ context.Context) error {
	return s.check("flush")
}

func (s *Session) BuildIndex(_ context.Context, params vecbench.IndexParams) error {
	if err := s.check("index"); err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	c, err := s.current()
	if err != nil {
		return err
	}
	c.index = &params
	return nil
}

func (s *Session) Load(_ context.Context, _ map[string]any) error {
	if err := s.check("load"); err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	c, err := s.current()
	if err != nil {
		return err
	}
	c.loaded = true
	return nil
}

// Search returns the exact top_k ids per query; top_k defaults to 10.
func (s *Session) Search(ctx context.Context, params workload.Params) ([][]int64, error) {
	if err := s.check("search"); err != nil {
		return nil, err
	}
	k, ok := params.Fields[vecbench.ParamTopK].(int)
	if !ok || k <= 0 {
		k = 10
	}

	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	if !c.loaded {
		return nil, ErrNotLoaded
	}

	out := make([][]int64, len(params.Data))
	for i, q := range params.Data {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := testutil.BruteForceSearch(c.vectors, q, k, c.fn)
		row := make([]int64, len(res))
		for j, r := range res {
			row[j] = c.ids[r.ID]
		}
		out[i] = row
	}
	return out, nil
}

// Query returns one row per id listed in Fields["ids"] that exists, or the
// first Fields["limit"] rows (default 10).
func (s *Session) Query(_ context.Context, params workload.Params) ([]map[string]any, error) {
	if err := s.check("query"); err != nil {
		return nil, err
	}

	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	c, err := s.current()
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if ids, ok := params.Fields["ids"].([]int64); ok {
		for _, id := range ids {
			if slices.Contains(c.ids, id) {
				rows = append(rows, map[string]any{"id": id})
			}
		}
		return rows, nil
	}

	limit, ok := params.Fields["limit"].(int)
	if !ok || limit <= 0 {
		limit = 10
	}
	for _, id := range c.ids[:min(limit, len(c.ids))] {
		rows = append(rows, map[string]any{"id": id})
	}
	return rows, nil
}

func (s *Session) CollectionSchema(_ context.Context) (vecbench.Schema, error) {
	if err := s.check("schema"); err != nil {
		return vecbench.Schema{}, err
	}
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	c, err := s.current()
	if err != nil {
		return vecbench.Schema{}, err
	}

	field := "vector"
	if c.index != nil && c.index.Field != "" {
		field = c.index.Field
	}
	return vecbench.Schema{Field: field, Dim: c.spec.Dim, Metric: c.spec.Metric}, nil
}

func (s *Session) Close() error {
	s.closed = true
	return nil
}

var _ vecbench.Client = (*Session)(nil)
