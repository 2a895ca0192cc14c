package blobstore

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// CachingStore mirrors blobs of a remote store into a local one on first
// read. Later opens are served by the local store. Concurrent first reads of
// one name share a single download.
type CachingStore struct {
	remote BlobStore
	local  BlobStore
	group  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachingStore creates a CachingStore that fills local from remote.
func NewCachingStore(remote, local BlobStore) *CachingStore {
	return &CachingStore{
		remote: remote,
		local:  local,
	}
}

// Open returns the local copy of name, downloading it first if needed.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.local.Open(ctx, name)
	if err == nil {
		s.hits.Add(1)
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	s.misses.Add(1)
	if _, err, _ := s.group.Do(name, func() (any, error) {
		return nil, s.fetch(ctx, name)
	}); err != nil {
		return nil, err
	}
	return s.local.Open(ctx, name)
}

func (s *CachingStore) fetch(ctx context.Context, name string) error {
	// Another caller may have finished the download since our miss.
	if b, err := s.local.Open(ctx, name); err == nil {
		return b.Close()
	}

	data, err := ReadAll(ctx, s.remote, name)
	if err != nil {
		return err
	}
	return s.local.Put(ctx, name, data)
}

// Put writes through to both stores, remote first.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.remote.Put(ctx, name, data); err != nil {
		return err
	}
	return s.local.Put(ctx, name, data)
}

// List lists the remote store, which is authoritative.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.remote.List(ctx, prefix)
}

// Stats returns the number of opens served locally and the number that
// required a download.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

var _ BlobStore = (*CachingStore)(nil)
