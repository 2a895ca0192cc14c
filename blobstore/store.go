package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for accessing immutable data blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs backed by addressable memory.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// Streamer is an optional interface for Blobs that can deliver their whole
// content in a single request, which is cheaper than many ranged reads.
type Streamer interface {
	Stream() (io.ReadCloser, error)
}

// OpenReader opens name and returns a sequential reader over its content.
// Closing the reader closes the blob.
func OpenReader(ctx context.Context, s BlobStore, name string) (io.ReadCloser, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	if st, ok := b.(Streamer); ok {
		rc, err := st.Stream()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		return &blobReader{Reader: rc, closers: []io.Closer{rc, b}}, nil
	}

	return &blobReader{
		Reader:  io.NewSectionReader(b, 0, b.Size()),
		closers: []io.Closer{b},
	}, nil
}

// ReadAll returns a copy of the full content of name.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}

	buf := make([]byte, b.Size())
	n, err := b.ReadAt(buf, 0)
	if err != nil && !(err == io.EOF && int64(n) == b.Size()) {
		return nil, err
	}
	return buf[:n], nil
}

type blobReader struct {
	io.Reader
	closers []io.Closer
}

func (r *blobReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
