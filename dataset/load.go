package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/vecbench/blobstore"
	"github.com/hupe1980/vecbench/distance"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"
)

// Source names the blobs that make up a dataset.
type Source struct {
	Name   string
	Metric distance.Metric
	// Train, Test and Neighbors are blob names; Neighbors is optional.
	Train     string
	Test      string
	Neighbors string
}

// Load fetches and decodes the train, test and ground-truth files of src in
// parallel.
func Load(ctx context.Context, store blobstore.BlobStore, src Source) (*Dataset, error) {
	var (
		train, test [][]float32
		neighbors   [][]int64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		train, err = loadVectors(ctx, store, src.Train)
		return err
	})
	g.Go(func() (err error) {
		test, err = loadVectors(ctx, store, src.Test)
		return err
	})
	if src.Neighbors != "" {
		g.Go(func() (err error) {
			neighbors, err = loadNeighbors(ctx, store, src.Neighbors)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(src.Name, src.Metric, train, test, neighbors)
}

func loadVectors(ctx context.Context, store blobstore.BlobStore, name string) ([][]float32, error) {
	format, comp, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var out [][]float32
	err = withReader(ctx, store, name, comp, func(r io.Reader) (err error) {
		out, err = ReadVectors(r, format)
		return err
	})
	return out, err
}

func loadNeighbors(ctx context.Context, store blobstore.BlobStore, name string) ([][]int64, error) {
	format, comp, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if format != FormatIvecs {
		return nil, fmt.Errorf("%w: ground truth %q must be ivecs", ErrUnknownFormat, name)
	}

	var out [][]int64
	err = withReader(ctx, store, name, comp, func(r io.Reader) (err error) {
		out, err = ReadNeighbors(r)
		return err
	})
	return out, err
}

func withReader(ctx context.Context, store blobstore.BlobStore, name string, comp Compression, fn func(io.Reader) error) error {
	rc, err := blobstore.OpenReader(ctx, store, name)
	if err != nil {
		return fmt.Errorf("dataset: open %s: %w", name, err)
	}
	defer rc.Close()

	r, err := decompress(rc, comp)
	if err != nil {
		return fmt.Errorf("dataset: decompress %s: %w", name, err)
	}
	defer r.Close()

	if err := fn(r); err != nil {
		return fmt.Errorf("dataset: decode %s: %w", name, err)
	}
	return nil
}

func decompress(r io.Reader, comp Compression) (io.ReadCloser, error) {
	switch comp {
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// Save encodes ds into the blobs named by dst, compressing by extension.
// Vectors are written as stored, so save before Normalize to keep raw data.
func Save(ctx context.Context, store blobstore.BlobStore, dst Source, ds *Dataset) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return saveBlob(ctx, store, dst.Train, func(w io.Writer) error { return WriteVectors(w, ds.Train) })
	})
	g.Go(func() error {
		return saveBlob(ctx, store, dst.Test, func(w io.Writer) error { return WriteVectors(w, ds.Test) })
	})
	if dst.Neighbors != "" && ds.Neighbors != nil {
		g.Go(func() error {
			return saveBlob(ctx, store, dst.Neighbors, func(w io.Writer) error { return WriteNeighbors(w, ds.Neighbors) })
		})
	}
	return g.Wait()
}

func saveBlob(ctx context.Context, store blobstore.BlobStore, name string, encode func(io.Writer) error) error {
	format, comp, err := DetectFormat(name)
	if err != nil {
		return err
	}
	if format == FormatBvecs {
		return fmt.Errorf("%w: writing bvecs is not supported", ErrUnknownFormat)
	}

	var buf bytes.Buffer
	w, err := compress(&buf, comp)
	if err != nil {
		return err
	}
	if err := encode(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("dataset: encode %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("dataset: compress %s: %w", name, err)
	}

	return store.Put(ctx, name, buf.Bytes())
}

func compress(w io.Writer, comp Compression) (io.WriteCloser, error) {
	switch comp {
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
