package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"
)

// Format is a vecs file layout. Every record is a little-endian int32
// dimension d followed by d components.
type Format int

const (
	// FormatFvecs stores float32 components.
	FormatFvecs Format = iota
	// FormatIvecs stores int32 components (ground-truth ids).
	FormatIvecs
	// FormatBvecs stores uint8 components.
	FormatBvecs
)

func (f Format) String() string {
	switch f {
	case FormatFvecs:
		return "fvecs"
	case FormatIvecs:
		return "ivecs"
	case FormatBvecs:
		return "bvecs"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// MaxDim is the largest record dimension the readers accept. Larger headers
// are treated as corruption.
const MaxDim = 1 << 16

// Compression is the outer encoding of a dataset file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

// DetectFormat derives format and compression from a file name such as
// "sift_base.fvecs.zst".
func DetectFormat(name string) (Format, Compression, error) {
	comp := CompressionNone
	base := path.Base(name)
	switch ext := path.Ext(base); ext {
	case ".zst", ".zstd":
		comp = CompressionZstd
		base = strings.TrimSuffix(base, ext)
	case ".lz4":
		comp = CompressionLZ4
		base = strings.TrimSuffix(base, ext)
	}

	switch path.Ext(base) {
	case ".fvecs":
		return FormatFvecs, comp, nil
	case ".ivecs":
		return FormatIvecs, comp, nil
	case ".bvecs":
		return FormatBvecs, comp, nil
	}
	return 0, comp, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ReadVectors decodes fvecs or bvecs records into float32 rows.
func ReadVectors(r io.Reader, format Format) ([][]float32, error) {
	var width int
	var decode func(dst []float32, src []byte)

	switch format {
	case FormatFvecs:
		width = 4
		decode = func(dst []float32, src []byte) {
			for i := range dst {
				dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
			}
		}
	case FormatBvecs:
		width = 1
		decode = func(dst []float32, src []byte) {
			for i := range dst {
				dst[i] = float32(src[i])
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s does not hold vectors", ErrUnknownFormat, format)
	}

	var out [][]float32
	err := readRecords(r, width, true, func(dim int, payload []byte) {
		row := make([]float32, dim)
		decode(row, payload)
		out = append(out, row)
	})
	return out, err
}

// ReadNeighbors decodes ivecs records into id rows. Rows may differ in length.
func ReadNeighbors(r io.Reader) ([][]int64, error) {
	var out [][]int64
	err := readRecords(r, 4, false, func(dim int, payload []byte) {
		row := make([]int64, dim)
		for i := range row {
			row[i] = int64(int32(binary.LittleEndian.Uint32(payload[i*4:])))
		}
		out = append(out, row)
	})
	return out, err
}

// readRecords calls fn for every record. With uniform set, every record must
// have the dimension of the first one.
func readRecords(r io.Reader, width int, uniform bool, fn func(dim int, payload []byte)) error {
	br := bufio.NewReaderSize(r, 1<<20)

	var header [4]byte
	var payload []byte
	first := -1
	for row := 0; ; row++ {
		if _, err := io.ReadFull(br, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: row %d header: %w", ErrCorrupt, row, err)
		}

		dim := int(int32(binary.LittleEndian.Uint32(header[:])))
		if dim < 0 {
			return fmt.Errorf("%w: row %d has negative dimension %d", ErrCorrupt, row, dim)
		}
		if dim > MaxDim {
			return fmt.Errorf("%w: row %d dimension %d exceeds %d", ErrCorrupt, row, dim, MaxDim)
		}
		if first < 0 {
			first = dim
		} else if uniform && dim != first {
			return fmt.Errorf("%w: row %d has dimension %d, want %d", ErrCorrupt, row, dim, first)
		}

		need := dim * width
		if cap(payload) < need {
			payload = make([]byte, need)
		}
		payload = payload[:need]
		if _, err := io.ReadFull(br, payload); err != nil {
			return fmt.Errorf("%w: row %d payload: %w", ErrCorrupt, row, err)
		}
		fn(dim, payload)
	}
}

// WriteVectors encodes rows as fvecs records.
func WriteVectors(w io.Writer, vectors [][]float32) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 4)
	for _, v := range vectors {
		binary.LittleEndian.PutUint32(buf, uint32(len(v)))
		if _, err := bw.Write(buf); err != nil {
			return err
		}
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteNeighbors encodes id rows as ivecs records.
func WriteNeighbors(w io.Writer, neighbors [][]int64) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 4)
	for _, row := range neighbors {
		binary.LittleEndian.PutUint32(buf, uint32(len(row)))
		if _, err := bw.Write(buf); err != nil {
			return err
		}
		for _, id := range row {
			if id < math.MinInt32 || id > math.MaxInt32 {
				return fmt.Errorf("dataset: id %d does not fit ivecs", id)
			}
			binary.LittleEndian.PutUint32(buf, uint32(int32(id)))
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
