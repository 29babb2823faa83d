// Package binfile reads and writes DiskANN .bin vector files: a
// little-endian int32 point count, an int32 dimension, then the points in
// row-major order.
package binfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/vamana/distance"
)

// ErrInvalidFormat is returned for malformed files.
var ErrInvalidFormat = errors.New("binfile: invalid format")

// Header is the 8-byte file prefix.
type Header struct {
	Points int32
	Dim    int32
}

// Read decodes a whole .bin stream.
func Read[T distance.Element](r io.Reader) ([][]T, error) {
	br := bufio.NewReader(r)
	var h Header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidFormat, err)
	}
	if h.Points < 0 || h.Dim <= 0 {
		return nil, fmt.Errorf("%w: %d points of dimension %d", ErrInvalidFormat, h.Points, h.Dim)
	}

	flat := make([]T, int(h.Points)*int(h.Dim))
	if err := binary.Read(br, binary.LittleEndian, flat); err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrInvalidFormat, err)
	}
	out := make([][]T, h.Points)
	for i := range out {
		out[i] = flat[i*int(h.Dim) : (i+1)*int(h.Dim) : (i+1)*int(h.Dim)]
	}
	return out, nil
}

// ReadFile reads a .bin file.
func ReadFile[T distance.Element](path string) ([][]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read[T](f)
}

// ReadHeader returns the point count and dimension of a .bin stream.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Header{}, fmt.Errorf("%w: header: %v", ErrInvalidFormat, err)
	}
	return h, nil
}

// Write encodes vectors, which must share one dimension.
func Write[T distance.Element](w io.Writer, vectors [][]T) error {
	if len(vectors) == 0 {
		return fmt.Errorf("%w: no vectors", ErrInvalidFormat)
	}
	dim := len(vectors[0])
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, Header{Points: int32(len(vectors)), Dim: int32(dim)}); err != nil {
		return err
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrInvalidFormat, i, len(v), dim)
		}
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes vectors to path.
func WriteFile[T distance.Element](path string, vectors [][]T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, vectors); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
