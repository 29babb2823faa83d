package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/vamana"
)

// encodePayload writes the payload sections in order: IDs, adjacency,
// frozen slots, tombstones, vectors.
func encodePayload[T distance.Element](w io.Writer, snap *vamana.Snapshot[T]) error {
	if err := writeU32s(w, snap.IDs); err != nil {
		return fmt.Errorf("write ids: %w", err)
	}

	var scratch []uint32
	for _, list := range snap.Neighbors {
		scratch = append(scratch[:0], uint32(len(list)))
		scratch = append(scratch, list...)
		if err := writeU32s(w, scratch); err != nil {
			return fmt.Errorf("write adjacency: %w", err)
		}
	}

	if err := writeU32s(w, snap.Frozen); err != nil {
		return fmt.Errorf("write frozen slots: %w", err)
	}

	tomb := snap.Tombstones
	if tomb == nil {
		tomb = roaring.New()
	}
	tomb.RunOptimize()
	var tb bytes.Buffer
	if _, err := tomb.WriteTo(&tb); err != nil {
		return fmt.Errorf("encode tombstones: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(tb.Len())); err != nil {
		return err
	}
	if _, err := w.Write(tb.Bytes()); err != nil {
		return fmt.Errorf("write tombstones: %w", err)
	}

	if _, err := w.Write(vectorBytes(snap.Vectors)); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	return nil
}

func writeU32s(w io.Writer, v []uint32) error {
	if len(v) == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, v)
}

// payloadReader walks a decoded payload.
type payloadReader struct {
	data []byte
	off  int
}

func (r *payloadReader) take(n int, what string) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, fmt.Errorf("%w: %s truncated", ErrCorrupt, what)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *payloadReader) u32s(n int, what string) ([]uint32, error) {
	b, err := r.take(4*n, what)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out, nil
}

func decodePayload[T distance.Element](h *Header, data []byte) (*vamana.Snapshot[T], error) {
	r := &payloadReader{data: data}
	snap := &vamana.Snapshot[T]{
		Params: h.Params(),
		Seeded: h.Seeded(),
	}

	var err error
	if snap.IDs, err = r.u32s(int(h.MaxPoints), "ids"); err != nil {
		return nil, err
	}

	snap.Neighbors = make([][]uint32, h.Slots)
	for slot := range snap.Neighbors {
		cnt, err := r.u32s(1, "adjacency")
		if err != nil {
			return nil, err
		}
		if cnt[0] > h.GraphDegree {
			return nil, fmt.Errorf("%w: slot %d has %d neighbors, degree is %d", ErrCorrupt, slot, cnt[0], h.GraphDegree)
		}
		if snap.Neighbors[slot], err = r.u32s(int(cnt[0]), "adjacency"); err != nil {
			return nil, err
		}
	}

	if snap.Frozen, err = r.u32s(int(h.NumFrozenPoints), "frozen slots"); err != nil {
		return nil, err
	}

	n, err := r.u32s(1, "tombstones")
	if err != nil {
		return nil, err
	}
	tb, err := r.take(int(n[0]), "tombstones")
	if err != nil {
		return nil, err
	}
	snap.Tombstones = roaring.New()
	if _, err := snap.Tombstones.ReadFrom(bytes.NewReader(tb)); err != nil {
		return nil, fmt.Errorf("%w: tombstones: %v", ErrCorrupt, err)
	}

	vb, err := r.take(int(h.Slots)*int(h.Dim)*h.DType.Size(), "vectors")
	if err != nil {
		return nil, err
	}
	snap.Vectors = vectorsFrom[T](vb)

	if r.off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing payload bytes", ErrCorrupt, len(data)-r.off)
	}
	return snap, nil
}
