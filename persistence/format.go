package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/hash"
	"github.com/hupe1980/vamana/internal/vamana"
)

// FormatVersion is the snapshot format written by this package.
const FormatVersion = 1

var (
	headerMagic = [4]byte{'V', 'M', 'N', '1'}
	footerMagic = [4]byte{'V', 'M', 'N', 'E'}
)

var (
	// ErrInvalidMagic is returned for blobs that are not snapshots.
	ErrInvalidMagic = errors.New("persistence: invalid magic")
	// ErrUnsupportedVersion is returned for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("persistence: unsupported format version")
	// ErrCorrupt is returned for truncated or inconsistent snapshots.
	ErrCorrupt = errors.New("persistence: corrupt snapshot")
	// ErrDTypeMismatch is returned when a snapshot is loaded with the wrong
	// element type.
	ErrDTypeMismatch = errors.New("persistence: element type mismatch")
)

// ChecksumMismatchError reports a failed CRC32C verification. It matches
// ErrCorrupt with errors.Is.
type ChecksumMismatchError struct {
	Section  string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("persistence: %s checksum mismatch: expected 0x%08x, got 0x%08x", e.Section, e.Expected, e.Actual)
}

// Is reports whether target is ErrCorrupt.
func (e *ChecksumMismatchError) Is(target error) bool { return target == ErrCorrupt }

const (
	flagSaturate uint8 = 1 << iota
	flagConcurrentConsolidation
	flagSeeded
)

// Header is the fixed-size record at the start of a snapshot.
type Header struct {
	Magic                   [4]byte
	Version                 uint16
	DType                   distance.DType
	Metric                  uint8
	Compression             Compression
	Flags                   uint8
	_                       [2]byte
	Dim                     uint32
	GraphDegree             uint32
	Complexity              uint32
	InsertComplexity        uint32
	Alpha                   float32
	MaxOcclusionSize        uint32
	MaxPoints               uint32
	NumFrozenPoints         uint32
	Slots                   uint32
	NumThreads              uint32
	SearchThreads           uint32
	InitialSearchComplexity uint32
	Seed                    uint64
	Live                    uint32
	Tombstoned              uint32
	CRC                     uint32
}

// Footer closes a snapshot.
type Footer struct {
	PayloadSize uint64
	StoredSize  uint64
	Blocks      uint32
	CRC         uint32
	Magic       [4]byte
}

var (
	headerSize = binary.Size(Header{})
	footerSize = binary.Size(Footer{})
)

// Params returns the index parameters recorded in the header.
func (h *Header) Params() vamana.Params {
	return vamana.Params{
		Dim:                     int(h.Dim),
		MaxPoints:               int(h.MaxPoints),
		Metric:                  distance.Metric(h.Metric),
		GraphDegree:             int(h.GraphDegree),
		Complexity:              int(h.Complexity),
		InsertComplexity:        int(h.InsertComplexity),
		Alpha:                   h.Alpha,
		MaxOcclusionSize:        int(h.MaxOcclusionSize),
		SaturateGraph:           h.Flags&flagSaturate != 0,
		NumFrozenPoints:         int(h.NumFrozenPoints),
		NumThreads:              int(h.NumThreads),
		SearchThreads:           int(h.SearchThreads),
		InitialSearchComplexity: int(h.InitialSearchComplexity),
		ConcurrentConsolidation: h.Flags&flagConcurrentConsolidation != 0,
		Seed:                    h.Seed,
	}
}

// Seeded reports whether the frozen points carry real vectors.
func (h *Header) Seeded() bool { return h.Flags&flagSeeded != 0 }

func newHeader[T distance.Element](snap *vamana.Snapshot[T], c Compression) *Header {
	p := snap.Params
	h := &Header{
		Magic:                   headerMagic,
		Version:                 FormatVersion,
		DType:                   distance.DTypeOf[T](),
		Metric:                  uint8(p.Metric),
		Compression:             c,
		Dim:                     uint32(p.Dim),
		GraphDegree:             uint32(p.GraphDegree),
		Complexity:              uint32(p.Complexity),
		InsertComplexity:        uint32(p.InsertComplexity),
		Alpha:                   p.Alpha,
		MaxOcclusionSize:        uint32(p.MaxOcclusionSize),
		MaxPoints:               uint32(p.MaxPoints),
		NumFrozenPoints:         uint32(len(snap.Frozen)),
		Slots:                   uint32(len(snap.Neighbors)),
		NumThreads:              uint32(p.NumThreads),
		SearchThreads:           uint32(p.SearchThreads),
		InitialSearchComplexity: uint32(p.InitialSearchComplexity),
		Seed:                    p.Seed,
	}
	if p.SaturateGraph {
		h.Flags |= flagSaturate
	}
	if p.ConcurrentConsolidation {
		h.Flags |= flagConcurrentConsolidation
	}
	if snap.Seeded {
		h.Flags |= flagSeeded
	}
	for _, id := range snap.IDs {
		if id != 0 {
			h.Live++
		}
	}
	if snap.Tombstones != nil {
		h.Tombstoned = uint32(snap.Tombstones.GetCardinality())
		h.Live -= h.Tombstoned
	}
	return h
}

// marshal encodes h and fills in its CRC.
func (h *Header) marshal() []byte {
	h.CRC = 0
	var buf bytes.Buffer
	buf.Grow(headerSize)
	_ = binary.Write(&buf, binary.LittleEndian, h)
	b := buf.Bytes()
	h.CRC = hash.CRC32C(b[:headerSize-4])
	binary.LittleEndian.PutUint32(b[headerSize-4:], h.CRC)
	return b
}

func parseHeader(data []byte) (*Header, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	var h Header
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if h.Magic != headerMagic {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, h.Magic[:])
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if sum := hash.CRC32C(data[:headerSize-4]); sum != h.CRC {
		return nil, &ChecksumMismatchError{Section: "header", Expected: h.CRC, Actual: sum}
	}
	if h.DType.Size() == 0 {
		return nil, fmt.Errorf("%w: unknown element type %d", ErrCorrupt, h.DType)
	}
	if h.Slots != h.MaxPoints+h.NumFrozenPoints {
		return nil, fmt.Errorf("%w: %d slots for %d points and %d frozen", ErrCorrupt, h.Slots, h.MaxPoints, h.NumFrozenPoints)
	}
	return &h, nil
}

func (f *Footer) marshal() []byte {
	var buf bytes.Buffer
	buf.Grow(footerSize)
	_ = binary.Write(&buf, binary.LittleEndian, f)
	return buf.Bytes()
}

func parseFooter(data []byte) (*Footer, error) {
	if len(data) < headerSize+footerSize {
		return nil, fmt.Errorf("%w: missing footer", ErrCorrupt)
	}
	var f Footer
	if err := binary.Read(bytes.NewReader(data[len(data)-footerSize:]), binary.LittleEndian, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if f.Magic != footerMagic {
		return nil, fmt.Errorf("%w: bad footer magic %q", ErrCorrupt, f.Magic[:])
	}
	if want := uint64(len(data) - headerSize - footerSize); f.StoredSize != want {
		return nil, fmt.Errorf("%w: footer claims %d payload bytes, blob has %d", ErrCorrupt, f.StoredSize, want)
	}
	return &f, nil
}
