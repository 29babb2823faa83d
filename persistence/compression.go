package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec of a snapshot payload.
type Compression uint8

const (
	// CompressionNone stores blocks raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression.
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses Zstandard at the default level.
	CompressionZSTD Compression = 2
)

// DefaultBlockSize is the uncompressed size of a payload block.
const DefaultBlockSize = 1 << 20

const blockHeaderSize = 8

// String returns the lower-case codec name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses a codec name.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "raw":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "zstandard":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("persistence: unknown compression %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Compression) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compression) UnmarshalText(b []byte) error {
	v, err := ParseCompression(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		out := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, out, nil)
		if err != nil {
			return nil, err
		}
		return out[:n], nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, nil
	}
}

func decompress(c Compression, src []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, err
		}
		if n != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return dst, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(src, dst[:0])
		if err != nil {
			return nil, err
		}
		if len(out) != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return out, nil
	default:
		return nil, fmt.Errorf("compressed block in a %s payload", c)
	}
}

// blockWriter buffers a payload and emits it as framed blocks.
type blockWriter struct {
	w         io.Writer
	c         Compression
	blockSize int
	buf       []byte

	raw    uint64
	blocks uint32
}

func newBlockWriter(w io.Writer, c Compression, blockSize int) *blockWriter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &blockWriter{w: w, c: c, blockSize: blockSize, buf: make([]byte, 0, blockSize)}
}

func (b *blockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n := min(b.blockSize-len(b.buf), len(p))
		b.buf = append(b.buf, p[:n]...)
		p = p[n:]
		total += n
		if len(b.buf) == b.blockSize {
			if err := b.flush(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func (b *blockWriter) flush() error {
	if len(b.buf) == 0 {
		return nil
	}
	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(b.buf)))

	body := b.buf
	if b.c != CompressionNone {
		packed, err := compress(b.c, b.buf)
		if err != nil {
			return fmt.Errorf("compress block: %w", err)
		}
		// Keep the compressed form only when it saves at least 10%.
		if len(packed) > 0 && float64(len(packed)) <= float64(len(b.buf))*0.9 {
			binary.LittleEndian.PutUint32(hdr[4:], uint32(len(packed)))
			body = packed
		}
	}
	if _, err := b.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := b.w.Write(body); err != nil {
		return err
	}
	b.raw += uint64(len(b.buf))
	b.blocks++
	b.buf = b.buf[:0]
	return nil
}

// Close flushes the final partial block.
func (b *blockWriter) Close() error { return b.flush() }

// decodeBlocks decompresses a framed payload.
func decodeBlocks(data []byte, c Compression, blocks uint32, size uint64) ([]byte, error) {
	out := make([]byte, 0, size)
	off := 0
	for i := range blocks {
		if off+blockHeaderSize > len(data) {
			return nil, fmt.Errorf("%w: block %d header truncated", ErrCorrupt, i)
		}
		raw := int(binary.LittleEndian.Uint32(data[off:]))
		stored := int(binary.LittleEndian.Uint32(data[off+4:]))
		off += blockHeaderSize
		if uint64(len(out)+raw) > size {
			return nil, fmt.Errorf("%w: block %d overruns payload", ErrCorrupt, i)
		}
		if stored == 0 {
			if off+raw > len(data) {
				return nil, fmt.Errorf("%w: block %d truncated", ErrCorrupt, i)
			}
			out = append(out, data[off:off+raw]...)
			off += raw
			continue
		}
		if off+stored > len(data) {
			return nil, fmt.Errorf("%w: block %d truncated", ErrCorrupt, i)
		}
		block, err := decompress(c, data[off:off+stored], raw)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrCorrupt, i, err)
		}
		out = append(out, block...)
		off += stored
	}
	if off != len(data) || uint64(len(out)) != size {
		return nil, fmt.Errorf("%w: payload size mismatch", ErrCorrupt)
	}
	return out, nil
}
