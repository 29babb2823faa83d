package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/vamana/blobstore"
	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/hash"
	"github.com/hupe1980/vamana/internal/resource"
	"github.com/hupe1980/vamana/internal/vamana"
)

// Save writes a snapshot of idx to the blob name. The blob only becomes
// visible once it has been written completely.
func Save[T distance.Element](ctx context.Context, store blobstore.BlobStore, name string, idx *vamana.Index[T], opts ...Option) (err error) {
	if err := checkPlatform(); err != nil {
		return err
	}
	o := applyOptions(opts)
	start := time.Now()

	if o.compactBeforeSave {
		if _, err := idx.Consolidate(ctx); err != nil {
			return fmt.Errorf("compact before save: %w", err)
		}
	}
	snap, err := idx.Export(!o.stale)
	if err != nil {
		return err
	}

	wb, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = blobstore.Abort(wb)
		}
	}()

	w := resource.NewWriter(ctx, wb, o.rc)
	hdr := newHeader(snap, o.compression)
	if _, err := w.Write(hdr.marshal()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	hw := hash.NewWriter(w)
	bw := newBlockWriter(hw, o.compression, o.blockSize)
	if err := encodePayload(bw, snap); err != nil {
		return err
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("flush payload: %w", err)
	}

	ftr := &Footer{
		PayloadSize: bw.raw,
		StoredSize:  uint64(hw.Count()),
		Blocks:      bw.blocks,
		CRC:         hw.Sum32(),
		Magic:       footerMagic,
	}
	if _, err := w.Write(ftr.marshal()); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	if err := wb.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := wb.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	o.logger.LogAttrs(ctx, slog.LevelInfo, "snapshot saved",
		slog.String("name", name),
		slog.Int("live", int(hdr.Live)),
		slog.Int("tombstoned", int(hdr.Tombstoned)),
		slog.Uint64("payload_bytes", ftr.PayloadSize),
		slog.Uint64("stored_bytes", ftr.StoredSize),
		slog.String("compression", o.compression.String()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Load reads the snapshot name and rebuilds the index. T must match the
// element type the snapshot was written with.
func Load[T distance.Element](ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*vamana.Index[T], error) {
	if err := checkPlatform(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	start := time.Now()

	snap, err := readSnapshot[T](ctx, store, name)
	if err != nil {
		return nil, err
	}
	idx, err := vamana.Import(snap, vamana.Deps{Logger: o.logger, Resources: o.rc})
	if err != nil {
		if errors.Is(err, vamana.ErrInvalidArgument) {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nil, err
	}
	o.logger.LogAttrs(ctx, slog.LevelInfo, "snapshot loaded",
		slog.String("name", name),
		slog.Int("points", idx.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return idx, nil
}

func readSnapshot[T distance.Element](ctx context.Context, store blobstore.BlobStore, name string) (*vamana.Snapshot[T], error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer b.Close()

	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if want := distance.DTypeOf[T](); hdr.DType != want {
		return nil, fmt.Errorf("%w: snapshot holds %s, requested %s", ErrDTypeMismatch, hdr.DType, want)
	}
	ftr, err := parseFooter(data)
	if err != nil {
		return nil, err
	}
	stored := data[headerSize : len(data)-footerSize]
	if sum := hash.CRC32C(stored); sum != ftr.CRC {
		return nil, &ChecksumMismatchError{Section: "payload", Expected: ftr.CRC, Actual: sum}
	}
	payload, err := decodeBlocks(stored, hdr.Compression, ftr.Blocks, ftr.PayloadSize)
	if err != nil {
		return nil, err
	}
	return decodePayload[T](hdr, payload)
}

// ReadHeader returns the header of a snapshot without decoding the
// payload.
func ReadHeader(ctx context.Context, store blobstore.BlobStore, name string) (*Header, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer b.Close()

	buf := make([]byte, headerSize)
	if _, err := b.ReadAt(ctx, buf, 0); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorrupt, err)
	}
	return parseHeader(buf)
}

// Info summarizes a snapshot blob.
type Info struct {
	Header *Header
	Footer *Footer
	Size   int64
}

// Inspect reads the header and footer of a snapshot and verifies the
// payload checksum.
func Inspect(ctx context.Context, store blobstore.BlobStore, name string) (*Info, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer b.Close()

	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	ftr, err := parseFooter(data)
	if err != nil {
		return nil, err
	}
	if sum := hash.CRC32C(data[headerSize : len(data)-footerSize]); sum != ftr.CRC {
		return nil, &ChecksumMismatchError{Section: "payload", Expected: ftr.CRC, Actual: sum}
	}
	return &Info{Header: hdr, Footer: ftr, Size: int64(len(data))}, nil
}
