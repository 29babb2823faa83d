package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the cache granularity used when none is given.
const DefaultBlockSize = 64 << 10

type blockKey struct {
	name  string
	block int64
}

// CacheStats reports block cache effectiveness.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Blocks    int
}

// CachingStore wraps a BlobStore and caches fixed-size read blocks in an
// LRU. Writes pass through and invalidate the blocks of the written name.
type CachingStore struct {
	inner     BlobStore
	cache     *lru.Cache[blockKey, []byte]
	blockSize int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewCachingStore caches up to maxBlocks blocks of blockSize bytes.
// blockSize defaults to DefaultBlockSize when <= 0.
func NewCachingStore(inner BlobStore, maxBlocks int, blockSize int64) (*CachingStore, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	s := &CachingStore{inner: inner, blockSize: blockSize}
	c, err := lru.NewWithEvict[blockKey, []byte](maxBlocks, func(blockKey, []byte) {
		s.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore: block cache: %w", err)
	}
	s.cache = c
	return s, nil
}

// Stats returns cache counters.
func (s *CachingStore) Stats() CacheStats {
	return CacheStats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
		Blocks:    s.cache.Len(),
	}
}

// Open opens the inner blob and wraps it with the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{inner: b, store: s, name: name}, nil
}

// Create passes through. The name is invalidated when the blob is opened
// for writing since its content is about to change.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

// Put invalidates cached blocks of name and writes through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete invalidates cached blocks of name and deletes through.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	for _, k := range s.cache.Keys() {
		if k.name == name {
			s.cache.Remove(k)
		}
	}
}

type cachingBlob struct {
	inner Blob
	store *CachingStore
	name  string
}

func (b *cachingBlob) Close() error { return b.inner.Close() }

func (b *cachingBlob) Size() int64 { return b.inner.Size() }

func (b *cachingBlob) key(block int64) blockKey {
	return blockKey{name: b.name, block: block}
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size := b.Size()
	if off < 0 || off >= size {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	bs := b.store.blockSize
	end := min(off+int64(len(p)), size)
	first, last := off/bs, (end-1)/bs

	if err := b.fill(ctx, first, last); err != nil {
		return 0, err
	}

	n := 0
	for blk := first; blk <= last; blk++ {
		data, err := b.block(ctx, blk)
		if err != nil {
			return n, err
		}
		start := blk * bs
		lo := max(start, off) - start
		hi := min(start+int64(len(data)), end) - start
		if hi <= lo {
			break
		}
		n += copy(p[start+lo-off:], data[lo:hi])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// fill loads missing blocks in [first, last], reading each contiguous run
// of misses with a single backend request.
func (b *cachingBlob) fill(ctx context.Context, first, last int64) error {
	type run struct{ start, count int64 }
	var runs []run
	for blk := first; blk <= last; blk++ {
		if b.store.cache.Contains(b.key(blk)) {
			b.store.hits.Add(1)
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].count == blk {
			runs[n-1].count++
		} else {
			runs = append(runs, run{start: blk, count: 1})
		}
	}
	if len(runs) == 0 {
		return nil
	}

	bs := b.store.blockSize
	size := b.Size()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, r := range runs {
		g.Go(func() error {
			start := r.start * bs
			length := min(r.count*bs, size-start)
			buf := make([]byte, length)
			n, err := b.inner.ReadAt(gctx, buf, start)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]
			b.store.misses.Add(uint64(r.count))
			for i := int64(0); i < r.count && i*bs < int64(len(buf)); i++ {
				lo := i * bs
				hi := min(lo+bs, int64(len(buf)))
				// Copy so each cached block does not pin the whole run.
				b.store.cache.Add(b.key(r.start+i), append([]byte(nil), buf[lo:hi]...))
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *cachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.store.cache.Get(b.key(blk)); ok {
		return data, nil
	}
	// Evicted between fill and use.
	bs := b.store.blockSize
	start := blk * bs
	buf := make([]byte, min(bs, b.Size()-start))
	n, err := b.inner.ReadAt(ctx, buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	b.store.misses.Add(1)
	buf = buf[:n]
	b.store.cache.Add(b.key(blk), buf)
	return buf, nil
}

func (b *cachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 {
		off = 0
	}
	end := min(off+max(length, 0), b.Size())
	return io.NopCloser(&blobReader{ctx: ctx, blob: b, off: off, limit: end}), nil
}

// blobReader adapts a context-aware ReadAt to io.Reader.
type blobReader struct {
	ctx   context.Context
	blob  Blob
	off   int64
	limit int64
}

func (r *blobReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if rem := r.limit - r.off; int64(len(p)) > rem {
		p = p[:rem]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
