package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vamana/blobstore"
	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/vamana"
	"github.com/hupe1980/vamana/testutil"
)

func testParams(dim, maxPoints int) vamana.Params {
	return vamana.Params{
		Dim:                     dim,
		MaxPoints:               maxPoints,
		Metric:                  distance.MetricL2,
		GraphDegree:             16,
		Complexity:              32,
		Alpha:                   1.2,
		ConcurrentConsolidation: true,
		NumThreads:              4,
	}
}

func buildIndex(t *testing.T, n int, deleted int) (*vamana.Index[float32], [][]float32) {
	t.Helper()
	x, err := vamana.New[float32](testParams(8, n+50), vamana.Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })

	data := testutil.NewRNG(7).UniformVectors(n, 8)
	require.NoError(t, x.Build(t.Context(), data, testutil.SequentialIDs(n)))
	for id := uint32(1); id <= uint32(deleted); id++ {
		require.NoError(t, x.MarkDeleted(id))
	}
	return x, data
}

func assertSameResults(t *testing.T, want, got *vamana.Index[float32], queries [][]float32) {
	t.Helper()
	for _, q := range queries {
		a, err := want.Search(t.Context(), q, 10, 32)
		require.NoError(t, err)
		b, err := got.Search(t.Context(), q, 10, 32)
		require.NoError(t, err)
		assert.Equal(t, a.IDs, b.IDs)
		assert.Equal(t, a.Distances, b.Distances)
	}
}

func TestSaveLoad_Compression(t *testing.T) {
	x, data := buildIndex(t, 400, 25)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			// Small blocks force a multi-block payload.
			require.NoError(t, Save(t.Context(), store, "idx.vmn", x, WithCompression(c), WithBlockSize(4096)))

			info, err := Inspect(t.Context(), store, "idx.vmn")
			require.NoError(t, err)
			assert.Equal(t, c, info.Header.Compression)
			assert.Equal(t, uint32(375), info.Header.Live)
			assert.Equal(t, uint32(25), info.Header.Tombstoned)
			assert.Greater(t, info.Footer.Blocks, uint32(1))

			y, err := Load[float32](t.Context(), store, "idx.vmn")
			require.NoError(t, err)
			t.Cleanup(func() { _ = y.Close() })

			assert.Equal(t, x.Len(), y.Len())
			assert.Equal(t, x.Params(), y.Params())
			assert.Equal(t, x.Stats().Graph, y.Stats().Graph)
			assertSameResults(t, x, y, data[:10])
		})
	}
}

func TestSaveLoad_LocalStore(t *testing.T) {
	x, data := buildIndex(t, 200, 0)
	store := blobstore.NewLocalStore(t.TempDir())

	require.NoError(t, Save(t.Context(), store, "snapshots/a.vmn", x, WithCompression(CompressionZSTD)))
	y, err := Load[float32](t.Context(), store, "snapshots/a.vmn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = y.Close() })
	assertSameResults(t, x, y, data[:5])

	hdr, err := ReadHeader(t.Context(), store, "snapshots/a.vmn")
	require.NoError(t, err)
	assert.Equal(t, distance.DTypeFloat32, hdr.DType)
	assert.Equal(t, uint32(8), hdr.Dim)
	assert.True(t, hdr.Seeded())
	assert.InDelta(t, 1.2, hdr.Alpha, 1e-6)
}

func TestSave_CompactBeforeSave(t *testing.T) {
	x, _ := buildIndex(t, 300, 40)
	store := blobstore.NewMemoryStore()

	require.NoError(t, Save(t.Context(), store, "c.vmn", x, WithCompactBeforeSave()))
	info, err := Inspect(t.Context(), store, "c.vmn")
	require.NoError(t, err)
	assert.Zero(t, info.Header.Tombstoned)
	assert.Equal(t, uint32(260), info.Header.Live)

	y, err := Load[float32](t.Context(), store, "c.vmn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = y.Close() })
	assert.Equal(t, 260, y.Len())
	assert.False(t, y.Contains(1))
	assert.True(t, y.Contains(41))
}

func TestSave_Stale(t *testing.T) {
	x, data := buildIndex(t, 150, 0)
	store := blobstore.NewMemoryStore()
	require.NoError(t, Save(t.Context(), store, "s.vmn", x, WithStaleSnapshot()))

	y, err := Load[float32](t.Context(), store, "s.vmn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = y.Close() })
	assertSameResults(t, x, y, data[:5])
}

func TestSaveLoad_Int8(t *testing.T) {
	p := testParams(6, 120)
	x, err := vamana.New[int8](p, vamana.Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })
	data := testutil.NewRNG(3).Int8Vectors(100, 6)
	require.NoError(t, x.Build(t.Context(), data, testutil.SequentialIDs(100)))

	store := blobstore.NewMemoryStore()
	require.NoError(t, Save(t.Context(), store, "i8.vmn", x))

	y, err := Load[int8](t.Context(), store, "i8.vmn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = y.Close() })
	v, ok := y.Vector(17)
	require.True(t, ok)
	assert.Equal(t, data[16], v)

	_, err = Load[float32](t.Context(), store, "i8.vmn")
	assert.ErrorIs(t, err, ErrDTypeMismatch)
}

func TestSaveLoad_EmptyIndex(t *testing.T) {
	x, err := vamana.New[float32](testParams(4, 10), vamana.Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })

	store := blobstore.NewMemoryStore()
	require.NoError(t, Save(t.Context(), store, "e.vmn", x))
	y, err := Load[float32](t.Context(), store, "e.vmn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = y.Close() })
	assert.Zero(t, y.Len())
	require.NoError(t, y.Insert(t.Context(), []float32{1, 2, 3, 4}, 9))
	assert.True(t, y.Contains(9))
}

func TestLoad_Corruption(t *testing.T) {
	x, _ := buildIndex(t, 100, 0)
	store := blobstore.NewMemoryStore()
	require.NoError(t, Save(t.Context(), store, "ok.vmn", x, WithCompression(CompressionNone)))
	good := readBlob(t, store, "ok.vmn")

	mutate := func(f func([]byte) []byte) string {
		b := f(append([]byte(nil), good...))
		require.NoError(t, store.Put(t.Context(), "bad.vmn", b))
		return "bad.vmn"
	}

	tests := []struct {
		name string
		edit func([]byte) []byte
		want error
	}{
		{"Magic", func(b []byte) []byte { b[0] = 'X'; return b }, ErrInvalidMagic},
		{"Version", func(b []byte) []byte { b[4] = 9; return b }, ErrUnsupportedVersion},
		{"HeaderBit", func(b []byte) []byte { b[12] ^= 0xff; return b }, ErrCorrupt},
		{"PayloadBit", func(b []byte) []byte { b[headerSize+20] ^= 0x01; return b }, ErrCorrupt},
		{"Truncated", func(b []byte) []byte { return b[:len(b)-10] }, ErrCorrupt},
		{"TooShort", func(b []byte) []byte { return b[:10] }, ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load[float32](t.Context(), store, mutate(tt.edit))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("ChecksumError", func(t *testing.T) {
		_, err := Load[float32](t.Context(), store, mutate(func(b []byte) []byte {
			b[headerSize+20] ^= 0x01
			return b
		}))
		var cm *ChecksumMismatchError
		require.True(t, errors.As(err, &cm))
		assert.Equal(t, "payload", cm.Section)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Load[float32](t.Context(), store, "nope.vmn")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

// failingStore fails every write after limit bytes.
type failingStore struct {
	*blobstore.MemoryStore
	limit int
}

type failingWriter struct {
	blobstore.WritableBlob
	left int
}

func (f *failingStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	w, err := f.MemoryStore.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &failingWriter{WritableBlob: w, left: f.limit}, nil
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if len(p) > w.left {
		return 0, errors.New("disk full")
	}
	w.left -= len(p)
	return w.WritableBlob.Write(p)
}

func (w *failingWriter) Abort() error { return blobstore.Abort(w.WritableBlob) }

func TestSave_AbortOnError(t *testing.T) {
	x, _ := buildIndex(t, 200, 0)
	store := &failingStore{MemoryStore: blobstore.NewMemoryStore(), limit: 1024}

	err := Save(t.Context(), store, "never.vmn", x, WithBlockSize(512))
	require.ErrorContains(t, err, "disk full")

	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSave_ClosedIndex(t *testing.T) {
	x, err := vamana.New[float32](testParams(4, 10), vamana.Deps{})
	require.NoError(t, err)
	require.NoError(t, x.Close())

	err = Save(t.Context(), blobstore.NewMemoryStore(), "x.vmn", x)
	assert.ErrorIs(t, err, vamana.ErrClosed)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("brotli")
	assert.Error(t, err)

	var c Compression
	require.NoError(t, c.UnmarshalText([]byte("ZSTD")))
	assert.Equal(t, CompressionZSTD, c)
}

func readBlob(t *testing.T, s blobstore.BlobStore, name string) []byte {
	t.Helper()
	b, err := s.Open(t.Context(), name)
	require.NoError(t, err)
	defer b.Close()
	data, err := blobstore.ReadAll(t.Context(), b)
	require.NoError(t, err)
	return append([]byte(nil), data...)
}
