package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)
	ctx := t.Context()

	name := "snapshots/0001.vmn"
	data := []byte("hello world, this is a snapshot blob")

	w, err := store.Create(ctx, name)
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Sync())

	// Not visible until Close.
	_, err = store.Open(ctx, name)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(root, "snapshots", "0001.vmn"))
	require.NoError(t, err)

	b, err := store.Open(ctx, name)
	require.NoError(t, err)
	defer b.Close()
	require.Equal(t, int64(len(data)), b.Size())

	buf := make([]byte, 5)
	n, err = b.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	rc, err := b.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "this", string(got))

	all, err := ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	require.NoError(t, store.Put(ctx, CurrentName, []byte(name)))
	cur, err := ReadString(ctx, store, CurrentName)
	require.NoError(t, err)
	assert.Equal(t, name, cur)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{CurrentName, name}, names)

	names, err = store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)

	require.NoError(t, store.Delete(ctx, name))
	require.NoError(t, store.Delete(ctx, name))
	_, err = store.Open(ctx, name)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_ReadRangeBoundaries(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := t.Context()
	require.NoError(t, store.Put(ctx, "b", []byte("0123456789")))

	b, err := store.Open(ctx, "b")
	require.NoError(t, err)
	defer b.Close()

	tests := []struct {
		name      string
		off, size int64
		want      string
	}{
		{"Full", 0, 10, "0123456789"},
		{"PastEnd", 8, 5, "89"},
		{"OffsetPastEOF", 20, 5, ""},
		{"ZeroLength", 3, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := b.ReadRange(ctx, tt.off, tt.size)
			require.NoError(t, err)
			defer rc.Close()
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_OpenCancelled(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(t.Context(), "b", []byte("x")))
	b, err := store.Open(t.Context(), "b")
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = b.ReadAt(ctx, make([]byte, 1), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStore_Abort(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)
	ctx := t.Context()

	w, err := store.Create(ctx, "partial.vmn")
	require.NoError(t, err)
	_, err = w.Write([]byte("half"))
	require.NoError(t, err)
	require.NoError(t, Abort(w))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
