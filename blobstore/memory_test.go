package blobstore

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	_, err := store.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	w, err := store.Create(ctx, "a/1")
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	src := []byte("xyz")
	require.NoError(t, store.Put(ctx, "b/1", src))
	src[0] = 'q'

	b, err := store.Open(ctx, "b/1")
	require.NoError(t, err)
	data, err := ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(data))

	buf := make([]byte, 4)
	n, err := b.ReadAt(ctx, buf, 1)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "yz", string(buf[:n]))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "b/1"}, names)
	names, err = store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1"}, names)

	require.NoError(t, store.Delete(ctx, "a/1"))
	_, err = store.Open(ctx, "a/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Abort(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	w, err := store.Create(ctx, "partial")
	require.NoError(t, err)
	_, err = w.Write([]byte("half"))
	require.NoError(t, err)
	require.NoError(t, Abort(w))
	require.NoError(t, w.Close())

	_, err = store.Open(ctx, "partial")
	assert.ErrorIs(t, err, ErrNotFound)
}
