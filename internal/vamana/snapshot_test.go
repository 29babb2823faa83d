package vamana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/testutil"
)

func TestExportImport_RoundTrip(t *testing.T) {
	x := newTestIndex(t, testParams(8, 600))
	data := buildRandom(t, x, 500, 11)
	for id := uint32(1); id <= 50; id++ {
		require.NoError(t, x.MarkDeleted(id))
	}

	snap, err := x.Export(true)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), snap.Tombstones.GetCardinality())
	assert.True(t, snap.Seeded)

	y, err := Import(snap, Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = y.Close() })

	assert.Equal(t, x.Len(), y.Len())
	assert.Equal(t, x.g.Stats(), y.g.Stats())
	checkGraph(t, y, false)

	for _, q := range data[:20] {
		want, err := x.Search(t.Context(), q, 10, 32)
		require.NoError(t, err)
		got, err := y.Search(t.Context(), q, 10, 32)
		require.NoError(t, err)
		assert.Equal(t, want.IDs, got.IDs)
		assert.Equal(t, want.Distances, got.Distances)
	}

	// Tombstones survive and consolidate normally after import.
	assert.ErrorIs(t, y.MarkDeleted(1), ErrNotFound)
	rep, err := y.Consolidate(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 50, rep.Reclaimed)
	checkGraph(t, y, true)
}

func TestExport_Stale(t *testing.T) {
	x := newTestIndex(t, testParams(4, 100))
	buildRandom(t, x, 50, 3)

	snap, err := x.Export(false)
	require.NoError(t, err)

	y, err := Import(snap, Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = y.Close() })
	assert.Equal(t, 50, y.Len())

	for slot, id := range snap.IDs {
		if id == 0 {
			assert.Empty(t, snap.Neighbors[slot])
		}
	}
}

func TestExport_EmptyIndex(t *testing.T) {
	x := newTestIndex(t, testParams(4, 10))
	snap, err := x.Export(true)
	require.NoError(t, err)
	assert.False(t, snap.Seeded)

	y, err := Import(snap, Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = y.Close() })

	// The first insert after import still seeds the frozen points.
	v := testutil.NewRNG(1).UniformVectors(1, 4)[0]
	require.NoError(t, y.Insert(t.Context(), v, 7))
	res, err := y.Search(t.Context(), v, 1, 8)
	require.NoError(t, err)
	assert.Equal(t, []uint32{7}, res.IDs)
}

func TestImport_Invalid(t *testing.T) {
	x := newTestIndex(t, testParams(4, 20))
	buildRandom(t, x, 10, 5)

	fresh := func() *Snapshot[float32] {
		snap, err := x.Export(true)
		require.NoError(t, err)
		return snap
	}

	tests := []struct {
		name   string
		mutate func(s *Snapshot[float32])
	}{
		{"ShortIDs", func(s *Snapshot[float32]) { s.IDs = s.IDs[:5] }},
		{"ShortNeighbors", func(s *Snapshot[float32]) { s.Neighbors = s.Neighbors[:5] }},
		{"ShortVectors", func(s *Snapshot[float32]) { s.Vectors = s.Vectors[:5] }},
		{"WrongFrozen", func(s *Snapshot[float32]) { s.Frozen = []uint32{0} }},
		{"DuplicateID", func(s *Snapshot[float32]) { s.IDs[1] = s.IDs[0] }},
		{"LinkToFree", func(s *Snapshot[float32]) { s.Neighbors[0] = []uint32{15} }},
		{"DegreeTooLarge", func(s *Snapshot[float32]) { s.Neighbors[0] = make([]uint32, 17) }},
		{"BadParams", func(s *Snapshot[float32]) { s.Params.Dim = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := fresh()
			tt.mutate(snap)
			_, err := Import(snap, Deps{})
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestExport_Closed(t *testing.T) {
	x := newTestIndex(t, testParams(4, 10))
	require.NoError(t, x.Close())
	_, err := x.Export(true)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestImport_PreservesStates(t *testing.T) {
	x := newTestIndex(t, testParams(4, 40))
	buildRandom(t, x, 30, 9)
	require.NoError(t, x.MarkDeleted(3))

	snap, err := x.Export(true)
	require.NoError(t, err)
	y, err := Import(snap, Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = y.Close() })

	slot := y.idToSlot[3]
	assert.Equal(t, graph.Tombstoned, y.g.State(slot))
	assert.False(t, y.Contains(3))
	assert.True(t, y.Contains(4))
}
