package vamana

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/testutil"
)

func TestMarkDeleted_ExcludedFromResults(t *testing.T) {
	x := newTestIndex(t, testParams(4, 300))
	data := buildRandom(t, x, 300, 31)

	deleted := map[uint32]bool{}
	for id := uint32(1); id <= 300; id += 3 {
		require.NoError(t, x.MarkDeleted(id))
		deleted[id] = true
	}

	for _, k := range []int{1, 5, 50} {
		for _, l := range []int{1, 10, 100} {
			batch, err := x.BatchSearch(t.Context(), data[:30], k, l, 2)
			require.NoError(t, err)
			for _, row := range batch.IDs {
				for _, id := range row {
					assert.False(t, deleted[id], "deleted id %d returned (k=%d, l=%d)", id, k, l)
				}
			}
		}
	}

	// Deleting a vector must not hide its live neighbors.
	res, err := x.Search(t.Context(), data[0], 1, 32)
	require.NoError(t, err)
	require.Len(t, res.IDs, 1)
	assert.NotEqual(t, uint32(1), res.IDs[0])
}

func TestMarkDeleted_NotFound(t *testing.T) {
	x := newTestIndex(t, testParams(2, 10))
	require.NoError(t, x.Insert(t.Context(), []float32{1, 1}, 1))

	assert.ErrorIs(t, x.MarkDeleted(2), ErrNotFound)
	require.NoError(t, x.MarkDeleted(1))
	assert.ErrorIs(t, x.MarkDeleted(1), ErrNotFound)
}

func TestMarkDeleted_Concurrent(t *testing.T) {
	x := newTestIndex(t, testParams(4, 200))
	buildRandom(t, x, 200, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := uint32(1); id <= 200; id++ {
				if x.MarkDeleted(id) == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, wins)
	assert.Equal(t, 200, x.Stats().Graph.Tombstoned)
	assert.Equal(t, graph.Tombstoned, x.g.State(0))
}

func TestDeleteAll_ThenReinsert(t *testing.T) {
	x := newTestIndex(t, testParams(4, 50))
	data := testutil.NewRNG(8).UniformVectors(50, 4)
	require.NoError(t, x.Build(t.Context(), data, testutil.SequentialIDs(50)))

	for id := uint32(1); id <= 50; id++ {
		require.NoError(t, x.MarkDeleted(id))
	}
	rep, err := x.Consolidate(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 50, rep.Reclaimed)
	assert.Equal(t, 0, x.Len())
	assert.Empty(t, x.g.Neighbors(x.g.Frozen()[0]))

	res, err := x.Search(t.Context(), data[0], 5, 10)
	require.NoError(t, err)
	assert.Empty(t, res.IDs)

	for i, v := range data {
		require.NoError(t, x.Insert(t.Context(), v, uint32(100+i)))
	}
	checkGraph(t, x, true)
	res, err = x.Search(t.Context(), data[7], 1, 32)
	require.NoError(t, err)
	assert.Equal(t, []uint32{107}, res.IDs)
}
