package vamana

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vamana/testutil"
)

func TestInsert_SelfRecall(t *testing.T) {
	x := newTestIndex(t, testParams(8, 1000))
	data := testutil.NewRNG(11).UniformVectors(1000, 8)

	for i, v := range data {
		require.NoError(t, x.Insert(t.Context(), v, uint32(i+1)))
	}
	checkGraph(t, x, true)

	for i, v := range data {
		res, err := x.Search(t.Context(), v, 1, 64)
		require.NoError(t, err)
		require.Equal(t, []uint32{uint32(i + 1)}, res.IDs, "query %d", i+1)
	}
}

func TestInsert_FirstPointSeedsFrozen(t *testing.T) {
	p := testParams(2, 10)
	p.NumFrozenPoints = 2
	x := newTestIndex(t, p)

	require.NoError(t, x.Insert(t.Context(), []float32{3, 4}, 1))
	for _, f := range x.g.Frozen() {
		assert.Equal(t, []float32{3, 4}, x.store.Vector(f))
		assert.Contains(t, x.g.Neighbors(f), uint32(0))
	}

	res, err := x.Search(t.Context(), []float32{0, 0}, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, res.IDs)
	assert.InDelta(t, 25, res.Distances[0], 1e-6)
}

func TestInsert_Capacity(t *testing.T) {
	const maxPoints = 20
	x := newTestIndex(t, testParams(4, maxPoints))
	data := testutil.NewRNG(5).UniformVectors(maxPoints+1, 4)

	for i := range maxPoints {
		require.NoError(t, x.Insert(t.Context(), data[i], uint32(i+1)))
	}
	err := x.Insert(t.Context(), data[maxPoints], maxPoints+1)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, maxPoints, x.Len())
	checkGraph(t, x, true)
}

func TestInsert_DuplicateID(t *testing.T) {
	x := newTestIndex(t, testParams(2, 10))
	require.NoError(t, x.Insert(t.Context(), []float32{1, 1}, 5))

	assert.ErrorIs(t, x.Insert(t.Context(), []float32{2, 2}, 5), ErrDuplicateID)

	// Tombstoned IDs stay reserved until consolidation reclaims them.
	require.NoError(t, x.MarkDeleted(5))
	assert.ErrorIs(t, x.Insert(t.Context(), []float32{2, 2}, 5), ErrDuplicateID)

	_, err := x.Consolidate(t.Context())
	require.NoError(t, err)
	require.NoError(t, x.Insert(t.Context(), []float32{2, 2}, 5))

	v, ok := x.Vector(5)
	require.True(t, ok)
	assert.Equal(t, []float32{2, 2}, v)
}

func TestInsert_InvalidInput(t *testing.T) {
	x := newTestIndex(t, testParams(2, 10))

	var dm *ErrDimensionMismatch
	err := x.Insert(t.Context(), []float32{1}, 1)
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 1, dm.Actual)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.ErrorIs(t, x.Insert(t.Context(), []float32{1, 2}, 0), ErrInvalidArgument)
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, 10, x.store.FreeCount())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, x.Insert(ctx, []float32{1, 2}, 1), context.Canceled)
}

func TestBatchInsert(t *testing.T) {
	x := newTestIndex(t, testParams(4, 500))
	data := testutil.NewRNG(9).UniformVectors(400, 4)
	ids := testutil.SequentialIDs(400)
	ids[10] = ids[9] // one duplicate inside the batch
	data[20] = data[20][:3]

	errs, err := x.BatchInsert(t.Context(), data, ids, 8)
	require.NoError(t, err)
	require.Len(t, errs, 400)

	failed := 0
	for i, e := range errs {
		if e == nil {
			continue
		}
		failed++
		if i == 20 {
			assert.ErrorIs(t, e, ErrInvalidArgument)
		} else {
			assert.ErrorIs(t, e, ErrDuplicateID)
			assert.Contains(t, []int{9, 10}, i)
		}
	}
	assert.Equal(t, 2, failed)
	assert.Equal(t, 398, x.Len())
	checkGraph(t, x, true)

	_, err = x.BatchInsert(t.Context(), data, ids[:3], 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBatchInsert_Cancelled(t *testing.T) {
	x := newTestIndex(t, testParams(4, 100))
	data := testutil.NewRNG(9).UniformVectors(50, 4)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	errs, err := x.BatchInsert(ctx, data, testutil.SequentialIDs(50), 2)
	require.NoError(t, err)
	for _, e := range errs {
		assert.ErrorIs(t, e, context.Canceled)
	}
	assert.Equal(t, 0, x.Len())
}

func TestInsert_Concurrent(t *testing.T) {
	x := newTestIndex(t, testParams(8, 2000))
	data := testutil.NewRNG(21).UniformVectors(2000, 8)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := w; i < len(data); i += 8 {
				assert.NoError(t, x.Insert(t.Context(), data[i], uint32(i+1)))
			}
		}()
	}

	// Searches run alongside the inserts.
	for range 200 {
		_, err := x.Search(t.Context(), data[0], 5, 16)
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, 2000, x.Len())
	checkGraph(t, x, true)
}

func TestSearch_BeforeFirstInsert(t *testing.T) {
	x := newTestIndex(t, testParams(4, 10))

	res, err := x.Search(t.Context(), []float32{1, 2, 3, 4}, 3, 8)
	require.NoError(t, err)
	assert.Empty(t, res.IDs)
	assert.Zero(t, res.Visited)
}

func TestInsert_FirstInsertWithConcurrentSearch(t *testing.T) {
	data := testutil.NewRNG(31).UniformVectors(4, 8)

	for range 20 {
		x := newTestIndex(t, testParams(8, 10))

		done := make(chan struct{})
		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
					}
					res, err := x.Search(t.Context(), data[3], 1, 8)
					if !assert.NoError(t, err) {
						return
					}
					assert.LessOrEqual(t, len(res.IDs), 1)
				}
			}()
		}

		require.NoError(t, x.Insert(t.Context(), data[0], 1))
		close(done)
		wg.Wait()

		res, err := x.Search(t.Context(), data[0], 1, 8)
		require.NoError(t, err)
		assert.Equal(t, []uint32{1}, res.IDs)
	}
}
