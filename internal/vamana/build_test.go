package vamana

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vamana/testutil"
)

func TestBuild(t *testing.T) {
	x := newTestIndex(t, testParams(8, 2000))
	data := buildRandom(t, x, 1500, 1)

	assert.Equal(t, 1500, x.Len())
	checkGraph(t, x, true)

	// The first frozen point is the batch vector closest to the centroid.
	f := x.g.Frozen()[0]
	fv := x.store.Vector(f)
	assert.Contains(t, data, fv)

	for i, v := range data[:200] {
		res, err := x.Search(t.Context(), v, 1, 32)
		require.NoError(t, err)
		assert.Equal(t, []uint32{uint32(i + 1)}, res.IDs)
	}
}

func TestBuild_MultipleFrozenPoints(t *testing.T) {
	p := testParams(4, 500)
	p.NumFrozenPoints = 3
	x := newTestIndex(t, p)
	buildRandom(t, x, 400, 2)

	assert.Len(t, x.g.Frozen(), 3)
	for _, f := range x.g.Frozen() {
		assert.NotEmpty(t, x.g.Neighbors(f))
	}
	checkGraph(t, x, true)
}

func TestBuild_Validation(t *testing.T) {
	x := newTestIndex(t, testParams(2, 3))
	ctx := t.Context()

	assert.ErrorIs(t, x.Build(ctx, [][]float32{{1, 1}}, nil), ErrInvalidArgument)
	assert.ErrorIs(t, x.Build(ctx, nil, nil), ErrInvalidArgument)
	assert.ErrorIs(t, x.Build(ctx, [][]float32{{1}}, []uint32{1}), ErrInvalidArgument)
	assert.ErrorIs(t, x.Build(ctx, [][]float32{{1, 1}, {2, 2}}, []uint32{4, 4}), ErrDuplicateID)
	assert.ErrorIs(t, x.Build(ctx, make([][]float32, 4), testutil.SequentialIDs(4)), ErrCapacityExceeded)
	assert.ErrorIs(t, x.Build(ctx, [][]float32{{1, 1}, {2, 2}}, []uint32{0, 1}), ErrInvalidArgument)
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, 3, x.store.FreeCount())

	require.NoError(t, x.Build(ctx, [][]float32{{1, 1}}, []uint32{1}))
	assert.ErrorIs(t, x.Build(ctx, [][]float32{{2, 2}}, []uint32{2}), ErrInvalidArgument)
}

func TestBuild_Cancelled(t *testing.T) {
	x := newTestIndex(t, testParams(4, 100))
	data := testutil.NewRNG(3).UniformVectors(100, 4)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err := x.Build(ctx, data, testutil.SequentialIDs(100))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, x.Len())
	checkGraph(t, x, true)
}

func TestBuild_ConcurrentInsert(t *testing.T) {
	data := testutil.NewRNG(27).UniformVectors(301, 6)

	for range 10 {
		x := newTestIndex(t, testParams(6, 400))

		var (
			wg        sync.WaitGroup
			buildErr  error
			insertErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			buildErr = x.Build(t.Context(), data[:300], testutil.SequentialIDs(300))
		}()
		go func() {
			defer wg.Done()
			insertErr = x.Insert(t.Context(), data[300], 1000)
		}()
		wg.Wait()

		// Either the insert ran first and the build was refused, or the
		// build bound its whole batch before the insert.
		require.NoError(t, insertErr)
		if buildErr != nil {
			assert.ErrorIs(t, buildErr, ErrInvalidArgument)
			assert.Equal(t, 1, x.Len())
		} else {
			assert.Equal(t, 301, x.Len())
		}
		checkGraph(t, x, true)
	}
}
