package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g, err := New(10, 2, 4)
	require.NoError(t, err)

	assert.Equal(t, 12, g.Slots())
	assert.Equal(t, 10, g.MaxPoints())
	assert.Equal(t, 4, g.MaxDegree())
	assert.Equal(t, []uint32{10, 11}, g.Frozen())
	assert.True(t, g.IsFrozen(10))
	assert.False(t, g.IsFrozen(9))
	assert.Equal(t, Live, g.State(10))
	assert.Equal(t, Free, g.State(0))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(0, 1, 4)
	assert.Error(t, err)
	_, err = New(10, 0, 4)
	assert.Error(t, err)
	_, err = New(10, 1, 0)
	assert.Error(t, err)
}

func TestNeighbors(t *testing.T) {
	g, err := New(4, 1, 3)
	require.NoError(t, err)

	assert.Nil(t, g.Neighbors(0))
	e0 := g.Epoch(0)

	g.Lock(0)
	g.SetNeighbors(0, []uint32{1, 2})
	g.Unlock(0)

	assert.Equal(t, []uint32{1, 2}, g.Neighbors(0))
	assert.Equal(t, e0+1, g.Epoch(0))

	g.Lock(0)
	g.SetNeighbors(0, nil)
	g.Unlock(0)
	assert.Empty(t, g.Neighbors(0))
}

func TestStateTransitions(t *testing.T) {
	g, err := New(4, 1, 3)
	require.NoError(t, err)

	assert.True(t, g.CompareAndSwapState(1, Free, Pending))
	assert.False(t, g.CompareAndSwapState(1, Free, Pending))
	g.SetState(1, Live)
	assert.True(t, g.CompareAndSwapState(1, Live, Tombstoned))
	assert.False(t, g.CompareAndSwapState(1, Live, Tombstoned))

	bm := g.Tombstones()
	assert.Equal(t, []uint32{1}, bm.ToArray())

	g.Reset(1)
	assert.Equal(t, Free, g.State(1))
	assert.True(t, g.Tombstones().IsEmpty())
}

func TestStats(t *testing.T) {
	g, err := New(5, 1, 4)
	require.NoError(t, err)

	g.SetState(0, Live)
	g.SetNeighbors(0, []uint32{1, 2, 3})
	g.SetState(1, Live)
	g.SetNeighbors(1, []uint32{0})
	g.SetState(2, Tombstoned)
	g.SetNeighbors(2, []uint32{0, 1})
	g.SetState(3, Pending)

	st := g.Stats()
	assert.Equal(t, 2, st.Live)
	assert.Equal(t, 1, st.Tombstoned)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 1, st.Free)
	assert.Equal(t, 6, st.Edges)
	assert.Equal(t, 3, st.MaxDegree)
	assert.Equal(t, 1, st.MinDegree)
	assert.InDelta(t, 2.0, st.AvgDegree, 1e-9)
}

func TestConcurrentReadersSeeWholeLists(t *testing.T) {
	g, err := New(2, 1, 8)
	require.NoError(t, err)

	lists := [][]uint32{{1, 1, 1, 1}, {2, 2, 2, 2, 2, 2}}
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			src := lists[i%2]
			g.Lock(0)
			g.SetNeighbors(0, append([]uint32(nil), src...))
			g.Unlock(0)
		}
	}()

	for range 10000 {
		nb := g.Neighbors(0)
		if len(nb) == 0 {
			continue
		}
		for _, v := range nb {
			require.Equal(t, nb[0], v)
		}
		require.Equal(t, int(nb[0])*2+2, len(nb))
	}
	close(stop)
	wg.Wait()
}
