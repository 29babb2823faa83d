package vamana

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/testutil"
)

func testParams(dim, maxPoints int) Params {
	return Params{
		Dim:                     dim,
		MaxPoints:               maxPoints,
		Metric:                  distance.MetricL2,
		GraphDegree:             16,
		Complexity:              32,
		ConcurrentConsolidation: true,
		NumThreads:              4,
	}
}

func newTestIndex(t *testing.T, p Params) *Index[float32] {
	t.Helper()
	x, err := New[float32](p, Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func buildRandom(t *testing.T, x *Index[float32], n int, seed int64) [][]float32 {
	t.Helper()
	data := testutil.NewRNG(seed).UniformVectors(n, x.Dimension())
	require.NoError(t, x.Build(t.Context(), data, testutil.SequentialIDs(n)))
	return data
}

// checkGraph asserts the degree bound, that no list references a free or
// tombstoned slot when clean is set, and that every live point is
// reachable from a frozen point.
func checkGraph[T distance.Element](t *testing.T, x *Index[T], clean bool) {
	t.Helper()
	g := x.g

	reached := make([]bool, g.Slots())
	queue := append([]uint32(nil), g.Frozen()...)
	for _, f := range queue {
		reached[f] = true
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, u := range g.Neighbors(v) {
			if !reached[u] {
				reached[u] = true
				queue = append(queue, u)
			}
		}
	}

	for slot := uint32(0); slot < uint32(g.Slots()); slot++ {
		st := g.State(slot)
		if st == graph.Free {
			require.Empty(t, g.Neighbors(slot), "free slot %d has neighbors", slot)
			continue
		}
		nb := g.Neighbors(slot)
		require.LessOrEqual(t, len(nb), g.MaxDegree(), "slot %d exceeds degree", slot)
		for _, u := range nb {
			require.NotEqual(t, graph.Free, g.State(u), "slot %d links to free slot %d", slot, u)
			if clean {
				require.NotEqual(t, graph.Tombstoned, g.State(u), "slot %d links to tombstone %d", slot, u)
			}
		}
		if st == graph.Live && !g.IsFrozen(slot) {
			require.True(t, reached[slot], "live slot %d unreachable", slot)
		}
	}
}
