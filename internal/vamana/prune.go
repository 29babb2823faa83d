package vamana

import (
	"slices"

	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/internal/searcher"
)

// robustPrune selects at most R neighbors for slot p out of pool, whose
// distances are measured from p. A candidate c is occluded when an already
// admitted neighbor n satisfies alpha*d(n,c) < d(p,c). Free slots, p
// itself and duplicates are dropped; the remaining pool is ordered by
// (distance, slot) and capped at MaxOcclusionSize.
//
// pool is reordered in place. The returned slice is freshly allocated.
func (x *Index[T]) robustPrune(p uint32, pool []searcher.Candidate, s *searcher.Scratch) []uint32 {
	pool = slices.DeleteFunc(pool, func(c searcher.Candidate) bool {
		return c.Slot == p || x.g.State(c.Slot) == graph.Free
	})
	slices.SortFunc(pool, searcher.CompareCandidates)
	pool = slices.CompactFunc(pool, func(a, b searcher.Candidate) bool { return a.Slot == b.Slot })
	if len(pool) > x.p.MaxOcclusionSize {
		pool = pool[:x.p.MaxOcclusionSize]
	}

	r := x.p.GraphDegree
	alpha := x.p.Alpha
	admitted := s.Admitted[:0]

	for _, c := range pool {
		if len(admitted) >= r {
			break
		}
		cv := x.store.Vector(c.Slot)
		occluded := false
		for _, n := range admitted {
			if alpha*x.distanceTo(cv, n.Slot) < c.Dist {
				occluded = true
				break
			}
		}
		if !occluded {
			admitted = append(admitted, c)
		}
	}

	if x.p.SaturateGraph && len(admitted) < r {
		for _, c := range pool {
			if len(admitted) >= r {
				break
			}
			if !slices.ContainsFunc(admitted, func(a searcher.Candidate) bool { return a.Slot == c.Slot }) {
				admitted = append(admitted, c)
			}
		}
	}
	s.Admitted = admitted

	out := make([]uint32, len(admitted))
	for i, c := range admitted {
		out[i] = c.Slot
	}
	return out
}

// addReverseEdge links n -> p. When n is already at full degree its list
// is re-pruned over its current neighbors plus p.
func (x *Index[T]) addReverseEdge(n, p uint32, s *searcher.Scratch) {
	x.g.Lock(n)
	defer x.g.Unlock(n)

	cur := x.g.Neighbors(n)
	if slices.Contains(cur, p) {
		return
	}
	if len(cur) < x.p.GraphDegree {
		next := make([]uint32, len(cur)+1)
		copy(next, cur)
		next[len(cur)] = p
		x.g.SetNeighbors(n, next)
		return
	}

	nv := x.store.Vector(n)
	pool := s.Pool[:0]
	for _, u := range cur {
		pool = append(pool, searcher.Candidate{Slot: u, Dist: x.distanceTo(nv, u)})
	}
	pool = append(pool, searcher.Candidate{Slot: p, Dist: x.distanceTo(nv, p)})
	s.Pool = pool

	x.g.SetNeighbors(n, x.robustPrune(n, pool, s))
}
