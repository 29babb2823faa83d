package vamana

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/internal/searcher"
)

// Result holds the answer to one query, closest first.
type Result struct {
	IDs       []uint32
	Distances []float32

	// AdjustedComplexity is the complexity actually used when k exceeded
	// the requested one; zero otherwise.
	AdjustedComplexity int

	// Visited counts distance evaluations.
	Visited int
}

// BatchResult holds row-aligned answers to a batch of queries.
type BatchResult struct {
	IDs       [][]uint32
	Distances [][]float32

	AdjustedComplexity int
}

// greedySearch runs a best-first beam search for query from the frozen
// points. On return s.Best holds the L closest slots found and s.Expanded
// every slot that was expanded. Until the frozen points hold a vector the
// graph has no entry point and nothing is found.
func (x *Index[T]) greedySearch(query []T, s *searcher.Scratch) {
	if !x.seeded.Load() {
		return
	}
	for _, f := range x.g.Frozen() {
		if s.Visited.Visit(f) {
			s.Best.Insert(searcher.Candidate{Slot: f, Dist: x.distanceTo(query, f)})
			s.Ops++
		}
	}

	for s.Best.HasUnexpanded() {
		c := s.Best.ClosestUnexpanded()
		s.Expanded = append(s.Expanded, c)

		for _, nb := range x.g.Neighbors(c.Slot) {
			if !s.Visited.Visit(nb) {
				continue
			}
			if x.g.State(nb) == graph.Free {
				continue
			}
			s.Best.Insert(searcher.Candidate{Slot: nb, Dist: x.distanceTo(query, nb)})
			s.Ops++
		}
	}
}

func (x *Index[T]) checkSearch(k, complexity int) (int, int, error) {
	if k < 1 {
		return 0, 0, invalidParam("k", k, "must be >= 1")
	}
	if complexity < 1 {
		return 0, 0, invalidParam("complexity", complexity, "must be >= 1")
	}
	if k > complexity {
		return k, k, nil
	}
	return complexity, 0, nil
}

// Search returns the k nearest live points to query. When k exceeds
// complexity the latter is raised to k and reported in the result.
func (x *Index[T]) Search(ctx context.Context, query []T, k, complexity int) (Result, error) {
	if x.closed.Load() {
		return Result{}, ErrClosed
	}
	if err := x.checkVector(query); err != nil {
		return Result{}, err
	}
	l, adjusted, err := x.checkSearch(k, complexity)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := x.search(query, k, l)
	res.AdjustedComplexity = adjusted
	return res, nil
}

func (x *Index[T]) search(query []T, k, l int) Result {
	x.reclaimMu.RLock()
	defer x.reclaimMu.RUnlock()

	s := x.pool.Acquire(l)
	defer x.pool.Release(s)

	x.greedySearch(query, s)

	type hit struct {
		id   uint32
		dist float32
	}
	hits := make([]hit, 0, s.Best.Len())
	for _, c := range s.Best.Items() {
		if x.g.IsFrozen(c.Slot) || x.g.State(c.Slot) != graph.Live {
			continue
		}
		hits = append(hits, hit{id: x.slotToID[c.Slot], dist: c.Dist})
	}
	slices.SortFunc(hits, func(a, b hit) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	hits = hits[:min(k, len(hits))]

	res := Result{
		IDs:       make([]uint32, len(hits)),
		Distances: make([]float32, len(hits)),
		Visited:   s.Ops,
	}
	for i, h := range hits {
		res.IDs[i] = h.id
		res.Distances[i] = h.dist
	}
	return res
}

// BatchSearch answers every query with the same parameters as Search,
// spreading the queries over numThreads workers. Row i of the result
// corresponds to queries[i].
func (x *Index[T]) BatchSearch(ctx context.Context, queries [][]T, k, complexity, numThreads int) (BatchResult, error) {
	if x.closed.Load() {
		return BatchResult{}, ErrClosed
	}
	for _, q := range queries {
		if err := x.checkVector(q); err != nil {
			return BatchResult{}, err
		}
	}
	l, adjusted, err := x.checkSearch(k, complexity)
	if err != nil {
		return BatchResult{}, err
	}
	if numThreads <= 0 {
		numThreads = x.p.SearchThreads
	}

	out := BatchResult{
		IDs:                make([][]uint32, len(queries)),
		Distances:          make([][]float32, len(queries)),
		AdjustedComplexity: adjusted,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numThreads)
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := x.search(q, k, l)
			out.IDs[i] = r.IDs
			out.Distances[i] = r.Distances
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}
	return out, nil
}
