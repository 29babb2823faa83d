package vamana

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/internal/searcher"
)

// link connects a Pending slot into the graph: greedy search with
// candidate-list size l, robust prune, publish, reverse edges.
func (x *Index[T]) link(slot uint32, l int) {
	s := x.pool.Acquire(l)
	defer x.pool.Release(s)

	vec := x.store.Vector(slot)
	x.greedySearch(vec, s)

	// Tombstoned points may be traversed but never become new neighbors.
	pool := slices.DeleteFunc(s.Expanded, func(c searcher.Candidate) bool {
		return x.g.State(c.Slot) == graph.Tombstoned
	})
	list := x.robustPrune(slot, pool, s)

	x.g.Lock(slot)
	x.g.SetNeighbors(slot, list)
	x.g.Unlock(slot)

	for _, n := range list {
		x.addReverseEdge(n, slot, s)
	}
}

// seedFrozen copies v into every frozen slot if none has been seeded yet,
// so the first insertion into an empty index has an entry point.
func (x *Index[T]) seedFrozen(v []T) {
	if x.seeded.Load() {
		return
	}
	x.seedMu.Lock()
	defer x.seedMu.Unlock()
	if x.seeded.Load() {
		return
	}
	for _, f := range x.g.Frozen() {
		_ = x.store.Set(f, v)
	}
	x.seeded.Store(true)
}

// Insert adds vec under id.
func (x *Index[T]) Insert(ctx context.Context, vec []T, id uint32) error {
	if x.closed.Load() {
		return ErrClosed
	}
	if err := x.checkVector(vec); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	x.structMu.RLock()
	defer x.structMu.RUnlock()

	return x.insertLocked(vec, id)
}

func (x *Index[T]) insertLocked(vec []T, id uint32) error {
	slot, err := x.bind(id)
	if err != nil {
		return err
	}
	if err := x.store.Set(slot, vec); err != nil {
		x.unbind(id, slot)
		return err
	}
	x.seedFrozen(vec)

	x.link(slot, x.p.InsertComplexity)
	x.g.SetState(slot, graph.Live)
	return nil
}

// BatchInsert inserts vecs[i] under ids[i] on numThreads workers (0 means
// NumThreads). The returned slice holds one error per vector; a failed
// vector does not affect the others. The second return value reports
// batch-level problems only.
func (x *Index[T]) BatchInsert(ctx context.Context, vecs [][]T, ids []uint32, numThreads int) ([]error, error) {
	if x.closed.Load() {
		return nil, ErrClosed
	}
	if len(vecs) != len(ids) {
		return nil, invalidParam("ids", len(ids), fmt.Sprintf("expected %d ids, one per vector", len(vecs)))
	}
	if numThreads <= 0 {
		numThreads = x.p.NumThreads
	}

	x.structMu.RLock()
	defer x.structMu.RUnlock()

	errs := make([]error, len(vecs))
	var g errgroup.Group
	g.SetLimit(numThreads)
	for i := range vecs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			if err := x.checkVector(vecs[i]); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = x.insertLocked(vecs[i], ids[i])
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		x.log.Warn("batch insert finished with failures", "count", len(vecs), "failed", failed)
	}
	return errs, nil
}
