package vamana

import (
	"context"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/internal/searcher"
)

// maxRepairAttempts bounds optimistic repair attempts of one node before
// it is repaired while holding its lock.
const maxRepairAttempts = 3

// maxRelinkRounds bounds the reachability passes after repair.
const maxRelinkRounds = 4

// ConsolidationReport summarizes one Consolidate pass.
type ConsolidationReport struct {
	// Tombstones is the number of tombstoned slots found at the start.
	Tombstones int
	// Repaired counts nodes whose neighbor list was rewritten.
	Repaired int
	// Requeued counts repairs retried because the node changed meanwhile.
	Requeued int
	// Relinked counts live nodes that lost every path from a frozen point
	// and were linked into the graph again.
	Relinked int
	// Reclaimed counts slots returned to the free set.
	Reclaimed int
	// Stripped counts stale edges removed during reclamation.
	Stripped int
	Duration time.Duration
}

// Consolidate repairs every neighbor list that references a tombstoned
// node and then reclaims the tombstoned slots, unbinding their IDs.
//
// With ConcurrentConsolidation the repair pass runs alongside inserts and
// only reclamation is exclusive; otherwise the whole pass is exclusive.
func (x *Index[T]) Consolidate(ctx context.Context) (ConsolidationReport, error) {
	if x.closed.Load() {
		return ConsolidationReport{}, ErrClosed
	}

	x.consolidateMu.Lock()
	defer x.consolidateMu.Unlock()

	if err := x.rc.AcquireBackground(ctx); err != nil {
		return ConsolidationReport{}, err
	}
	defer x.rc.ReleaseBackground()

	start := time.Now()
	var rep ConsolidationReport
	var err error

	if x.p.ConcurrentConsolidation {
		x.structMu.RLock()
		deleted := x.g.Tombstones()
		rep.Tombstones = int(deleted.GetCardinality())
		if rep.Tombstones > 0 {
			err = x.repairAll(ctx, deleted, &rep)
		}
		x.structMu.RUnlock()

		if err == nil && rep.Tombstones > 0 {
			x.structMu.Lock()
			x.reclaim(deleted, &rep)
			x.structMu.Unlock()
		}
	} else {
		x.structMu.Lock()
		deleted := x.g.Tombstones()
		rep.Tombstones = int(deleted.GetCardinality())
		if rep.Tombstones > 0 {
			err = x.repairAll(ctx, deleted, &rep)
			if err == nil {
				x.reclaim(deleted, &rep)
			}
		}
		x.structMu.Unlock()
	}

	rep.Duration = time.Since(start)
	if err != nil {
		return rep, err
	}
	if rep.Tombstones > 0 {
		x.log.Info("consolidation finished",
			"tombstones", rep.Tombstones,
			"repaired", rep.Repaired,
			"requeued", rep.Requeued,
			"relinked", rep.Relinked,
			"reclaimed", rep.Reclaimed,
			"duration", rep.Duration)
	}
	return rep, nil
}

// repairAll walks every non-free node outside the deleted set, frozen
// points included. Nodes that change under a repair are retried at the end
// of the pass.
func (x *Index[T]) repairAll(ctx context.Context, deleted *roaring.Bitmap, rep *ConsolidationReport) error {
	s := x.pool.Acquire(x.p.Complexity)
	defer x.pool.Release(s)

	var requeue []uint32
	for slot := uint32(0); slot < uint32(x.g.Slots()); slot++ {
		if slot%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if x.g.State(slot) == graph.Free || deleted.Contains(slot) {
			continue
		}
		repaired, err := x.repairNode(slot, deleted, s, false)
		switch {
		case err == errConsolidationConflict:
			requeue = append(requeue, slot)
		case repaired:
			rep.Repaired++
		}
	}

	for attempt := 1; len(requeue) > 0; attempt++ {
		rep.Requeued += len(requeue)
		x.log.Debug("requeueing nodes changed during repair", "nodes", len(requeue), "attempt", attempt)

		locked := attempt >= maxRepairAttempts
		next := requeue[:0]
		for _, slot := range requeue {
			repaired, err := x.repairNode(slot, deleted, s, locked)
			switch {
			case err == errConsolidationConflict:
				next = append(next, slot)
			case repaired:
				rep.Repaired++
			}
		}
		requeue = next
	}
	return x.relinkUnreachable(ctx, deleted, rep)
}

// relinkUnreachable links every live node that is no longer reachable from
// a frozen point once the deleted slots are gone. A node whose in-edges all
// came from deleted nodes is never a repair candidate, so it needs a fresh
// insertion.
func (x *Index[T]) relinkUnreachable(ctx context.Context, deleted *roaring.Bitmap, rep *ConsolidationReport) error {
	s := x.pool.Acquire(x.p.Complexity)
	defer x.pool.Release(s)

	for round := 0; round < maxRelinkRounds; round++ {
		lost := x.unreachable(deleted, s)
		if len(lost) == 0 {
			return nil
		}
		x.log.Debug("relinking unreachable nodes", "nodes", len(lost), "round", round+1)
		for i, slot := range lost {
			if i%256 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			x.link(slot, x.p.Complexity)
			x.ensureInEdge(slot)
			rep.Relinked++
		}
	}
	if lost := x.unreachable(deleted, s); len(lost) > 0 {
		x.log.Warn("nodes still unreachable after relinking", "nodes", len(lost))
	}
	return nil
}

// unreachable returns the Live, non-frozen slots that no path from a frozen
// point reaches without passing through a deleted slot.
func (x *Index[T]) unreachable(deleted *roaring.Bitmap, s *searcher.Scratch) []uint32 {
	s.Visited.Reset()
	queue := s.IDs[:0]
	for _, f := range x.g.Frozen() {
		s.Visited.Visit(f)
		queue = append(queue, f)
	}
	for len(queue) > 0 {
		v := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, u := range x.g.Neighbors(v) {
			if deleted.Contains(u) || x.g.State(u) == graph.Free {
				continue
			}
			if s.Visited.Visit(u) {
				queue = append(queue, u)
			}
		}
	}
	s.IDs = queue

	var lost []uint32
	for slot := uint32(0); slot < uint32(x.g.MaxPoints()); slot++ {
		if x.g.State(slot) == graph.Live && !deleted.Contains(slot) && !s.Visited.Visited(slot) {
			lost = append(lost, slot)
		}
	}
	return lost
}

// ensureInEdge makes the closest out-neighbor of v point back at v when
// pruning dropped the reverse edge, replacing that neighbor's farthest edge
// if its list is full.
func (x *Index[T]) ensureInEdge(v uint32) {
	out := x.g.Neighbors(v)
	for _, n := range out {
		if slices.Contains(x.g.Neighbors(n), v) {
			return
		}
	}
	if len(out) == 0 {
		return
	}
	n := out[0]
	nv := x.store.Vector(n)

	x.g.Lock(n)
	defer x.g.Unlock(n)

	cur := x.g.Neighbors(n)
	if slices.Contains(cur, v) {
		return
	}
	next := make([]uint32, 0, len(cur)+1)
	next = append(next, cur...)
	if len(next) < x.p.GraphDegree {
		next = append(next, v)
	} else {
		far, farDist := 0, float32(-1)
		for i, u := range next {
			if d := x.distanceTo(nv, u); d > farDist {
				far, farDist = i, d
			}
		}
		next[far] = v
	}
	x.g.SetNeighbors(n, next)
}

// repairNode rewrites the neighbor list of v when it references a deleted
// slot. The candidate pool is v's surviving neighbors plus the surviving
// neighbors of each deleted neighbor. Unless locked is set, the new list
// is computed without v's lock and discarded with errConsolidationConflict
// if v changed in the meantime.
func (x *Index[T]) repairNode(v uint32, deleted *roaring.Bitmap, s *searcher.Scratch, locked bool) (bool, error) {
	if locked {
		x.g.Lock(v)
		defer x.g.Unlock(v)
	}

	epoch := x.g.Epoch(v)
	cur := x.g.Neighbors(v)
	if !slices.ContainsFunc(cur, deleted.Contains) {
		return false, nil
	}

	s.Visited.Reset()
	s.Visited.Visit(v)
	vv := x.store.Vector(v)
	pool := s.Pool[:0]
	add := func(u uint32) {
		if deleted.Contains(u) || !s.Visited.Visit(u) {
			return
		}
		pool = append(pool, searcher.Candidate{Slot: u, Dist: x.distanceTo(vv, u)})
	}
	for _, u := range cur {
		if !deleted.Contains(u) {
			add(u)
			continue
		}
		for _, w := range x.g.Neighbors(u) {
			add(w)
		}
	}
	s.Pool = pool

	list := x.robustPrune(v, pool, s)

	if !locked {
		if x.beforeRepairPublish != nil {
			x.beforeRepairPublish(v)
		}
		x.g.Lock(v)
		defer x.g.Unlock(v)
		if x.g.Epoch(v) != epoch {
			return false, errConsolidationConflict
		}
	}
	x.g.SetNeighbors(v, list)
	return true, nil
}

// reclaim frees the deleted slots. The caller holds structMu exclusively.
// Any edge to a reclaimed slot that survived the repair pass is stripped.
func (x *Index[T]) reclaim(deleted *roaring.Bitmap, rep *ConsolidationReport) {
	x.reclaimMu.Lock()
	defer x.reclaimMu.Unlock()

	for slot := uint32(0); slot < uint32(x.g.Slots()); slot++ {
		if x.g.State(slot) == graph.Free || deleted.Contains(slot) {
			continue
		}
		cur := x.g.Neighbors(slot)
		if !slices.ContainsFunc(cur, deleted.Contains) {
			continue
		}
		next := slices.DeleteFunc(slices.Clone(cur), deleted.Contains)
		rep.Stripped += len(cur) - len(next)
		x.g.Lock(slot)
		x.g.SetNeighbors(slot, next)
		x.g.Unlock(slot)
	}

	it := deleted.Iterator()
	for it.HasNext() {
		slot := it.Next()

		x.tagMu.Lock()
		delete(x.idToSlot, x.slotToID[slot])
		x.slotToID[slot] = 0
		x.g.Reset(slot)
		x.tagMu.Unlock()

		x.store.Release(slot)
		rep.Reclaimed++
	}
}
