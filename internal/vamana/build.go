package vamana

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/internal/vectorstore"
)

// Build bulk-loads vectors[i] under ids[i] into an empty index and links
// them in parallel on NumThreads workers.
//
// The first frozen point takes the vector closest to the batch centroid;
// further frozen points take uniformly sampled batch vectors.
func (x *Index[T]) Build(ctx context.Context, vectors [][]T, ids []uint32) error {
	if x.closed.Load() {
		return ErrClosed
	}
	if len(vectors) != len(ids) {
		return invalidParam("ids", len(ids), fmt.Sprintf("expected %d ids, one per vector", len(vectors)))
	}
	if len(vectors) == 0 {
		return invalidParam("vectors", 0, "build needs at least one vector")
	}
	if len(vectors) > x.p.MaxPoints {
		return fmt.Errorf("%w: %d vectors for %d points", ErrCapacityExceeded, len(vectors), x.p.MaxPoints)
	}
	seen := make(map[uint32]struct{}, len(ids))
	for i, v := range vectors {
		if err := x.checkVector(v); err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
		if _, dup := seen[ids[i]]; dup {
			return fmt.Errorf("%w: %d appears twice in batch", ErrDuplicateID, ids[i])
		}
		seen[ids[i]] = struct{}{}
	}

	// Binding and seeding exclude other writers; linking then runs
	// alongside them like a batch insert.
	x.structMu.Lock()
	if n := x.Len(); n != 0 {
		x.structMu.Unlock()
		return invalidParam("index", n, "build requires an empty index")
	}

	start := time.Now()
	x.log.Info("build started", "points", len(vectors), "graph_degree", x.p.GraphDegree, "complexity", x.p.Complexity)

	slots := make([]uint32, len(vectors))
	for i, v := range vectors {
		slot, err := x.bind(ids[i])
		if err != nil {
			for j := range i {
				x.unbind(ids[j], slots[j])
			}
			x.structMu.Unlock()
			return err
		}
		_ = x.store.Set(slot, v)
		slots[i] = slot
	}

	x.seedFrozenFromBatch(slots)
	x.structMu.Unlock()

	x.structMu.RLock()
	defer x.structMu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.p.NumThreads)
	linked := make([]bool, len(slots))
	for i, slot := range slots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			x.link(slot, x.p.Complexity)
			linked[i] = true
			return nil
		})
	}
	err := g.Wait()

	// Points linked before a cancellation stay; the others are released.
	for i, slot := range slots {
		if linked[i] {
			x.g.SetState(slot, graph.Live)
		} else {
			x.unbind(ids[i], slot)
		}
	}
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	x.log.Info("build finished", "points", len(vectors), "duration", time.Since(start))
	return nil
}

// seedFrozenFromBatch overwrites the frozen vectors. The caller holds
// structMu exclusively; reclaimMu keeps searches out while an already
// seeded index is reseeded.
func (x *Index[T]) seedFrozenFromBatch(slots []uint32) {
	x.seedMu.Lock()
	defer x.seedMu.Unlock()
	x.reclaimMu.Lock()
	defer x.reclaimMu.Unlock()

	centroid := x.store.Centroid(slots)
	best, bestDist := slots[0], math.Inf(1)
	for _, slot := range slots {
		if d := vectorstore.SquaredL2To(x.store.Vector(slot), centroid); d < bestDist {
			best, bestDist = slot, d
		}
	}

	rng := rand.New(rand.NewPCG(x.p.Seed, uint64(len(slots))))
	for i, f := range x.g.Frozen() {
		src := best
		if i > 0 {
			src = slots[rng.IntN(len(slots))]
		}
		_ = x.store.Set(f, x.store.Vector(src))
	}
	x.seeded.Store(true)
}
