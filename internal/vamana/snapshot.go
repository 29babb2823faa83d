package vamana

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/graph"
)

// Snapshot is the serializable state of an Index.
type Snapshot[T distance.Element] struct {
	Params Params

	// IDs holds the external ID of every user slot, 0 for free slots.
	IDs []uint32
	// Neighbors holds the neighbor list of every slot, frozen ones
	// included.
	Neighbors [][]uint32
	// Frozen lists the frozen entry-point slots.
	Frozen []uint32
	// Tombstones marks tombstoned user slots.
	Tombstones *roaring.Bitmap
	// Vectors is the flat vector buffer of every slot.
	Vectors []T
	// Seeded reports whether the frozen points carry real vectors.
	Seeded bool
}

// Export captures the index state. With quiescent set, structural
// mutations are blocked for the duration of the copy; otherwise the copy
// may interleave with inserts and consolidation repairs, and pending
// insertions are left out.
func (x *Index[T]) Export(quiescent bool) (*Snapshot[T], error) {
	if x.closed.Load() {
		return nil, ErrClosed
	}
	if quiescent {
		x.structMu.Lock()
		defer x.structMu.Unlock()
	}
	x.reclaimMu.RLock()
	defer x.reclaimMu.RUnlock()

	slots := x.g.Slots()
	snap := &Snapshot[T]{
		Params:     x.p,
		IDs:        make([]uint32, x.p.MaxPoints),
		Neighbors:  make([][]uint32, slots),
		Frozen:     slices.Clone(x.g.Frozen()),
		Tombstones: roaring.New(),
		Vectors:    make([]T, slots*x.p.Dim),
		Seeded:     x.seeded.Load(),
	}

	x.tagMu.Lock()
	for slot := range x.p.MaxPoints {
		switch x.g.State(uint32(slot)) {
		case graph.Live:
			snap.IDs[slot] = x.slotToID[slot]
		case graph.Tombstoned:
			snap.IDs[slot] = x.slotToID[slot]
			snap.Tombstones.Add(uint32(slot))
		}
	}
	x.tagMu.Unlock()

	// Vectors of bound slots and seeded frozen slots are immutable, so
	// copying them is safe even while inserts run.
	for slot := range slots {
		if slot < x.p.MaxPoints && snap.IDs[slot] == 0 {
			continue
		}
		if slot >= x.p.MaxPoints && !snap.Seeded {
			continue
		}
		copy(snap.Vectors[slot*x.p.Dim:], x.store.Vector(uint32(slot)))
		snap.Neighbors[slot] = slices.Clone(x.g.Neighbors(uint32(slot)))
	}
	// Edges to slots that were pending when copied would dangle.
	for slot, list := range snap.Neighbors {
		snap.Neighbors[slot] = slices.DeleteFunc(list, func(u uint32) bool {
			return int(u) < x.p.MaxPoints && snap.IDs[u] == 0
		})
	}
	return snap, nil
}

// Import rebuilds an index from a snapshot.
func Import[T distance.Element](snap *Snapshot[T], d Deps) (*Index[T], error) {
	x, err := New[T](snap.Params, d)
	if err != nil {
		return nil, err
	}
	if err := x.restore(snap); err != nil {
		_ = x.Close()
		return nil, err
	}
	return x, nil
}

func (x *Index[T]) restore(snap *Snapshot[T]) error {
	p := x.p
	slots := x.g.Slots()
	switch {
	case len(snap.IDs) != p.MaxPoints:
		return fmt.Errorf("%w: snapshot has %d id entries, want %d", ErrInvalidArgument, len(snap.IDs), p.MaxPoints)
	case len(snap.Neighbors) != slots:
		return fmt.Errorf("%w: snapshot has %d neighbor lists, want %d", ErrInvalidArgument, len(snap.Neighbors), slots)
	case len(snap.Vectors) != slots*p.Dim:
		return fmt.Errorf("%w: snapshot has %d vector elements, want %d", ErrInvalidArgument, len(snap.Vectors), slots*p.Dim)
	case !slices.Equal(snap.Frozen, x.g.Frozen()):
		return fmt.Errorf("%w: frozen slots %v do not match %v", ErrInvalidArgument, snap.Frozen, x.g.Frozen())
	}

	copy(x.store.Data(), snap.Vectors)

	for slot, id := range snap.IDs {
		if id == 0 {
			continue
		}
		if _, dup := x.idToSlot[id]; dup {
			return fmt.Errorf("%w: id %d bound twice", ErrInvalidArgument, id)
		}
		if err := x.store.ReserveSlot(uint32(slot)); err != nil {
			return err
		}
		x.idToSlot[id] = uint32(slot)
		x.slotToID[slot] = id
		state := graph.Live
		if snap.Tombstones != nil && snap.Tombstones.Contains(uint32(slot)) {
			state = graph.Tombstoned
		}
		x.g.SetState(uint32(slot), state)
	}

	for slot, list := range snap.Neighbors {
		if len(list) == 0 {
			continue
		}
		if len(list) > p.GraphDegree {
			return fmt.Errorf("%w: slot %d has degree %d > %d", ErrInvalidArgument, slot, len(list), p.GraphDegree)
		}
		for _, u := range list {
			if int(u) >= slots || x.g.State(u) == graph.Free {
				return fmt.Errorf("%w: slot %d links to unbound slot %d", ErrInvalidArgument, slot, u)
			}
		}
		x.g.SetNeighbors(uint32(slot), slices.Clone(list))
	}

	x.seeded.Store(snap.Seeded)
	return nil
}
