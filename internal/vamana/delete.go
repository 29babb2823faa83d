package vamana

import (
	"fmt"

	"github.com/hupe1980/vamana/internal/graph"
)

// MarkDeleted tombstones id. The point disappears from search results at
// once; its edges are repaired and its slot reclaimed by Consolidate.
func (x *Index[T]) MarkDeleted(id uint32) error {
	if x.closed.Load() {
		return ErrClosed
	}

	x.tagMu.Lock()
	defer x.tagMu.Unlock()

	slot, ok := x.idToSlot[id]
	if !ok || !x.g.CompareAndSwapState(slot, graph.Live, graph.Tombstoned) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
