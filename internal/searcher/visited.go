package searcher

import "github.com/bits-and-blooms/bitset"

// VisitedSet tracks visited slots using a bitset and a dirty list for fast reset.
type VisitedSet struct {
	bits  *bitset.BitSet
	dirty []uint32
}

// NewVisitedSet creates a visited set sized for capacity slots.
func NewVisitedSet(capacity int) *VisitedSet {
	return &VisitedSet{
		bits:  bitset.New(uint(capacity)),
		dirty: make([]uint32, 0, 128),
	}
}

// Visit marks a slot as visited and reports whether it was new.
func (v *VisitedSet) Visit(slot uint32) bool {
	if v.bits.Test(uint(slot)) {
		return false
	}
	// Set grows the bitset on demand.
	v.bits.Set(uint(slot))
	v.dirty = append(v.dirty, slot)
	return true
}

// Visited returns true if the slot has been visited.
func (v *VisitedSet) Visited(slot uint32) bool {
	return v.bits.Test(uint(slot))
}

// Len returns the number of slots visited since the last reset.
func (v *VisitedSet) Len() int { return len(v.dirty) }

// Reset clears only the bits touched since the last reset.
func (v *VisitedSet) Reset() {
	for _, slot := range v.dirty {
		v.bits.Clear(uint(slot))
	}
	v.dirty = v.dirty[:0]
}

// EnsureCapacity ensures the set can hold slots in [0, capacity) without
// reallocating during traversal.
func (v *VisitedSet) EnsureCapacity(capacity int) {
	if capacity > 0 && v.bits.Len() < uint(capacity) {
		last := uint(capacity - 1)
		v.bits.Set(last).Clear(last)
	}
}
