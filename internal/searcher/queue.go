package searcher

// NeighborQueue is a bounded list of candidates kept sorted by
// (distance, slot). It remembers which entries have been expanded and keeps
// a cursor on the closest unexpanded one, which is what a best-first beam
// search needs on every step.
//
// It is NOT thread-safe.
type NeighborQueue struct {
	items    []Candidate
	expanded []bool
	capacity int
	cursor   int
}

// NewNeighborQueue creates a queue holding at most capacity candidates.
func NewNeighborQueue(capacity int) *NeighborQueue {
	q := &NeighborQueue{}
	q.Reserve(capacity)
	return q
}

// Reserve resets the queue and sets its capacity, growing storage if needed.
func (q *NeighborQueue) Reserve(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if cap(q.items) < capacity+1 {
		q.items = make([]Candidate, 0, capacity+1)
		q.expanded = make([]bool, 0, capacity+1)
	}
	q.capacity = capacity
	q.Reset()
}

// Reset clears the queue, keeping its storage and capacity.
func (q *NeighborQueue) Reset() {
	q.items = q.items[:0]
	q.expanded = q.expanded[:0]
	q.cursor = 0
}

// Len returns the number of candidates held.
func (q *NeighborQueue) Len() int { return len(q.items) }

// Capacity returns the maximum number of candidates held.
func (q *NeighborQueue) Capacity() int { return q.capacity }

// At returns the i-th closest candidate.
func (q *NeighborQueue) At(i int) Candidate { return q.items[i] }

// Items returns the candidates in ascending order. The slice aliases the
// queue and is only valid until the next mutation.
func (q *NeighborQueue) Items() []Candidate { return q.items }

// Insert adds c if it ranks within the capacity. Duplicated slots are
// ignored. It reports whether c was kept.
func (q *NeighborQueue) Insert(c Candidate) bool {
	n := len(q.items)
	if n == q.capacity && !c.Less(q.items[n-1]) {
		return false
	}

	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if q.items[mid].Less(c) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < n && q.items[lo].Slot == c.Slot {
		return false
	}

	q.items = append(q.items, Candidate{})
	q.expanded = append(q.expanded, false)
	copy(q.items[lo+1:], q.items[lo:n])
	copy(q.expanded[lo+1:], q.expanded[lo:n])
	q.items[lo] = c
	q.expanded[lo] = false

	if len(q.items) > q.capacity {
		q.items = q.items[:q.capacity]
		q.expanded = q.expanded[:q.capacity]
	}
	if lo < q.cursor {
		q.cursor = lo
	}
	return true
}

// HasUnexpanded reports whether some candidate within the list has not
// been expanded yet.
func (q *NeighborQueue) HasUnexpanded() bool {
	return q.cursor < len(q.items)
}

// ClosestUnexpanded marks the closest unexpanded candidate as expanded and
// returns it. Callers must check HasUnexpanded first.
func (q *NeighborQueue) ClosestUnexpanded() Candidate {
	c := q.items[q.cursor]
	q.expanded[q.cursor] = true
	for q.cursor < len(q.items) && q.expanded[q.cursor] {
		q.cursor++
	}
	return c
}
