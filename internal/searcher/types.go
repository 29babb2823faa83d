package searcher

// Candidate is a graph slot paired with its distance to the current target.
type Candidate struct {
	Slot uint32
	Dist float32
}

// Less orders candidates by distance, breaking ties by ascending slot.
func (c Candidate) Less(o Candidate) bool {
	if c.Dist != o.Dist {
		return c.Dist < o.Dist
	}
	return c.Slot < o.Slot
}

// CompareCandidates is a three-way comparison suitable for slices.SortFunc.
func CompareCandidates(a, b Candidate) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
