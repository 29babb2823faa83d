package searcher

// Scratch holds the per-operation buffers of one search or insertion.
//
// Scratch is NOT thread-safe. It is owned by a single goroutine between
// Pool.Acquire and Pool.Release.
type Scratch struct {
	// Best is the sorted best-L candidate list.
	Best *NeighborQueue

	// Visited tracks slots whose distance has already been computed.
	Visited *VisitedSet

	// Expanded collects every candidate expanded by the traversal, which is
	// the candidate pool handed to robust pruning on insertion.
	Expanded []Candidate

	// Pool is the working candidate pool of robust pruning.
	Pool []Candidate

	// Admitted holds the neighbors selected by robust pruning.
	Admitted []Candidate

	// Occlusion holds per-candidate occlusion factors during pruning.
	Occlusion []float32

	// IDs is a reusable slot buffer.
	IDs []uint32

	// Ops counts distance evaluations since the last reset.
	Ops int
}

// NewScratch creates a scratch sized for queueCap candidates over slots
// graph slots.
func NewScratch(queueCap, slots int) *Scratch {
	return &Scratch{
		Best:      NewNeighborQueue(queueCap),
		Visited:   NewVisitedSet(slots),
		Expanded:  make([]Candidate, 0, queueCap),
		Pool:      make([]Candidate, 0, queueCap),
		Admitted:  make([]Candidate, 0, 64),
		Occlusion: make([]float32, 0, queueCap),
		IDs:       make([]uint32, 0, 64),
	}
}

// Reset clears the scratch state for reuse.
func (s *Scratch) Reset() {
	s.Best.Reset()
	s.Visited.Reset()
	s.Expanded = s.Expanded[:0]
	s.Pool = s.Pool[:0]
	s.Admitted = s.Admitted[:0]
	s.Occlusion = s.Occlusion[:0]
	s.IDs = s.IDs[:0]
	s.Ops = 0
}
