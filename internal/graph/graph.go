package graph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
)

// State is the lifecycle tag of a slot.
type State uint32

const (
	// Free slots hold no point.
	Free State = iota
	// Pending slots are reserved by an in-flight insertion and not yet linked.
	Pending
	// Live slots are linked and may be returned by search.
	Live
	// Tombstoned slots are logically deleted and await consolidation.
	Tombstoned
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Pending:
		return "pending"
	case Live:
		return "live"
	case Tombstoned:
		return "tombstoned"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

type node struct {
	mu        sync.Mutex
	neighbors atomic.Pointer[[]uint32]
	state     atomic.Uint32
	epoch     atomic.Uint64
}

// Graph is a fixed-capacity directed graph with bounded out-degree.
type Graph struct {
	maxDegree int
	maxPoints uint32
	frozen    []uint32
	nodes     []node
}

// New creates a graph with maxPoints user slots and numFrozen frozen slots.
// Frozen slots start Live with empty neighbor lists.
func New(maxPoints, numFrozen, maxDegree int) (*Graph, error) {
	if maxPoints <= 0 {
		return nil, fmt.Errorf("graph: max points must be positive, got %d", maxPoints)
	}
	if numFrozen <= 0 {
		return nil, fmt.Errorf("graph: need at least one frozen point, got %d", numFrozen)
	}
	if maxDegree <= 0 {
		return nil, fmt.Errorf("graph: max degree must be positive, got %d", maxDegree)
	}
	total := uint64(maxPoints) + uint64(numFrozen)
	if total > uint64(^uint32(0)) {
		return nil, fmt.Errorf("graph: %d slots exceed the uint32 slot space", total)
	}

	g := &Graph{
		maxDegree: maxDegree,
		maxPoints: uint32(maxPoints),
		frozen:    make([]uint32, numFrozen),
		nodes:     make([]node, total),
	}
	for i := range g.frozen {
		slot := uint32(maxPoints + i)
		g.frozen[i] = slot
		g.nodes[slot].state.Store(uint32(Live))
	}
	return g, nil
}

// MaxDegree returns the out-degree bound R.
func (g *Graph) MaxDegree() int { return g.maxDegree }

// MaxPoints returns the number of user slots.
func (g *Graph) MaxPoints() int { return int(g.maxPoints) }

// Slots returns the total number of slots, frozen ones included.
func (g *Graph) Slots() int { return len(g.nodes) }

// Frozen returns the frozen entry-point slots. The slice must not be modified.
func (g *Graph) Frozen() []uint32 { return g.frozen }

// IsFrozen reports whether slot is a frozen entry point.
func (g *Graph) IsFrozen(slot uint32) bool { return slot >= g.maxPoints }

// Neighbors returns the current neighbor snapshot of slot. The slice must
// not be modified.
func (g *Graph) Neighbors(slot uint32) []uint32 {
	p := g.nodes[slot].neighbors.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Lock acquires the writer lock of slot.
func (g *Graph) Lock(slot uint32) { g.nodes[slot].mu.Lock() }

// Unlock releases the writer lock of slot.
func (g *Graph) Unlock(slot uint32) { g.nodes[slot].mu.Unlock() }

// SetNeighbors publishes a new neighbor list for slot and bumps its epoch.
// The caller must hold the node lock; list ownership passes to the graph.
func (g *Graph) SetNeighbors(slot uint32, list []uint32) {
	n := &g.nodes[slot]
	if len(list) == 0 {
		n.neighbors.Store(nil)
	} else {
		n.neighbors.Store(&list)
	}
	n.epoch.Add(1)
}

// Epoch returns the mutation counter of slot.
func (g *Graph) Epoch(slot uint32) uint64 { return g.nodes[slot].epoch.Load() }

// State returns the lifecycle state of slot.
func (g *Graph) State(slot uint32) State { return State(g.nodes[slot].state.Load()) }

// SetState unconditionally stores the state of slot.
func (g *Graph) SetState(slot uint32, s State) { g.nodes[slot].state.Store(uint32(s)) }

// CompareAndSwapState performs an atomic state transition.
func (g *Graph) CompareAndSwapState(slot uint32, old, new State) bool {
	return g.nodes[slot].state.CompareAndSwap(uint32(old), uint32(new))
}

// Reset clears slot back to Free with no neighbors. The caller must have
// exclusive access to the slot.
func (g *Graph) Reset(slot uint32) {
	n := &g.nodes[slot]
	n.neighbors.Store(nil)
	n.state.Store(uint32(Free))
	n.epoch.Add(1)
}

// Tombstones returns a snapshot of all tombstoned slots.
func (g *Graph) Tombstones() *roaring.Bitmap {
	bm := roaring.New()
	for i := uint32(0); i < g.maxPoints; i++ {
		if g.State(i) == Tombstoned {
			bm.Add(i)
		}
	}
	return bm
}

// Stats summarizes the graph.
type Stats struct {
	Live       int
	Tombstoned int
	Pending    int
	Free       int
	Edges      int
	MaxDegree  int
	MinDegree  int
	AvgDegree  float64
}

// Stats walks every user slot and returns degree and state counts.
func (g *Graph) Stats() Stats {
	var st Stats
	st.MinDegree = -1
	for i := uint32(0); i < g.maxPoints; i++ {
		switch g.State(i) {
		case Free:
			st.Free++
			continue
		case Pending:
			st.Pending++
			continue
		case Tombstoned:
			st.Tombstoned++
		case Live:
			st.Live++
		}
		d := len(g.Neighbors(i))
		st.Edges += d
		st.MaxDegree = max(st.MaxDegree, d)
		if st.MinDegree < 0 || d < st.MinDegree {
			st.MinDegree = d
		}
	}
	if st.MinDegree < 0 {
		st.MinDegree = 0
	}
	if linked := st.Live + st.Tombstoned; linked > 0 {
		st.AvgDegree = float64(st.Edges) / float64(linked)
	}
	return st
}
