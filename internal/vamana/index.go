package vamana

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/internal/resource"
	"github.com/hupe1980/vamana/internal/searcher"
	"github.com/hupe1980/vamana/internal/vectorstore"
)

// nodeOverheadBytes approximates the fixed per-slot cost of the graph
// (lock, pointer, state, epoch, ID binding).
const nodeOverheadBytes = 40

// Index is a dynamic Vamana graph over vectors of element type T.
type Index[T distance.Element] struct {
	p    Params
	dist distance.Func[T]

	store *vectorstore.Store[T]
	g     *graph.Graph
	pool  *searcher.Pool

	log *slog.Logger
	rc  *resource.Controller

	structMu      sync.RWMutex
	reclaimMu     sync.RWMutex
	consolidateMu sync.Mutex

	tagMu    sync.Mutex
	idToSlot map[uint32]uint32
	slotToID []uint32

	seedMu sync.Mutex
	seeded atomic.Bool

	graphBytes int64
	closed     atomic.Bool

	// beforeRepairPublish runs between computing and publishing an
	// optimistic repair. Tests use it to inject racing writers.
	beforeRepairPublish func(slot uint32)
}

// New creates an empty index.
func New[T distance.Element](p Params, d Deps) (*Index[T], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.normalize()

	dist, err := distance.For[T](p.Metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	graphBytes := int64(p.MaxPoints+p.NumFrozenPoints) * int64(p.GraphDegree*4+nodeOverheadBytes)
	if err := d.Resources.AcquireMemory(graphBytes); err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}

	store, err := vectorstore.New[T](p.Dim, p.MaxPoints, p.NumFrozenPoints, d.Resources)
	if err != nil {
		d.Resources.ReleaseMemory(graphBytes)
		return nil, err
	}

	g, err := graph.New(p.MaxPoints, p.NumFrozenPoints, p.GraphDegree)
	if err != nil {
		store.Close()
		d.Resources.ReleaseMemory(graphBytes)
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	log := d.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Index[T]{
		p:          p,
		dist:       dist,
		store:      store,
		g:          g,
		pool:       searcher.NewPool(p.SearchThreads, p.InitialSearchComplexity, g.Slots()),
		log:        log,
		rc:         d.Resources,
		idToSlot:   make(map[uint32]uint32),
		slotToID:   make([]uint32, p.MaxPoints),
		graphBytes: graphBytes,
	}, nil
}

// Params returns the normalized parameters.
func (x *Index[T]) Params() Params { return x.p }

// Dimension returns the vector dimension.
func (x *Index[T]) Dimension() int { return x.p.Dim }

// Len returns the number of bound IDs, tombstoned ones included.
func (x *Index[T]) Len() int {
	x.tagMu.Lock()
	defer x.tagMu.Unlock()
	return len(x.idToSlot)
}

// Contains reports whether id is live.
func (x *Index[T]) Contains(id uint32) bool {
	x.tagMu.Lock()
	defer x.tagMu.Unlock()
	slot, ok := x.idToSlot[id]
	return ok && x.g.State(slot) == graph.Live
}

// Vector returns a copy of the vector stored for a live id.
func (x *Index[T]) Vector(id uint32) ([]T, bool) {
	x.reclaimMu.RLock()
	defer x.reclaimMu.RUnlock()

	x.tagMu.Lock()
	slot, ok := x.idToSlot[id]
	x.tagMu.Unlock()
	if !ok || x.g.State(slot) != graph.Live {
		return nil, false
	}
	return append([]T(nil), x.store.Vector(slot)...), true
}

// Close releases the memory reservations. Further calls fail with ErrClosed.
func (x *Index[T]) Close() error {
	if !x.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	x.structMu.Lock()
	defer x.structMu.Unlock()
	x.reclaimMu.Lock()
	defer x.reclaimMu.Unlock()

	x.store.Close()
	x.rc.ReleaseMemory(x.graphBytes)
	x.graphBytes = 0
	return nil
}

func (x *Index[T]) checkVector(v []T) error {
	if len(v) != x.p.Dim {
		return &ErrDimensionMismatch{Expected: x.p.Dim, Actual: len(v)}
	}
	return nil
}

// distanceTo evaluates the distance between v and the vector at slot.
func (x *Index[T]) distanceTo(v []T, slot uint32) float32 {
	return x.dist(v, x.store.Vector(slot))
}

// bind reserves a slot for id and marks it Pending.
func (x *Index[T]) bind(id uint32) (uint32, error) {
	if id == 0 {
		return 0, invalidParam("id", id, "must be positive")
	}

	x.tagMu.Lock()
	defer x.tagMu.Unlock()

	if _, ok := x.idToSlot[id]; ok {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	slot, err := x.store.Reserve()
	if err != nil {
		return 0, fmt.Errorf("%w: %d points", ErrCapacityExceeded, x.p.MaxPoints)
	}
	x.idToSlot[id] = slot
	x.slotToID[slot] = id
	x.g.SetState(slot, graph.Pending)
	return slot, nil
}

// unbind undoes bind for an insertion that failed before linking.
func (x *Index[T]) unbind(id, slot uint32) {
	x.tagMu.Lock()
	delete(x.idToSlot, id)
	x.slotToID[slot] = 0
	x.g.Reset(slot)
	x.tagMu.Unlock()
	x.store.Release(slot)
}
