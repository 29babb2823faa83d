package vectorstore

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/resource"
	"github.com/tidwall/btree"
)

var (
	// ErrWrongDimension is returned when a vector doesn't match the store dimension.
	ErrWrongDimension = errors.New("wrong vector dimension")

	// ErrFull is returned when every user slot is reserved.
	ErrFull = errors.New("vector store full")

	// ErrSlotInUse is returned when reserving a specific slot that is taken.
	ErrSlotInUse = errors.New("slot in use")
)

// Store is the canonical storage for vectors of element type T.
type Store[T distance.Element] struct {
	dim       int
	maxPoints int
	slots     int
	data      []T

	mu   sync.Mutex
	free *btree.BTreeG[uint32]

	rc    *resource.Controller
	bytes int64
}

func lessSlot(a, b uint32) bool { return a < b }

// New allocates a store for maxPoints user slots plus numFrozen frozen
// slots of dim elements each. The allocation is charged against rc.
func New[T distance.Element](dim, maxPoints, numFrozen int, rc *resource.Controller) (*Store[T], error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vectorstore: dimension must be positive, got %d", dim)
	}
	if maxPoints <= 0 || numFrozen < 0 {
		return nil, fmt.Errorf("vectorstore: invalid capacity %d (+%d frozen)", maxPoints, numFrozen)
	}

	slots := maxPoints + numFrozen
	var zero T
	bytes := int64(slots) * int64(dim) * int64(unsafe.Sizeof(zero))
	if err := rc.AcquireMemory(bytes); err != nil {
		return nil, fmt.Errorf("vectorstore: %w", err)
	}

	free := btree.NewBTreeGOptions(lessSlot, btree.Options{NoLocks: true})
	for i := range maxPoints {
		free.Set(uint32(i))
	}

	return &Store[T]{
		dim:       dim,
		maxPoints: maxPoints,
		slots:     slots,
		data:      make([]T, slots*dim),
		free:      free,
		rc:        rc,
		bytes:     bytes,
	}, nil
}

// Dimension returns the vector dimension.
func (s *Store[T]) Dimension() int { return s.dim }

// MaxPoints returns the number of user slots.
func (s *Store[T]) MaxPoints() int { return s.maxPoints }

// Slots returns the total number of slots, frozen ones included.
func (s *Store[T]) Slots() int { return s.slots }

// SizeBytes returns the size of the vector buffer.
func (s *Store[T]) SizeBytes() int64 { return s.bytes }

// Vector returns the vector at slot. The slice aliases internal memory.
func (s *Store[T]) Vector(slot uint32) []T {
	off := int(slot) * s.dim
	return s.data[off : off+s.dim : off+s.dim]
}

// Set copies v into slot.
func (s *Store[T]) Set(slot uint32, v []T) error {
	if len(v) != s.dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrWrongDimension, s.dim, len(v))
	}
	if int(slot) >= s.slots {
		return fmt.Errorf("vectorstore: slot %d out of range [0, %d)", slot, s.slots)
	}
	copy(s.Vector(slot), v)
	return nil
}

// Reserve takes the lowest free user slot.
func (s *Store[T]) Reserve() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.free.PopMin()
	if !ok {
		return 0, ErrFull
	}
	return slot, nil
}

// ReserveSlot takes a specific user slot. Used when restoring snapshots.
func (s *Store[T]) ReserveSlot(slot uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.free.Delete(slot); !ok {
		return fmt.Errorf("%w: %d", ErrSlotInUse, slot)
	}
	return nil
}

// Release returns a user slot to the free set and zeroes its vector.
func (s *Store[T]) Release(slot uint32) {
	if int(slot) >= s.maxPoints {
		return
	}
	clear(s.Vector(slot))

	s.mu.Lock()
	s.free.Set(slot)
	s.mu.Unlock()
}

// FreeCount returns the number of free user slots.
func (s *Store[T]) FreeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.free.Len()
}

// Data returns the whole flat vector buffer. The slice aliases internal memory.
func (s *Store[T]) Data() []T { return s.data }

// Centroid returns the element-wise mean of the given slots, computed in
// float64.
func (s *Store[T]) Centroid(slots []uint32) []float64 {
	c := make([]float64, s.dim)
	if len(slots) == 0 {
		return c
	}
	for _, slot := range slots {
		for i, v := range s.Vector(slot) {
			c[i] += toFloat64(v)
		}
	}
	inv := 1 / float64(len(slots))
	for i := range c {
		c[i] *= inv
	}
	return c
}

// Close releases the memory reservation.
func (s *Store[T]) Close() {
	s.rc.ReleaseMemory(s.bytes)
	s.bytes = 0
}
