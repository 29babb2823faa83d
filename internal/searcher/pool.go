package searcher

import "sync"

// Pool hands out Scratch objects. It starts with a fixed number of
// pre-allocated scratches and creates more on demand when every scratch is
// checked out. A scratch asked for a larger queue than it holds is grown
// in place.
type Pool struct {
	mu       sync.Mutex
	free     []*Scratch
	created  int
	queueCap int
	slots    int
}

// PoolStats describes the pool occupancy.
type PoolStats struct {
	Created int
	Idle    int
}

// NewPool creates a pool pre-allocating prealloc scratches with room for
// queueCap candidates each, over a graph of slots slots.
func NewPool(prealloc, queueCap, slots int) *Pool {
	p := &Pool{
		free:     make([]*Scratch, 0, prealloc),
		queueCap: max(queueCap, 1),
		slots:    slots,
	}
	for range prealloc {
		p.free = append(p.free, NewScratch(p.queueCap, slots))
	}
	p.created = prealloc
	return p
}

// Acquire checks out a reset scratch whose best-L list holds exactly
// queueCap candidates.
func (p *Pool) Acquire(queueCap int) *Scratch {
	p.mu.Lock()
	var s *Scratch
	if n := len(p.free); n > 0 {
		s = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	} else {
		p.created++
	}
	slots := p.slots
	p.mu.Unlock()

	if s == nil {
		s = NewScratch(max(queueCap, p.queueCap), slots)
	}
	s.Reset()
	s.Best.Reserve(queueCap)
	return s
}

// Release returns a scratch to the pool.
func (p *Pool) Release(s *Scratch) {
	if s == nil {
		return
	}
	s.Reset()
	p.mu.Lock()
	p.free = append(p.free, s)
	p.mu.Unlock()
}

// Stats returns the pool occupancy.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Created: p.created, Idle: len(p.free)}
}
