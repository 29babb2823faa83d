package vamana

import (
	"github.com/hupe1980/vamana/internal/graph"
	"github.com/hupe1980/vamana/internal/searcher"
)

// Stats describes the index at one point in time.
type Stats struct {
	Graph     graph.Stats
	Capacity  int
	Frozen    int
	FreeSlots int
	Scratch   searcher.PoolStats
}

// Stats walks the graph and returns state and degree counts.
func (x *Index[T]) Stats() Stats {
	return Stats{
		Graph:     x.g.Stats(),
		Capacity:  x.p.MaxPoints,
		Frozen:    len(x.g.Frozen()),
		FreeSlots: x.store.FreeCount(),
		Scratch:   x.pool.Stats(),
	}
}
