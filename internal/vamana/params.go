package vamana

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/resource"
)

const (
	// DefaultAlpha is the default pruning slack.
	DefaultAlpha = 1.2
	// DefaultMaxOcclusionSize caps the candidates considered by one prune.
	DefaultMaxOcclusionSize = 750
	// DefaultNumFrozenPoints is the default number of entry points.
	DefaultNumFrozenPoints = 1
)

// Params configures an Index. Zero values of optional fields are replaced
// by defaults in normalize.
type Params struct {
	Dim       int
	MaxPoints int
	Metric    distance.Metric

	// GraphDegree is R, the out-degree bound.
	GraphDegree int
	// Complexity is L, the build-time candidate-list size.
	Complexity int
	// InsertComplexity is the candidate-list size of Insert. Defaults to
	// Complexity.
	InsertComplexity int
	Alpha            float32
	MaxOcclusionSize int
	SaturateGraph    bool

	NumFrozenPoints int
	// NumThreads bounds Build and BatchInsert workers. 0 means GOMAXPROCS.
	NumThreads int

	// SearchThreads and InitialSearchComplexity size the scratch pool
	// up front.
	SearchThreads           int
	InitialSearchComplexity int

	ConcurrentConsolidation bool

	// Seed drives the choice of extra frozen points during Build.
	Seed uint64
}

// Deps are the collaborators of an Index.
type Deps struct {
	Logger    *slog.Logger
	Resources *resource.Controller
}

func (p Params) normalize() Params {
	if p.InsertComplexity == 0 {
		p.InsertComplexity = p.Complexity
	}
	if p.Alpha == 0 {
		p.Alpha = DefaultAlpha
	}
	if p.MaxOcclusionSize == 0 {
		p.MaxOcclusionSize = DefaultMaxOcclusionSize
	}
	if p.NumFrozenPoints == 0 {
		p.NumFrozenPoints = DefaultNumFrozenPoints
	}
	if p.NumThreads == 0 {
		p.NumThreads = runtime.GOMAXPROCS(0)
	}
	if p.SearchThreads == 0 {
		p.SearchThreads = p.NumThreads
	}
	if p.InitialSearchComplexity == 0 {
		p.InitialSearchComplexity = p.Complexity
	}
	return p
}

// Validate checks the parameters after defaults have been applied.
func (p Params) Validate() error {
	p = p.normalize()
	switch {
	case p.Dim <= 0:
		return invalidParam("dim", p.Dim, "must be positive")
	case p.MaxPoints <= 0:
		return invalidParam("max_points", p.MaxPoints, "must be positive")
	case p.GraphDegree <= 0:
		return invalidParam("graph_degree", p.GraphDegree, "must be positive")
	case p.Complexity <= 0:
		return invalidParam("complexity", p.Complexity, "must be positive")
	case p.InsertComplexity < 0:
		return invalidParam("insert_complexity", p.InsertComplexity, "must not be negative")
	case p.Alpha < 1:
		return invalidParam("alpha", p.Alpha, "must be >= 1")
	case p.MaxOcclusionSize < p.GraphDegree:
		return invalidParam("max_occlusion_size", p.MaxOcclusionSize, "must be >= graph_degree")
	case p.NumFrozenPoints < 0:
		return invalidParam("num_frozen_points", p.NumFrozenPoints, "must not be negative")
	case p.NumThreads < 0:
		return invalidParam("num_threads", p.NumThreads, "must not be negative")
	case p.SearchThreads < 0:
		return invalidParam("search_threads", p.SearchThreads, "must not be negative")
	case p.InitialSearchComplexity < 0:
		return invalidParam("initial_search_complexity", p.InitialSearchComplexity, "must not be negative")
	case p.Metric != distance.MetricL2 && p.Metric != distance.MetricMIPS:
		return invalidParam("metric", p.Metric, "unsupported")
	}
	return nil
}
