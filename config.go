package vamana

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/resource"
	core "github.com/hupe1980/vamana/internal/vamana"
	"github.com/hupe1980/vamana/persistence"
)

// Config describes an index. It can be loaded from YAML:
//
//	dtype: float32
//	metric: l2
//	dim: 128
//	max_points: 1000000
//	graph_degree: 64
//	complexity: 100
//	alpha: 1.2
//	index_path: /var/lib/vamana/main.vmn
type Config struct {
	DType     DType  `yaml:"dtype"`
	Metric    Metric `yaml:"metric"`
	Dim       int    `yaml:"dim"`
	MaxPoints int    `yaml:"max_points"`

	// GraphDegree is R, the maximum out-degree.
	GraphDegree int `yaml:"graph_degree"`
	// Complexity is L, the candidate-list size used while building.
	Complexity int `yaml:"complexity"`
	// InsertComplexity overrides Complexity for Insert. 0 means Complexity.
	InsertComplexity int     `yaml:"insert_complexity"`
	Alpha            float32 `yaml:"alpha"`
	MaxOcclusionSize int     `yaml:"max_occlusion_size"`
	SaturateGraph    bool    `yaml:"saturate_graph"`
	NumFrozenPoints  int     `yaml:"num_frozen_points"`

	// NumThreads bounds build and batch workers. 0 means all CPUs.
	NumThreads              int `yaml:"num_threads"`
	SearchThreads           int `yaml:"search_threads"`
	InitialSearchComplexity int `yaml:"initial_search_complexity"`

	// FilterComplexity is accepted for compatibility and ignored.
	FilterComplexity int `yaml:"filter_complexity"`

	ConcurrentConsolidation bool   `yaml:"concurrent_consolidation"`
	Seed                    uint64 `yaml:"seed"`

	// IndexPath is where Save writes when called with an empty path.
	IndexPath         string                  `yaml:"index_path"`
	Compression       persistence.Compression `yaml:"compression"`
	CompactBeforeSave bool                    `yaml:"compact_before_save"`

	Resources resource.Limits `yaml:"resources"`
}

// DefaultConfig returns a float32 L2 configuration with the usual Vamana
// defaults. Dim and MaxPoints must still be set.
func DefaultConfig() Config {
	return Config{
		DType:                   DTypeFloat32,
		Metric:                  MetricL2,
		GraphDegree:             64,
		Complexity:              100,
		Alpha:                   core.DefaultAlpha,
		MaxOcclusionSize:        core.DefaultMaxOcclusionSize,
		NumFrozenPoints:         core.DefaultNumFrozenPoints,
		ConcurrentConsolidation: true,
		Compression:             persistence.CompressionLZ4,
	}
}

// LoadConfig reads a YAML config file. Missing keys keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML on top of DefaultConfig and validates the
// result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse config: %v", ErrInvalidArgument, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field and returns an *ErrInvalidParameter for the
// first violation.
func (c Config) Validate() error {
	switch {
	case c.DType.Size() == 0:
		return invalidParam("dtype", c.DType, "unknown element type")
	case c.Metric != MetricL2 && c.Metric != MetricMIPS:
		return invalidParam("metric", c.Metric, "must be l2 or mips")
	case c.Metric == MetricMIPS && !c.DType.IsFloat():
		return invalidParam("metric", c.Metric, fmt.Sprintf("mips requires a floating element type, got %s", c.DType))
	case c.Dim <= 0:
		return invalidParam("dim", c.Dim, "must be positive")
	case c.MaxPoints <= 0:
		return invalidParam("max_points", c.MaxPoints, "must be positive")
	case c.GraphDegree <= 0:
		return invalidParam("graph_degree", c.GraphDegree, "must be positive")
	case c.Complexity <= 0:
		return invalidParam("complexity", c.Complexity, "must be positive")
	case c.InsertComplexity < 0:
		return invalidParam("insert_complexity", c.InsertComplexity, "must not be negative")
	case c.Alpha < 1:
		return invalidParam("alpha", c.Alpha, "must be at least 1")
	case c.MaxOcclusionSize < 0:
		return invalidParam("max_occlusion_size", c.MaxOcclusionSize, "must not be negative")
	case c.NumFrozenPoints < 0:
		return invalidParam("num_frozen_points", c.NumFrozenPoints, "must not be negative")
	case c.NumThreads < 0:
		return invalidParam("num_threads", c.NumThreads, "must not be negative")
	case c.SearchThreads < 0:
		return invalidParam("search_threads", c.SearchThreads, "must not be negative")
	case c.InitialSearchComplexity < 0:
		return invalidParam("initial_search_complexity", c.InitialSearchComplexity, "must not be negative")
	case c.FilterComplexity < 0:
		return invalidParam("filter_complexity", c.FilterComplexity, "must not be negative")
	case c.Compression > persistence.CompressionZSTD:
		return invalidParam("compression", c.Compression, "unknown codec")
	}
	return nil
}

func (c Config) params() core.Params {
	return core.Params{
		Dim:                     c.Dim,
		MaxPoints:               c.MaxPoints,
		Metric:                  c.Metric,
		GraphDegree:             c.GraphDegree,
		Complexity:              c.Complexity,
		InsertComplexity:        c.InsertComplexity,
		Alpha:                   c.Alpha,
		MaxOcclusionSize:        c.MaxOcclusionSize,
		SaturateGraph:           c.SaturateGraph,
		NumFrozenPoints:         c.NumFrozenPoints,
		NumThreads:              c.NumThreads,
		SearchThreads:           c.SearchThreads,
		InitialSearchComplexity: c.InitialSearchComplexity,
		ConcurrentConsolidation: c.ConcurrentConsolidation,
		Seed:                    c.Seed,
	}
}

// configFromParams rebuilds a Config from loaded index parameters.
func configFromParams(p core.Params, dt distance.DType) Config {
	cfg := DefaultConfig()
	cfg.DType = dt
	cfg.Metric = p.Metric
	cfg.Dim = p.Dim
	cfg.MaxPoints = p.MaxPoints
	cfg.GraphDegree = p.GraphDegree
	cfg.Complexity = p.Complexity
	cfg.InsertComplexity = p.InsertComplexity
	cfg.Alpha = p.Alpha
	cfg.MaxOcclusionSize = p.MaxOcclusionSize
	cfg.SaturateGraph = p.SaturateGraph
	cfg.NumFrozenPoints = p.NumFrozenPoints
	cfg.NumThreads = p.NumThreads
	cfg.SearchThreads = p.SearchThreads
	cfg.InitialSearchComplexity = p.InitialSearchComplexity
	cfg.ConcurrentConsolidation = p.ConcurrentConsolidation
	cfg.Seed = p.Seed
	return cfg
}
