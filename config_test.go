package vamana

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vamana/persistence"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
dtype: uint8
metric: L2
dim: 96
max_points: 5000
graph_degree: 32
complexity: 50
saturate_graph: true
num_frozen_points: 3
filter_complexity: 10
compression: zstd
resources:
  memory_bytes: 1048576
`))
	require.NoError(t, err)

	assert.Equal(t, DTypeUint8, cfg.DType)
	assert.Equal(t, MetricL2, cfg.Metric)
	assert.Equal(t, 96, cfg.Dim)
	assert.Equal(t, 32, cfg.GraphDegree)
	assert.True(t, cfg.SaturateGraph)
	assert.Equal(t, 3, cfg.NumFrozenPoints)
	assert.Equal(t, persistence.CompressionZSTD, cfg.Compression)
	assert.Equal(t, int64(1<<20), cfg.Resources.MemoryBytes)

	// Untouched keys keep their defaults.
	assert.InDelta(t, 1.2, cfg.Alpha, 1e-6)
	assert.Equal(t, 750, cfg.MaxOcclusionSize)
	assert.True(t, cfg.ConcurrentConsolidation)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"MissingDim", "max_points: 10"},
		{"UnknownMetric", "dim: 4\nmax_points: 10\nmetric: cosine"},
		{"MIPSOnInt8", "dim: 4\nmax_points: 10\ndtype: int8\nmetric: mips"},
		{"Alpha", "dim: 4\nmax_points: 10\nalpha: 0.9"},
		{"Syntax", "dim: [4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vamana.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dim: 8\nmax_points: 100\nindex_path: /tmp/x.vmn\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Dim)
	assert.Equal(t, "/tmp/x.vmn", cfg.IndexPath)
	assert.Equal(t, DTypeFloat32, cfg.DType)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseNames(t *testing.T) {
	dt, err := ParseDType("f16")
	require.NoError(t, err)
	assert.Equal(t, DTypeFloat16, dt)

	m, err := ParseMetric("MIPS")
	require.NoError(t, err)
	assert.Equal(t, MetricMIPS, m)

	_, err = ParseMetric("hamming")
	assert.Error(t, err)
}
