package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vamana"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg, "main")

	c.RecordInsert(time.Millisecond, nil)
	c.RecordInsert(time.Millisecond, errors.New("boom"))
	c.RecordBatchInsert(10, 2, time.Second)
	c.RecordSearch(10, time.Microsecond, nil)
	c.RecordDelete(time.Microsecond, nil)
	c.RecordConsolidation(vamana.ConsolidationReport{Reclaimed: 5, Requeued: 1}, time.Second, nil)
	c.RecordComplexityAdjustment(5, 10)
	c.RecordSave(time.Second, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.operations.WithLabelValues("main", "insert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues("main", "insert")))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.batchItems.WithLabelValues("main")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.batchFailed.WithLabelValues("main")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.reclaimed.WithLabelValues("main")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.adjustments.WithLabelValues("main")))

	n, err := testutil.GatherAndCount(reg, "vamana_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestPrometheusCollector_WithIndex(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg, "wired")

	cfg := vamana.DefaultConfig()
	cfg.Dim = 2
	cfg.MaxPoints = 10
	x, err := vamana.New[float32](cfg, vamana.WithMetricsCollector(c))
	require.NoError(t, err)
	defer x.Close()

	require.NoError(t, x.Insert(t.Context(), []float32{1, 1}, 1))
	_, _, err = x.Search(t.Context(), []float32{1, 1}, 1, 4)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("wired", "insert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("wired", "search")))
}
