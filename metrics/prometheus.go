// Package metrics exports index metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/vamana"
)

var _ vamana.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector implements vamana.MetricsCollector with Prometheus
// counters and histograms. Every series carries an "index" label.
type PrometheusCollector struct {
	operations  *prometheus.CounterVec
	errors      *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	batchItems  *prometheus.CounterVec
	batchFailed *prometheus.CounterVec
	reclaimed   *prometheus.CounterVec
	requeued    *prometheus.CounterVec
	adjustments *prometheus.CounterVec
	searchK     *prometheus.HistogramVec
	index       string
}

// NewPrometheusCollector registers the vamana metrics with reg (the
// default registerer when nil) and labels them with index.
func NewPrometheusCollector(reg prometheus.Registerer, index string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusCollector{
		index: index,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vamana_operations_total",
			Help: "Index operations by type.",
		}, []string{"index", "op"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vamana_operation_errors_total",
			Help: "Failed index operations by type.",
		}, []string{"index", "op"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "vamana_operation_duration_seconds",
			Help: "Index operation latency.",
			// From sub-millisecond searches to multi-second consolidations.
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"index", "op"}),
		batchItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vamana_batch_insert_items_total",
			Help: "Vectors submitted through BatchInsert.",
		}, []string{"index"}),
		batchFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vamana_batch_insert_failed_total",
			Help: "Vectors rejected by BatchInsert.",
		}, []string{"index"}),
		reclaimed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vamana_consolidation_reclaimed_total",
			Help: "Slots reclaimed by consolidation.",
		}, []string{"index"}),
		requeued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vamana_consolidation_requeued_total",
			Help: "Repairs retried because a node changed during consolidation.",
		}, []string{"index"}),
		adjustments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vamana_search_complexity_adjustments_total",
			Help: "Searches whose complexity was raised to k.",
		}, []string{"index"}),
		searchK: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vamana_search_k",
			Help:    "Requested k per search.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"index"}),
	}
}

func (p *PrometheusCollector) record(op string, d time.Duration, err error) {
	p.operations.WithLabelValues(p.index, op).Inc()
	p.latency.WithLabelValues(p.index, op).Observe(d.Seconds())
	if err != nil {
		p.errors.WithLabelValues(p.index, op).Inc()
	}
}

// RecordInsert implements vamana.MetricsCollector.
func (p *PrometheusCollector) RecordInsert(d time.Duration, err error) { p.record("insert", d, err) }

// RecordBatchInsert implements vamana.MetricsCollector.
func (p *PrometheusCollector) RecordBatchInsert(count, failed int, d time.Duration) {
	p.record("batch_insert", d, nil)
	p.batchItems.WithLabelValues(p.index).Add(float64(count))
	p.batchFailed.WithLabelValues(p.index).Add(float64(failed))
}

// RecordSearch implements vamana.MetricsCollector.
func (p *PrometheusCollector) RecordSearch(k int, d time.Duration, err error) {
	p.record("search", d, err)
	p.searchK.WithLabelValues(p.index).Observe(float64(k))
}

// RecordDelete implements vamana.MetricsCollector.
func (p *PrometheusCollector) RecordDelete(d time.Duration, err error) { p.record("delete", d, err) }

// RecordConsolidation implements vamana.MetricsCollector.
func (p *PrometheusCollector) RecordConsolidation(rep vamana.ConsolidationReport, d time.Duration, err error) {
	p.record("consolidate", d, err)
	if err == nil {
		p.reclaimed.WithLabelValues(p.index).Add(float64(rep.Reclaimed))
		p.requeued.WithLabelValues(p.index).Add(float64(rep.Requeued))
	}
}

// RecordComplexityAdjustment implements vamana.MetricsCollector.
func (p *PrometheusCollector) RecordComplexityAdjustment(int, int) {
	p.adjustments.WithLabelValues(p.index).Inc()
}

// RecordSave implements vamana.MetricsCollector.
func (p *PrometheusCollector) RecordSave(d time.Duration, err error) { p.record("save", d, err) }
