package vamana

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics from an Index. Implement
// it to feed a monitoring system; metrics.PrometheusCollector is one such
// implementation.
type MetricsCollector interface {
	// RecordInsert is called after each insert. err is nil on success.
	RecordInsert(duration time.Duration, err error)

	// RecordBatchInsert is called after each batch insert with the number
	// of vectors attempted and failed.
	RecordBatchInsert(count, failed int, duration time.Duration)

	// RecordSearch is called once per query.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordDelete is called after each MarkDeleted.
	RecordDelete(duration time.Duration, err error)

	// RecordConsolidation is called after each consolidation pass.
	RecordConsolidation(report ConsolidationReport, duration time.Duration, err error)

	// RecordComplexityAdjustment is called when a search raised its
	// complexity because k exceeded it.
	RecordComplexityAdjustment(requested, used int)

	// RecordSave is called after each snapshot write.
	RecordSave(duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)                             {}
func (NoopMetricsCollector) RecordBatchInsert(int, int, time.Duration)                     {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)                        {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)                             {}
func (NoopMetricsCollector) RecordConsolidation(ConsolidationReport, time.Duration, error) {}
func (NoopMetricsCollector) RecordComplexityAdjustment(int, int)                           {}
func (NoopMetricsCollector) RecordSave(time.Duration, error)                               {}

// BasicMetricsCollector keeps counters in memory. Useful for debugging and
// tests.
type BasicMetricsCollector struct {
	InsertCount          atomic.Int64
	InsertErrors         atomic.Int64
	InsertTotalNanos     atomic.Int64
	BatchInsertCount     atomic.Int64
	BatchInsertItems     atomic.Int64
	BatchInsertFailed    atomic.Int64
	SearchCount          atomic.Int64
	SearchErrors         atomic.Int64
	SearchTotalNanos     atomic.Int64
	DeleteCount          atomic.Int64
	DeleteErrors         atomic.Int64
	ConsolidationCount   atomic.Int64
	ConsolidationErrors  atomic.Int64
	Reclaimed            atomic.Int64
	Requeued             atomic.Int64
	ComplexityAdjustment atomic.Int64
	SaveCount            atomic.Int64
	SaveErrors           atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(count, failed int, _ time.Duration) {
	b.BatchInsertCount.Add(1)
	b.BatchInsertItems.Add(int64(count))
	b.BatchInsertFailed.Add(int64(failed))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordConsolidation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConsolidation(rep ConsolidationReport, _ time.Duration, err error) {
	b.ConsolidationCount.Add(1)
	if err != nil {
		b.ConsolidationErrors.Add(1)
		return
	}
	b.Reclaimed.Add(int64(rep.Reclaimed))
	b.Requeued.Add(int64(rep.Requeued))
}

// RecordComplexityAdjustment implements MetricsCollector.
func (b *BasicMetricsCollector) RecordComplexityAdjustment(int, int) {
	b.ComplexityAdjustment.Add(1)
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:           b.InsertCount.Load(),
		InsertErrors:          b.InsertErrors.Load(),
		InsertAvgNanos:        avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		BatchInsertCount:      b.BatchInsertCount.Load(),
		BatchInsertItems:      b.BatchInsertItems.Load(),
		BatchInsertFailed:     b.BatchInsertFailed.Load(),
		SearchCount:           b.SearchCount.Load(),
		SearchErrors:          b.SearchErrors.Load(),
		SearchAvgNanos:        avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		DeleteCount:           b.DeleteCount.Load(),
		DeleteErrors:          b.DeleteErrors.Load(),
		ConsolidationCount:    b.ConsolidationCount.Load(),
		ConsolidationErrors:   b.ConsolidationErrors.Load(),
		Reclaimed:             b.Reclaimed.Load(),
		Requeued:              b.Requeued.Load(),
		ComplexityAdjustments: b.ComplexityAdjustment.Load(),
		SaveCount:             b.SaveCount.Load(),
		SaveErrors:            b.SaveErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount           int64
	InsertErrors          int64
	InsertAvgNanos        int64
	BatchInsertCount      int64
	BatchInsertItems      int64
	BatchInsertFailed     int64
	SearchCount           int64
	SearchErrors          int64
	SearchAvgNanos        int64
	DeleteCount           int64
	DeleteErrors          int64
	ConsolidationCount    int64
	ConsolidationErrors   int64
	Reclaimed             int64
	Requeued              int64
	ComplexityAdjustments int64
	SaveCount             int64
	SaveErrors            int64
}
