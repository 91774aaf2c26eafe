package shed

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/orchestrator"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each insert attempt.
	RecordInsert(duration time.Duration, err error)

	// RecordRemove is called for every record a cull removed.
	RecordRemove(rec model.Record)

	// RecordCount is called after each count.
	RecordCount(n int, duration time.Duration, err error)

	// RecordCull is called after each cull run.
	RecordCull(status orchestrator.Status, duration time.Duration, err error)

	// RecordPublish is called after each event publication attempt.
	RecordPublish(err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)                    {}
func (NoopMetricsCollector) RecordRemove(model.Record)                            {}
func (NoopMetricsCollector) RecordCount(int, time.Duration, error)                {}
func (NoopMetricsCollector) RecordCull(orchestrator.Status, time.Duration, error) {}
func (NoopMetricsCollector) RecordPublish(error)                                  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	RemoveCount      atomic.Int64
	RemovedWeight    atomic.Uint64
	CountCount       atomic.Int64
	CountErrors      atomic.Int64
	LastCount        atomic.Int64
	CullCount        atomic.Int64
	CullErrors       atomic.Int64
	CullNoneEligible atomic.Int64
	CullTotalNanos   atomic.Int64
	PublishCount     atomic.Int64
	PublishErrors    atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(rec model.Record) {
	b.RemoveCount.Add(1)
	b.RemovedWeight.Add(uint64(rec.Weight))
}

// RecordCount implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCount(n int, _ time.Duration, err error) {
	b.CountCount.Add(1)
	if err != nil {
		b.CountErrors.Add(1)
		return
	}
	b.LastCount.Store(int64(n))
}

// RecordCull implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCull(status orchestrator.Status, duration time.Duration, err error) {
	b.CullCount.Add(1)
	b.CullTotalNanos.Add(duration.Nanoseconds())
	switch {
	case err != nil:
		b.CullErrors.Add(1)
	case status == orchestrator.StatusNoneEligible:
		b.CullNoneEligible.Add(1)
	}
}

// RecordPublish implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPublish(err error) {
	b.PublishCount.Add(1)
	if err != nil {
		b.PublishErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:      b.InsertCount.Load(),
		InsertErrors:     b.InsertErrors.Load(),
		InsertAvgNanos:   avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		RemoveCount:      b.RemoveCount.Load(),
		RemovedWeight:    model.Weight(b.RemovedWeight.Load()),
		CountCount:       b.CountCount.Load(),
		CountErrors:      b.CountErrors.Load(),
		LastCount:        b.LastCount.Load(),
		CullCount:        b.CullCount.Load(),
		CullErrors:       b.CullErrors.Load(),
		CullNoneEligible: b.CullNoneEligible.Load(),
		CullAvgNanos:     avg(b.CullTotalNanos.Load(), b.CullCount.Load()),
		PublishCount:     b.PublishCount.Load(),
		PublishErrors:    b.PublishErrors.Load(),
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
	InsertCount      int64
	InsertErrors     int64
	InsertAvgNanos   int64
	RemoveCount      int64
	RemovedWeight    model.Weight
	CountCount       int64
	CountErrors      int64
	LastCount        int64
	CullCount        int64
	CullErrors       int64
	CullNoneEligible int64
	CullAvgNanos     int64
	PublishCount     int64
	PublishErrors    int64
}
