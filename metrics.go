package regio

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement it to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAlloc is called after each bump allocation.
	// size is the requested byte count, err is nil on success.
	RecordAlloc(size int, err error)

	// RecordGrow is called after a file-backed region is remapped at a new
	// capacity.
	RecordGrow(oldCapacity, newCapacity uint64)

	// RecordFlush is called after each flush of a mapped region.
	// bytes is the number of bytes synced, err is nil on success.
	RecordFlush(bytes uint64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAlloc(int, error)                   {}
func (NoopMetricsCollector) RecordGrow(uint64, uint64)                {}
func (NoopMetricsCollector) RecordFlush(uint64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	AllocCount      atomic.Int64
	AllocErrors     atomic.Int64
	BytesAllocated  atomic.Int64
	GrowCount       atomic.Int64
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	BytesFlushed    atomic.Int64
	FlushTotalNanos atomic.Int64
}

func (m *BasicMetricsCollector) RecordAlloc(size int, err error) {
	m.AllocCount.Add(1)
	if err != nil {
		m.AllocErrors.Add(1)
		return
	}
	m.BytesAllocated.Add(int64(size))
}

func (m *BasicMetricsCollector) RecordGrow(oldCapacity, newCapacity uint64) {
	m.GrowCount.Add(1)
}

func (m *BasicMetricsCollector) RecordFlush(bytes uint64, duration time.Duration, err error) {
	m.FlushCount.Add(1)
	m.FlushTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.FlushErrors.Add(1)
		return
	}
	m.BytesFlushed.Add(int64(bytes))
}
