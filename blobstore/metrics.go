package blobstore

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/WeiyueSUN/packlens-audio-preview/metric"
)

// storeMetrics holds Prometheus metrics for blob store operations.
type storeMetrics struct {
	registers prometheus.Counter
	hits      prometheus.Counter
	misses    prometheus.Counter
	releases  prometheus.Counter

	entries    prometheus.Gauge
	totalBytes prometheus.Gauge

	// Core aggregate counter shared across stores.
	coreRegisters prometheus.Counter
}

// newStoreMetrics creates and registers store metrics with the provided registry.
func newStoreMetrics(registry *metric.MetricsRegistry, prefix string) (*storeMetrics, error) {
	m := &storeMetrics{
		registers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "packlens",
			Subsystem:   "blobstore",
			Name:        "registers_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of blob registrations",
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "packlens",
			Subsystem:   "blobstore",
			Name:        "hits_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of successful handle lookups",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "packlens",
			Subsystem:   "blobstore",
			Name:        "misses_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of lookups for released or unknown handles",
		}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "packlens",
			Subsystem:   "blobstore",
			Name:        "releases_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of released entries",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "packlens",
			Subsystem:   "blobstore",
			Name:        "entries",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of entries in the store",
		}),
		totalBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "packlens",
			Subsystem:   "blobstore",
			Name:        "bytes",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Bytes currently held by the store",
		}),
	}

	if err := registry.RegisterCounter(prefix, "blobstore_registers", m.registers); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "blobstore_hits", m.hits); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "blobstore_misses", m.misses); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "blobstore_releases", m.releases); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "blobstore_entries", m.entries); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "blobstore_bytes", m.totalBytes); err != nil {
		return nil, err
	}

	m.coreRegisters = registry.CoreMetrics().BlobsRegistered

	return m, nil
}

// recordRegister increments the register counters and updates gauges.
func (m *storeMetrics) recordRegister(count int, bytes int64) {
	m.registers.Inc()
	m.coreRegisters.Inc()
	m.updateSize(count, bytes)
}

// recordHit increments the hit counter.
func (m *storeMetrics) recordHit() {
	m.hits.Inc()
}

// recordMiss increments the miss counter.
func (m *storeMetrics) recordMiss() {
	m.misses.Inc()
}

// recordRelease increments the release counter and updates gauges.
func (m *storeMetrics) recordRelease(count int, bytes int64) {
	m.releases.Inc()
	m.updateSize(count, bytes)
}

// updateSize sets the current entry count and byte total.
func (m *storeMetrics) updateSize(count int, bytes int64) {
	m.entries.Set(float64(count))
	m.totalBytes.Set(float64(bytes))
}
