package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains core viewer metrics shared across components.
// Component-local metrics (blob store gauges, window utilization) are
// registered separately through the MetricsRegistrar interface.
type Metrics struct {
	// Page pipeline metrics
	PagesRequested    *prometheus.CounterVec
	PagesLoaded       *prometheus.CounterVec
	PageLoadErrors    *prometheus.CounterVec
	PageLoadCoalesced prometheus.Counter
	WindowMerges      *prometheus.CounterVec

	// Blob metrics
	BlobsRegistered prometheus.Counter
	BlobBytes       prometheus.Gauge

	// Session metrics
	SessionReloads     prometheus.Counter
	TransportConnected prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all core metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PagesRequested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "packlens",
				Subsystem: "pages",
				Name:      "requested_total",
				Help:      "Total number of page load requests issued",
			},
			[]string{"direction"},
		),

		PagesLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "packlens",
				Subsystem: "pages",
				Name:      "loaded_total",
				Help:      "Total number of pages merged into the window",
			},
			[]string{"direction"},
		),

		PageLoadErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "packlens",
				Subsystem: "pages",
				Name:      "errors_total",
				Help:      "Total number of failed page loads",
			},
			[]string{"class"},
		),

		PageLoadCoalesced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "packlens",
				Subsystem: "pages",
				Name:      "coalesced_total",
				Help:      "Total number of page requests coalesced onto an in-flight load",
			},
		),

		WindowMerges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "packlens",
				Subsystem: "window",
				Name:      "merges_total",
				Help:      "Total number of window merge transitions",
			},
			[]string{"direction"},
		),

		BlobsRegistered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "packlens",
				Subsystem: "blobs",
				Name:      "registered_total",
				Help:      "Total number of blobs registered during externalization",
			},
		),

		BlobBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "packlens",
				Subsystem: "blobs",
				Name:      "bytes",
				Help:      "Bytes currently held by the blob store",
			},
		),

		SessionReloads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "packlens",
				Subsystem: "session",
				Name:      "reloads_total",
				Help:      "Total number of session reloads triggered by source changes",
			},
		),

		TransportConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "packlens",
				Subsystem: "transport",
				Name:      "connected",
				Help:      "Decode transport connection status (0=disconnected, 1=connected)",
			},
		),
	}
}
