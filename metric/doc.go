// Package metric provides Prometheus metrics registration and serving for
// packlens components.
//
// # Overview
//
// The package wraps a private Prometheus registry with component-scoped
// registration and duplicate detection. Core pipeline metrics (page loads,
// window merges, blob registrations) are created once per registry;
// components register their own counters and gauges through the
// MetricsRegistrar interface.
//
// # Quick Start
//
//	registry := metric.NewMetricsRegistry()
//
//	// Core metrics are ready immediately
//	registry.Metrics.PagesLoaded.WithLabelValues("forward").Inc()
//
//	// Components register their own metrics
//	err := registry.RegisterGauge("blobstore", "entries", entriesGauge)
//
//	// Serve /metrics
//	server := metric.NewServer(9090, "/metrics", registry)
//	err = server.Start()
//
// Duplicate registrations return a classified invalid error rather than
// panicking, so a reloaded session cannot take the process down.
package metric
