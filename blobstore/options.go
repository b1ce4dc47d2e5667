package blobstore

import (
	"github.com/WeiyueSUN/packlens-audio-preview/metric"
)

// Option configures store behavior using the functional options pattern.
type Option func(*storeOptions)

// storeOptions holds internal configuration for store instances.
// Stats are ALWAYS collected; Prometheus metrics are optional.
type storeOptions struct {
	metricsReg      *metric.MetricsRegistry
	metricsPrefix   string
	releaseCallback ReleaseCallback
}

// WithMetrics enables Prometheus metrics export for store statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics(registry *metric.MetricsRegistry, prefix string) Option {
	return func(opts *storeOptions) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithReleaseCallback sets a callback invoked for each entry removed via
// Release or ClearAll, after the entry has left the store.
func WithReleaseCallback(callback ReleaseCallback) Option {
	return func(opts *storeOptions) {
		opts.releaseCallback = callback
	}
}

// applyOptions applies functional options to create final store configuration.
func applyOptions(options ...Option) *storeOptions {
	opts := &storeOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
