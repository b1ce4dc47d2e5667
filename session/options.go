package session

import (
	"log/slog"

	"github.com/WeiyueSUN/packlens-audio-preview/metric"
	"github.com/WeiyueSUN/packlens-audio-preview/window"
)

type sessionConfig struct {
	logger       *slog.Logger
	pageCapacity int
	filterScript string
	metricsReg   *metric.MetricsRegistry
	watchPath    string
}

// Option configures a Session.
type Option func(*sessionConfig)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *sessionConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPageCapacity sets how many pages the window retains.
func WithPageCapacity(pages int) Option {
	return func(c *sessionConfig) {
		if pages > 0 {
			c.pageCapacity = pages
		}
	}
}

// WithFilterScript sets the filter script passed verbatim to the decode
// service at init time. The session never interprets it.
func WithFilterScript(script string) Option {
	return func(c *sessionConfig) {
		c.filterScript = script
	}
}

// WithMetricsRegistry enables metrics collection for the session and its
// blob store.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(c *sessionConfig) {
		c.metricsReg = registry
	}
}

// WithSourceWatch watches the given file and reloads the session when it
// changes on disk.
func WithSourceWatch(path string) Option {
	return func(c *sessionConfig) {
		c.watchPath = path
	}
}

func applyOptions(options ...Option) *sessionConfig {
	cfg := &sessionConfig{
		logger:       slog.Default(),
		pageCapacity: window.DefaultPageCapacity,
	}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}
