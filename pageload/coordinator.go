// Package pageload deduplicates and sequences page-load requests against
// the external decode boundary. Concurrent requests for the same page
// number coalesce onto one outstanding fetch; distinct page numbers may be
// in flight at the same time.
package pageload

import (
	"context"
	"log/slog"
	"sync"

	"github.com/WeiyueSUN/packlens-audio-preview/decode"
	"github.com/WeiyueSUN/packlens-audio-preview/errors"
	"github.com/WeiyueSUN/packlens-audio-preview/metric"
)

// Issuer sends the actual page request to the decode boundary. The call
// must not block on the response: the response arrives asynchronously
// through CompletePage.
type Issuer interface {
	IssuePageRequest(pageNumber int) error
}

// IssuerFunc adapts a function to the Issuer interface.
type IssuerFunc func(pageNumber int) error

// IssuePageRequest calls f.
func (f IssuerFunc) IssuePageRequest(pageNumber int) error { return f(pageNumber) }

// pendingLoad tracks one outstanding fetch shared by every waiter.
type pendingLoad struct {
	done   chan struct{}
	result *decode.PageResult
	err    error
}

// Coordinator guarantees at most one in-flight load per page number.
// There is no mid-flight cancellation: a waiter whose context expires
// abandons the wait, the fetch itself runs to completion.
type Coordinator struct {
	mu      sync.Mutex
	issuer  Issuer
	enabled bool
	pending map[int]*pendingLoad

	coalesced int64 // requests attached to an in-flight load
	issued    int64

	core   *metric.Metrics // nil when metrics are not wired
	logger *slog.Logger
}

// Option configures coordinator behavior.
type Option func(*Coordinator)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics exports coalescing counts to the core metrics. A nil value
// is ignored.
func WithMetrics(core *metric.Metrics) Option {
	return func(c *Coordinator) {
		c.core = core
	}
}

// NewCoordinator creates an enabled coordinator issuing through issuer.
func NewCoordinator(issuer Issuer, options ...Option) *Coordinator {
	c := &Coordinator{
		issuer:  issuer,
		enabled: true,
		pending: make(map[int]*pendingLoad),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RequestPage asks for page n and waits for its completion. If a request
// for n is already pending, this call shares the outstanding completion
// without issuing a duplicate fetch. While the coordinator is disabled the
// call is a no-op returning errors.ErrLoaderDisabled.
func (c *Coordinator) RequestPage(ctx context.Context, n int) (*decode.PageResult, error) {
	if n < 1 {
		return nil, errors.WrapInvalid(errors.ErrInvalidPageNumber, "Coordinator", "RequestPage", "page number must be >= 1")
	}

	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return nil, errors.ErrLoaderDisabled
	}

	load, exists := c.pending[n]
	if exists {
		c.coalesced++
		c.mu.Unlock()
		if c.core != nil {
			c.core.PageLoadCoalesced.Inc()
		}
		c.logger.Debug("coalescing page request onto in-flight load", "page", n)
		return c.wait(ctx, load)
	}

	load = &pendingLoad{done: make(chan struct{})}
	c.pending[n] = load
	c.issued++
	c.mu.Unlock()

	c.logger.Debug("issuing page request", "page", n)
	if err := c.issuer.IssuePageRequest(n); err != nil {
		// The fetch never left; settle the pending load so coalesced
		// waiters see the failure too.
		c.CompletePage(n, nil, errors.WrapTransient(err, "Coordinator", "RequestPage", "issue page request"))
	}

	return c.wait(ctx, load)
}

// wait blocks until the load settles or the waiter's context expires.
func (c *Coordinator) wait(ctx context.Context, load *pendingLoad) (*decode.PageResult, error) {
	select {
	case <-load.done:
		return load.result, load.err
	case <-ctx.Done():
		return nil, errors.WrapTransient(ctx.Err(), "Coordinator", "RequestPage", "wait for page")
	}
}

// CompletePage settles the pending load for page n with the given result or
// error and releases every waiter. Completions for unknown page numbers are
// ignored; late responses after SetEnabled(false) fall into this path.
func (c *Coordinator) CompletePage(n int, result *decode.PageResult, err error) {
	c.mu.Lock()
	load, exists := c.pending[n]
	if exists {
		delete(c.pending, n)
	}
	c.mu.Unlock()

	if !exists {
		c.logger.Debug("dropping completion for unknown page", "page", n)
		return
	}

	load.result = result
	load.err = err
	close(load.done)

	if err != nil {
		c.logger.Warn("page load failed", "page", n, "error", err)
	}
}

// SetEnabled toggles request issuing. Disabling does not cancel in-flight
// loads; it only stops new ones, which is the teardown path when the parser
// script changes and a fresh read begins. Pending loads left behind at
// disable time are settled with errors.ErrLoaderDisabled so no waiter
// blocks forever.
func (c *Coordinator) SetEnabled(enabled bool) {
	c.mu.Lock()
	c.enabled = enabled
	var abandoned map[int]*pendingLoad
	if !enabled && len(c.pending) > 0 {
		abandoned = c.pending
		c.pending = make(map[int]*pendingLoad)
	}
	c.mu.Unlock()

	for n, load := range abandoned {
		load.err = errors.ErrLoaderDisabled
		close(load.done)
		c.logger.Debug("abandoned pending load on disable", "page", n)
	}
}

// Enabled reports whether the coordinator is issuing requests.
func (c *Coordinator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Pending returns the page numbers currently in flight.
func (c *Coordinator) Pending() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.pending))
	for n := range c.pending {
		out = append(out, n)
	}
	return out
}

// Coalesced returns how many requests were attached to an in-flight load
// instead of issuing their own fetch.
func (c *Coordinator) Coalesced() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coalesced
}

// Issued returns how many fetches were actually issued.
func (c *Coordinator) Issued() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issued
}
