// Package session orchestrates one viewing session over a paged container
// file: it drives the decode boundary, externalizes every page before it
// reaches the window, keeps the window's continuation invariant (incomplete
// filtered pages trigger immediate follow-up fetches), and owns the blob
// store lifecycle from open to teardown.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/WeiyueSUN/packlens-audio-preview/blobstore"
	"github.com/WeiyueSUN/packlens-audio-preview/decode"
	"github.com/WeiyueSUN/packlens-audio-preview/errors"
	"github.com/WeiyueSUN/packlens-audio-preview/externalize"
	"github.com/WeiyueSUN/packlens-audio-preview/metric"
	"github.com/WeiyueSUN/packlens-audio-preview/pageload"
	"github.com/WeiyueSUN/packlens-audio-preview/window"
)

// Stats is a point-in-time diagnostic snapshot of the session.
type Stats struct {
	MinPage              int
	MaxPage              int
	EntityCount          int
	TotalEntities        int
	TotalDecodedEntities int
	HasNextPage          bool
	HasPreviousPage      bool
	Blobs                blobstore.StoreStats
}

// Session is a single-document viewing session. One session owns one
// window, one blob store, and one coordinator; concurrent sessions over the
// same cache are out of scope.
type Session struct {
	pageSize     int
	pageCapacity int
	filterScript string

	svc    decode.Service
	coord  *pageload.Coordinator
	store  *blobstore.Store
	ext    *externalize.Externalizer
	logger *slog.Logger
	core   *metric.Metrics // nil when metrics are not wired

	mu            sync.Mutex
	win           *window.Window
	open          bool
	totalEntities int
	totalDecoded  int

	watchPath string
	watchStop func()
}

// New creates a session over the given decode service.
func New(svc decode.Service, pageSize int, options ...Option) (*Session, error) {
	if svc == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Session", "New", "nil decode service")
	}
	if pageSize < 1 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Session", "New", "page size must be >= 1")
	}

	cfg := applyOptions(options...)

	storeOpts := []blobstore.Option{}
	if cfg.metricsReg != nil {
		storeOpts = append(storeOpts, blobstore.WithMetrics(cfg.metricsReg, "session"))
	}
	store, err := blobstore.New(storeOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "Session", "New", "blob store")
	}

	s := &Session{
		pageSize:     pageSize,
		pageCapacity: cfg.pageCapacity,
		filterScript: cfg.filterScript,
		svc:          svc,
		store:        store,
		ext:          externalize.New(store),
		logger:       cfg.logger,
		win:          window.New(pageSize, window.WithPageCapacity(cfg.pageCapacity)),
		watchPath:    cfg.watchPath,
	}
	if cfg.metricsReg != nil {
		s.core = cfg.metricsReg.CoreMetrics()
	}

	s.coord = pageload.NewCoordinator(
		pageload.IssuerFunc(s.issuePageRequest),
		pageload.WithLogger(s.logger),
		pageload.WithMetrics(s.core),
	)

	return s, nil
}

// issuePageRequest sends the fetch to the decode boundary without blocking
// the coordinator. There is no mid-flight cancellation, so the fetch runs
// on the background context; the waiter's context only governs the wait.
func (s *Session) issuePageRequest(pageNumber int) error {
	go func() {
		result, err := s.svc.LoadPage(context.Background(), pageNumber)
		s.coord.CompletePage(pageNumber, result, err)
	}()
	return nil
}

// Open starts the read: it performs the init exchange, seeds the window
// with page 1, and runs the continuation loop if filtering left that page
// incomplete. If a source path was configured, the file watcher starts
// after a successful open.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return errors.ErrAlreadyOpen
	}
	s.mu.Unlock()

	result, err := s.svc.InitRead(ctx, s.pageSize, s.filterScript)
	if err != nil {
		return errors.WrapTransient(err, "Session", "Open", "init read")
	}
	if result == nil {
		return errors.WrapInvalid(errors.ErrEmptyResponse, "Session", "Open", "init read")
	}

	entities := s.ext.ExternalizePage(result.Data)

	s.mu.Lock()
	s.win = window.NewSeeded(s.pageSize, result.PageNumber, entities, result.HasNextPage,
		window.WithPageCapacity(s.pageCapacity))
	s.totalEntities = result.TotalEntities
	s.totalDecoded = result.TotalDecodedEntities
	s.open = true
	s.mu.Unlock()

	s.recordLoad("forward")
	s.logger.Info("session opened",
		"pageSize", s.pageSize,
		"entities", len(entities),
		"totalEntities", result.TotalEntities,
		"hasNextPage", result.HasNextPage)

	if !result.IsPageComplete && result.HasNextPage {
		if err := s.loadForwardFrom(ctx, result.PageNumber+1); err != nil {
			return err
		}
	}

	if s.watchPath != "" {
		if err := s.startWatcher(); err != nil {
			s.logger.Warn("source watch unavailable", "path", s.watchPath, "error", err)
		}
	}

	return nil
}

// LoadNext extends the window forward by one logical page, following
// incomplete filtered pages until the page fills or the source is
// exhausted. A no-op when the source has no further pages.
func (s *Session) LoadNext(ctx context.Context) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return errors.ErrNotOpen
	}
	if !s.win.HasNextPage() {
		s.mu.Unlock()
		return nil
	}
	target := s.win.MaxPage() + 1
	s.mu.Unlock()

	return s.loadForwardFrom(ctx, target)
}

// loadForwardFrom runs the forward continuation loop starting at target.
func (s *Session) loadForwardFrom(ctx context.Context, target int) error {
	for {
		s.recordRequest("forward")
		result, err := s.coord.RequestPage(ctx, target)
		if err != nil {
			s.recordError(err)
			return errors.Wrap(err, "Session", "LoadNext", "page fetch")
		}

		s.merge(result, "forward")

		// The filter may have thinned this page below pageSize; keep
		// fetching so one logical scroll fills the window.
		if result.IsPageComplete || !result.HasNextPage {
			return nil
		}
		target = result.PageNumber + 1
	}
}

// LoadPrevious extends the window backward by one page. A no-op when the
// window already starts at page 1.
func (s *Session) LoadPrevious(ctx context.Context) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return errors.ErrNotOpen
	}
	if !s.win.HasPreviousPage() {
		s.mu.Unlock()
		return nil
	}
	target := s.win.MinPage() - 1
	s.mu.Unlock()

	s.recordRequest("backward")
	result, err := s.coord.RequestPage(ctx, target)
	if err != nil {
		s.recordError(err)
		return errors.Wrap(err, "Session", "LoadPrevious", "page fetch")
	}

	s.merge(result, "backward")
	return nil
}

// merge externalizes a page body and folds it into the window. The
// duplicate check, externalization and merge happen under one lock hold:
// two deliveries of the same page racing here would otherwise both pass
// the check, and the losing body would leak its registered blobs.
func (s *Session) merge(result *decode.PageResult, direction string) {
	s.mu.Lock()
	if s.win.Contains(result.PageNumber) {
		s.mu.Unlock()
		s.logger.Debug("dropping duplicate page delivery", "page", result.PageNumber)
		return
	}

	entities := s.ext.ExternalizePage(result.Data)

	s.win = s.win.AddPageData(result.PageNumber, entities, result.HasNextPage)
	if result.TotalEntities > 0 {
		s.totalEntities = result.TotalEntities
	}
	if result.TotalDecodedEntities > 0 {
		s.totalDecoded = result.TotalDecodedEntities
	}
	s.mu.Unlock()

	s.recordLoad(direction)
	s.logger.Debug("merged page",
		"page", result.PageNumber,
		"entities", len(entities),
		"direction", direction,
		"hasNextPage", result.HasNextPage)
}

// Window returns the current immutable window snapshot.
func (s *Session) Window() *window.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win
}

// Blob looks up a previously externalized payload for on-demand rendering.
// Returns ok=false for released or unknown handles.
func (s *Session) Blob(handle blobstore.Handle) (*blobstore.Entry, bool) {
	return s.store.Get(handle)
}

// ReleaseBlob removes one payload from the store.
func (s *Session) ReleaseBlob(handle blobstore.Handle) bool {
	return s.store.Release(handle)
}

// Stats returns a diagnostic snapshot.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	win := s.win
	total, decoded := s.totalEntities, s.totalDecoded
	s.mu.Unlock()

	return Stats{
		MinPage:              win.MinPage(),
		MaxPage:              win.MaxPage(),
		EntityCount:          win.Len(),
		TotalEntities:        total,
		TotalDecodedEntities: decoded,
		HasNextPage:          win.HasNextPage(),
		HasPreviousPage:      win.HasPreviousPage(),
		Blobs:                s.store.Stats(),
	}
}

// Reload discards all materialized state and restarts the read from page 1.
// Used when the source file changes on disk or the filter script is
// replaced. Stale blob handles held by a viewer fail softly afterwards.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return errors.ErrNotOpen
	}
	s.mu.Unlock()

	s.store.ClearAll()

	result, err := s.svc.InitRead(ctx, s.pageSize, s.filterScript)
	if err != nil {
		return errors.WrapTransient(err, "Session", "Reload", "init read")
	}

	entities := s.ext.ExternalizePage(result.Data)

	s.mu.Lock()
	s.win = window.NewSeeded(s.pageSize, result.PageNumber, entities, result.HasNextPage,
		window.WithPageCapacity(s.pageCapacity))
	s.totalEntities = result.TotalEntities
	s.totalDecoded = result.TotalDecodedEntities
	s.mu.Unlock()

	if s.core != nil {
		s.core.SessionReloads.Inc()
	}
	s.logger.Info("session reloaded", "entities", len(entities))

	if !result.IsPageComplete && result.HasNextPage {
		return s.loadForwardFrom(ctx, result.PageNumber+1)
	}
	return nil
}

// SetFilterScript replaces the filter script and reloads. Toggling the
// coordinator first settles any in-flight loads so stale results cannot
// merge into the fresh window.
func (s *Session) SetFilterScript(ctx context.Context, script string) error {
	s.coord.SetEnabled(false)
	s.coord.SetEnabled(true)

	s.mu.Lock()
	s.filterScript = script
	s.mu.Unlock()

	return s.Reload(ctx)
}

// Close tears the session down: stop issuing loads, stop the watcher, and
// clear the blob store. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	wasOpen := s.open
	s.open = false
	stop := s.watchStop
	s.watchStop = nil
	s.mu.Unlock()

	if !wasOpen {
		return nil
	}

	s.coord.SetEnabled(false)
	if stop != nil {
		stop()
	}
	s.store.ClearAll()

	s.logger.Info("session closed")
	return nil
}

// recordRequest tracks an issued (or coalesced) page request.
func (s *Session) recordRequest(direction string) {
	if s.core == nil {
		return
	}
	s.core.PagesRequested.WithLabelValues(direction).Inc()
}

// recordLoad tracks a merged page in core metrics.
func (s *Session) recordLoad(direction string) {
	if s.core == nil {
		return
	}
	s.core.PagesLoaded.WithLabelValues(direction).Inc()
	s.core.WindowMerges.WithLabelValues(direction).Inc()
	s.core.BlobBytes.Set(float64(s.store.Stats().TotalBytes))
}

// recordError tracks a failed load in core metrics.
func (s *Session) recordError(err error) {
	if s.core == nil {
		return
	}
	s.core.PageLoadErrors.WithLabelValues(errors.Classify(err).String()).Inc()
}
