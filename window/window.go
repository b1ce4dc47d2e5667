// Package window maintains the materialized slice of pages a viewer can
// scroll through. A Window is an immutable snapshot built on two ring
// buffers: one for page numbers, one for the concatenated entities. Merging
// a page produces a new snapshot and evicts overflow in the direction the
// window is growing away from, so memory stays bounded for arbitrarily
// large files.
package window

import (
	"github.com/WeiyueSUN/packlens-audio-preview/pkg/ring"
)

// DefaultPageCapacity is the number of pages a window retains when no
// capacity option is given.
const DefaultPageCapacity = 3

// Window is an immutable view over the currently materialized pages.
// All merge operations return a new Window; snapshots handed to a renderer
// stay valid while later merges proceed.
type Window struct {
	pageSize     int
	pageCapacity int

	pages    *ring.Buffer[int]
	entities *ring.Buffer[any]

	minPage  int
	maxPage  int
	minIndex int
	maxIndex int

	hasNextPage bool
}

// Option configures window construction.
type Option func(*config)

type config struct {
	pageCapacity int
}

// WithPageCapacity sets how many pages the window retains.
// Values below one fall back to DefaultPageCapacity.
func WithPageCapacity(pages int) Option {
	return func(c *config) {
		if pages >= 1 {
			c.pageCapacity = pages
		}
	}
}

// New creates an empty window for the given page size.
func New(pageSize int, options ...Option) *Window {
	if pageSize < 1 {
		pageSize = 1
	}

	cfg := &config{pageCapacity: DefaultPageCapacity}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	return &Window{
		pageSize:     pageSize,
		pageCapacity: cfg.pageCapacity,
		pages:        ring.New[int](cfg.pageCapacity),
		entities:     ring.New[any](cfg.pageCapacity * pageSize),
	}
}

// NewSeeded creates a window already holding one page.
func NewSeeded(pageSize, pageNumber int, entities []any, hasNextPage bool, options ...Option) *Window {
	return New(pageSize, options...).AddPageData(pageNumber, entities, hasNextPage)
}

// AddPageData merges a page into the window and returns the new snapshot.
//
// Direction is decided against the most recently added page number:
// pageNumber >= latest merges forward (entities appended at the tail),
// otherwise backward (entities prepended at the head in ascending order).
// A page number already present leaves the page ring unchanged, but the
// entity data is still merged; callers are expected not to re-deliver
// duplicate page bodies in normal operation.
//
// hasNextPage is always taken from this, the most recent, response.
func (w *Window) AddPageData(pageNumber int, entities []any, hasNextPage bool) *Window {
	latest, ok := w.pages.Latest()
	forward := !ok || pageNumber >= latest

	pages := w.pages
	if !ring.Includes(w.pages, pageNumber) {
		if forward {
			pages = pages.Push(pageNumber)
		} else {
			pages = pages.Unshift(pageNumber)
		}
	}

	merged := w.entities
	if forward {
		merged = merged.Push(entities...)
	} else {
		merged = merged.Unshift(entities...)
	}

	next := &Window{
		pageSize:     w.pageSize,
		pageCapacity: w.pageCapacity,
		pages:        pages,
		entities:     merged,
		hasNextPage:  hasNextPage,
	}
	next.recompute(pageNumber, len(entities))
	return next
}

// recompute refreshes the derived bounds after a merge. minIndex/maxIndex
// describe the global index range covered by the just-merged page, which is
// what the viewport needs to anchor scroll position after a merge.
func (w *Window) recompute(mergedPage, mergedCount int) {
	w.minPage, _ = ring.Min(w.pages)
	w.maxPage, _ = ring.Max(w.pages)
	w.minIndex = (mergedPage - 1) * w.pageSize
	w.maxIndex = w.minIndex + mergedCount
}

// MinPage returns the smallest materialized page number, 0 when empty.
func (w *Window) MinPage() int { return w.minPage }

// MaxPage returns the largest materialized page number, 0 when empty.
func (w *Window) MaxPage() int { return w.maxPage }

// MinIndex returns the global index of the first entity of the most
// recently merged page.
func (w *Window) MinIndex() int { return w.minIndex }

// MaxIndex returns the global index just past the last entity of the most
// recently merged page.
func (w *Window) MaxIndex() int { return w.maxIndex }

// HasNextPage reports whether the source has pages beyond MaxPage,
// as stated by the most recent merge.
func (w *Window) HasNextPage() bool { return w.hasNextPage }

// HasPreviousPage reports whether pages exist before the window.
func (w *Window) HasPreviousPage() bool { return w.minPage > 1 }

// PageSize returns the configured page size.
func (w *Window) PageSize() int { return w.pageSize }

// PageCapacity returns how many pages the window retains.
func (w *Window) PageCapacity() int { return w.pageCapacity }

// PageNumbers returns the materialized page numbers in merge order.
func (w *Window) PageNumbers() []int { return w.pages.Items() }

// Entities returns the materialized entities in ascending global order.
func (w *Window) Entities() []any { return w.entities.Items() }

// Len returns the number of materialized entities.
func (w *Window) Len() int { return w.entities.Len() }

// IsEmpty reports whether the window holds no pages.
func (w *Window) IsEmpty() bool { return w.pages.IsEmpty() }

// Contains reports whether pageNumber is materialized.
func (w *Window) Contains(pageNumber int) bool { return ring.Includes(w.pages, pageNumber) }

// Slice returns the entities in the half-open local index range [from, to),
// clamped to the materialized data. Used by the viewport to read a
// contiguous range without copying the whole window.
func (w *Window) Slice(from, to int) []any {
	if from < 0 {
		from = 0
	}
	if to > w.entities.Len() {
		to = w.entities.Len()
	}
	if from >= to {
		return nil
	}
	items := w.entities.Items()
	return items[from:to]
}
