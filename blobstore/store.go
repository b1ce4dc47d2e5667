// Package blobstore provides the out-of-band keyed store for large binary
// payloads stripped out of decoded entities. Entries are addressed by opaque
// handles issued at registration; lookups on released or unknown handles
// fail softly rather than erroring.
package blobstore

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/WeiyueSUN/packlens-audio-preview/errors"
)

// Handle is a process-unique opaque identifier for a registered blob.
// Handles are never reused, even across file reloads within one session.
type Handle string

// Entry holds a registered binary payload and its metadata.
// Bytes is owned by the store after Register; no other component may retain
// a reference to it once the containing entity has been externalized.
type Entry struct {
	Handle       Handle
	Bytes        []byte
	MIMEKind     string // "" when the payload was not classified
	RegisteredAt time.Time
}

// StoreStats is a point-in-time snapshot of store contents for diagnostics.
type StoreStats struct {
	Count      int
	TotalBytes int64
}

// Store is the single place large buffers are retained. It is safe for
// concurrent use: registration happens on the externalization path, reads
// come from blob consumers, and ClearAll from the owning session's teardown.
type Store struct {
	mu         sync.RWMutex
	entries    map[Handle]*Entry
	totalBytes int64

	seq       atomic.Uint64 // monotonic handle component
	stats     *Statistics   // ALWAYS initialized for observability
	metrics   *storeMetrics // Optional Prometheus metrics
	releaseFn ReleaseCallback
}

// ReleaseCallback is called when an entry leaves the store, either through
// Release or ClearAll. It receives the released entry.
type ReleaseCallback func(entry *Entry)

// New creates a blob store.
// Returns an error if metrics registration fails when requested.
func New(options ...Option) (*Store, error) {
	opts := applyOptions(options...)

	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *storeMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newStoreMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "blobstore", "New", "metrics registration")
		}
	}

	return &Store{
		entries:   make(map[Handle]*Entry),
		stats:     stats,
		metrics:   metrics,
		releaseFn: opts.releaseCallback,
	}, nil
}

// Register stores bytes under a fresh handle and returns the handle.
// The store takes ownership of bytes; the caller must drop its reference
// immediately so the window never aliases a large buffer.
func (s *Store) Register(bytes []byte, mimeKind string) Handle {
	handle := s.nextHandle()
	entry := &Entry{
		Handle:       handle,
		Bytes:        bytes,
		MIMEKind:     mimeKind,
		RegisteredAt: time.Now(),
	}

	s.mu.Lock()
	s.entries[handle] = entry
	s.totalBytes += int64(len(bytes))
	count, total := len(s.entries), s.totalBytes
	s.mu.Unlock()

	s.stats.Register(int64(len(bytes)))
	s.stats.UpdateSize(int64(count), total)
	if s.metrics != nil {
		s.metrics.recordRegister(count, total)
	}

	return handle
}

// Get retrieves the entry for a handle.
// Returns (nil, false) for released or unknown handles; it never errors and
// never blocks beyond the read lock.
func (s *Store) Get(handle Handle) (*Entry, bool) {
	s.mu.RLock()
	entry, exists := s.entries[handle]
	s.mu.RUnlock()

	if exists {
		s.stats.Hit()
		if s.metrics != nil {
			s.metrics.recordHit()
		}
	} else {
		s.stats.Miss()
		if s.metrics != nil {
			s.metrics.recordMiss()
		}
	}

	return entry, exists
}

// Release removes the entry for a handle.
// Returns true if the handle existed. Subsequent Get calls for the handle
// fail softly.
func (s *Store) Release(handle Handle) bool {
	s.mu.Lock()
	entry, exists := s.entries[handle]
	if exists {
		delete(s.entries, handle)
		s.totalBytes -= int64(len(entry.Bytes))
	}
	count, total := len(s.entries), s.totalBytes
	s.mu.Unlock()

	if !exists {
		return false
	}

	s.stats.Release(int64(len(entry.Bytes)))
	s.stats.UpdateSize(int64(count), total)
	if s.metrics != nil {
		s.metrics.recordRelease(count, total)
	}
	if s.releaseFn != nil {
		s.releaseFn(entry)
	}

	return true
}

// ClearAll removes every entry. Called when the viewed file changes or the
// owning session ends. Handles remain burned: the monotonic sequence keeps
// counting, so a new file's registrations never collide with stale markers.
func (s *Store) ClearAll() {
	s.mu.Lock()
	released := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		released = append(released, entry)
	}
	s.entries = make(map[Handle]*Entry)
	s.totalBytes = 0
	s.mu.Unlock()

	for _, entry := range released {
		s.stats.Release(int64(len(entry.Bytes)))
		if s.releaseFn != nil {
			s.releaseFn(entry)
		}
	}
	s.stats.UpdateSize(0, 0)
	if s.metrics != nil {
		s.metrics.updateSize(0, 0)
	}
}

// Stats returns a snapshot of current store contents for diagnostics.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreStats{
		Count:      len(s.entries),
		TotalBytes: s.totalBytes,
	}
}

// Statistics returns cumulative operation counters (always available).
func (s *Store) Statistics() *Statistics {
	return s.stats
}

// nextHandle issues a collision-free handle: a monotonic per-store counter
// combined with a random UUID. Uniqueness is the requirement here, not
// unguessability.
func (s *Store) nextHandle() Handle {
	return Handle(fmt.Sprintf("blob-%d-%s", s.seq.Add(1), uuid.NewString()))
}
