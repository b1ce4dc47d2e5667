package blobstore

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks cumulative store operation counters.
type Statistics struct {
	// Atomic counters for thread-safe updates
	registers     int64
	hits          int64
	misses        int64
	releases      int64
	bytesIn       int64
	bytesReleased int64

	// Protected by mutex
	mu           sync.RWMutex
	startTime    time.Time
	currentCount int64
	currentBytes int64
	maxCount     int64
	maxBytes     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Register records a registration of n bytes.
func (s *Statistics) Register(n int64) {
	atomic.AddInt64(&s.registers, 1)
	atomic.AddInt64(&s.bytesIn, n)
}

// Hit records a successful handle lookup.
func (s *Statistics) Hit() {
	atomic.AddInt64(&s.hits, 1)
}

// Miss records a lookup for a released or unknown handle.
func (s *Statistics) Miss() {
	atomic.AddInt64(&s.misses, 1)
}

// Release records the removal of an entry of n bytes.
func (s *Statistics) Release(n int64) {
	atomic.AddInt64(&s.releases, 1)
	atomic.AddInt64(&s.bytesReleased, n)
}

// UpdateSize updates the current entry count and byte total.
func (s *Statistics) UpdateSize(count, bytes int64) {
	s.mu.Lock()
	s.currentCount = count
	s.currentBytes = bytes
	if count > s.maxCount {
		s.maxCount = count
	}
	if bytes > s.maxBytes {
		s.maxBytes = bytes
	}
	s.mu.Unlock()
}

// Registers returns the total number of registrations.
func (s *Statistics) Registers() int64 {
	return atomic.LoadInt64(&s.registers)
}

// Hits returns the total number of successful lookups.
func (s *Statistics) Hits() int64 {
	return atomic.LoadInt64(&s.hits)
}

// Misses returns the total number of failed lookups.
func (s *Statistics) Misses() int64 {
	return atomic.LoadInt64(&s.misses)
}

// Releases returns the total number of released entries.
func (s *Statistics) Releases() int64 {
	return atomic.LoadInt64(&s.releases)
}

// BytesIn returns the total bytes ever registered.
func (s *Statistics) BytesIn() int64 {
	return atomic.LoadInt64(&s.bytesIn)
}

// CurrentCount returns the current entry count.
func (s *Statistics) CurrentCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentCount
}

// CurrentBytes returns the bytes currently held.
func (s *Statistics) CurrentBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentBytes
}

// MaxBytes returns the high-water mark of bytes held.
func (s *Statistics) MaxBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxBytes
}

// HitRate returns the fraction of lookups that found an entry.
func (s *Statistics) HitRate() float64 {
	hits := s.Hits()
	total := hits + s.Misses()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Uptime returns the duration since statistics collection began.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}
