// Package blobstore provides the out-of-band store for large binary payloads
// externalized from decoded entities.
//
// # Overview
//
// When the externalizer encounters a binary leaf it registers the bytes here
// and substitutes a small marker into the entity tree. The store is the only
// component allowed to retain large buffers: the window, markers, and viewer
// all refer to payloads by opaque Handle.
//
// Handles combine a monotonic counter with a UUID, so they are unique for
// the process lifetime and are never reused, even after ClearAll resets the
// store for a new file.
//
// # Lifecycle
//
// Entries persist until explicitly released or until ClearAll, which the
// owning session calls when the viewed file changes or the session ends.
// There is no automatic expiry; bounded growth over long sessions is the
// session's policy decision, not the store's.
//
// # Quick Start
//
//	store, err := blobstore.New()
//	handle := store.Register(wavBytes, "audio/wav")
//
//	entry, ok := store.Get(handle)   // ok=false after Release/ClearAll
//	store.Release(handle)
//
//	stats := store.Stats()           // {Count, TotalBytes}
//
// Lookups on stale handles fail softly with ok=false; consumers render a
// "data no longer available" state rather than treating it as an error.
//
// # Observability
//
// Operation counters are always collected and available via Statistics().
// Prometheus export is optional:
//
//	store, err := blobstore.New(
//	    blobstore.WithMetrics(registry, "viewer"),
//	)
package blobstore
