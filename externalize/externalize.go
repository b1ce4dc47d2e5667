// Package externalize transforms decoded entity trees so that no raw binary
// buffer is ever retained by the scroll window: classified audio payloads
// are registered in the blob store and replaced with AudioMarkers, all other
// binary leaves are replaced with size-only BytesMarkers and dropped.
package externalize

import (
	"github.com/WeiyueSUN/packlens-audio-preview/blobstore"
	"github.com/WeiyueSUN/packlens-audio-preview/sniff"
)

// Externalizer walks decoded entities and substitutes markers for binary
// leaves. It holds the only write path into the blob store.
type Externalizer struct {
	store *blobstore.Store
}

// New creates an externalizer registering payloads in store.
func New(store *blobstore.Store) *Externalizer {
	return &Externalizer{store: store}
}

// Externalize returns entity with every reachable binary leaf replaced by a
// marker. Non-binary leaves and container shapes pass through structurally
// unchanged; strings are never treated as binary. The transform runs exactly
// once per page, before the page enters the window.
func (e *Externalizer) Externalize(entity any) any {
	switch v := entity.(type) {
	case []byte:
		return e.externalizeBytes(v)

	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = e.Externalize(val)
		}
		return out

	// msgpack decoders emit map[any]any for non-string keyed mappings
	case map[any]any:
		out := make(map[any]any, len(v))
		for key, val := range v {
			out[key] = e.Externalize(val)
		}
		return out

	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = e.Externalize(val)
		}
		return out

	default:
		// Scalars (including strings) pass through unchanged
		return entity
	}
}

// ExternalizePage applies Externalize to every entity of a page body.
func (e *Externalizer) ExternalizePage(entities []any) []any {
	out := make([]any, len(entities))
	for i, entity := range entities {
		out[i] = e.Externalize(entity)
	}
	return out
}

// externalizeBytes classifies a binary leaf and emits its marker. The
// caller's reference to b ends here: either the store takes ownership or
// the bytes are dropped. The buffer is never copied.
func (e *Externalizer) externalizeBytes(b []byte) Marker {
	kind := sniff.Classify(b)
	if kind == "" {
		return BytesMarker{Length: len(b)}
	}

	handle := e.store.Register(b, kind)
	return AudioMarker{
		Handle:   handle,
		MIMEKind: kind,
		Length:   len(b),
	}
}
