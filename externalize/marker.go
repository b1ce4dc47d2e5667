package externalize

import (
	"fmt"

	"github.com/WeiyueSUN/packlens-audio-preview/blobstore"
)

// Marker replaces a binary leaf inside an externalized entity. Markers are
// small structural values, safe to duplicate; the payload itself lives in
// the blob store. Exactly two implementations exist: AudioMarker for
// classified payloads and BytesMarker for everything else.
type Marker interface {
	// ByteLength returns the length of the original binary payload.
	ByteLength() int

	marker() // seals the set of implementations
}

// AudioMarker stands in for a classified audio payload. The payload is
// retrievable from the blob store via Handle until released.
type AudioMarker struct {
	Handle   blobstore.Handle
	MIMEKind string
	Length   int
}

// ByteLength returns the length of the externalized payload.
func (m AudioMarker) ByteLength() int { return m.Length }

func (m AudioMarker) marker() {}

// String renders the marker for logs and plain-text views.
func (m AudioMarker) String() string {
	return fmt.Sprintf("<audio %s, %d bytes>", m.MIMEKind, m.Length)
}

// BytesMarker stands in for an unclassified binary payload. The bytes are
// dropped at externalization; only their size survives for display.
type BytesMarker struct {
	Length int
}

// ByteLength returns the length of the dropped payload.
func (m BytesMarker) ByteLength() int { return m.Length }

func (m BytesMarker) marker() {}

// String renders the marker for logs and plain-text views.
func (m BytesMarker) String() string {
	return fmt.Sprintf("<bytes, %d>", m.Length)
}
