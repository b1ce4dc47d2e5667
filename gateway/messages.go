package gateway

import (
	"fmt"

	"github.com/WeiyueSUN/packlens-audio-preview/externalize"
	"github.com/WeiyueSUN/packlens-audio-preview/session"
)

// Client request types.
const (
	RequestInit     = "init"
	RequestLoadNext = "loadNext"
	RequestLoadPrev = "loadPrev"
	RequestBlob     = "blob"
	RequestStats    = "stats"
)

// Server response types.
const (
	ResponseWindow      = "window"
	ResponseBlob        = "blob"
	ResponseBlobMissing = "blob_missing"
	ResponseStats       = "stats"
	ResponseError       = "error"
)

// request is one viewer command. ID is an opaque correlation token echoed
// back on the response.
type request struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Handle string `json:"handle,omitempty"`
}

// windowResponse carries the current window snapshot. Entities are
// rendered with audio leaves replaced by marker objects; the payload bytes
// stay server-side until fetched through a blob request.
type windowResponse struct {
	Type            string `json:"type"`
	ID              string `json:"id,omitempty"`
	MinPage         int    `json:"minPage"`
	MaxPage         int    `json:"maxPage"`
	MinIndex        int    `json:"minIndex"`
	MaxIndex        int    `json:"maxIndex"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	Entities        []any  `json:"entities"`
}

type blobResponse struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Handle string `json:"handle"`
	Kind   string `json:"kind,omitempty"`
	Data   []byte `json:"data"` // encoding/json emits base64
}

type blobMissingResponse struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Handle string `json:"handle"`
}

type statsResponse struct {
	Type  string        `json:"type"`
	ID    string        `json:"id,omitempty"`
	Stats session.Stats `json:"stats"`
}

type errorResponse struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// Marker rendering keys in serialized entities.
const (
	audioMarkerKey = "$audio"
	bytesMarkerKey = "$opaque"
)

// renderEntities converts externalized entities into a JSON-encodable
// shape: markers become tagged objects, non-string map keys are
// stringified.
func renderEntities(entities []any) []any {
	out := make([]any, 0, len(entities))
	for _, e := range entities {
		out = append(out, renderValue(e))
	}
	return out
}

func renderValue(v any) any {
	switch t := v.(type) {
	case externalize.AudioMarker:
		return map[string]any{
			audioMarkerKey: map[string]any{
				"handle": string(t.Handle),
				"kind":   t.MIMEKind,
				"length": t.Length,
			},
		}
	case externalize.BytesMarker:
		return map[string]any{
			bytesMarkerKey: map[string]any{
				"length": t.Length,
			},
		}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = renderValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[stringifyKey(k)] = renderValue(val)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			out = append(out, renderValue(val))
		}
		return out
	default:
		return v
	}
}

func stringifyKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", k)
}
