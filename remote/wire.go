package remote

import (
	"encoding/base64"

	"github.com/WeiyueSUN/packlens-audio-preview/decode"
)

// Wire shapes for the decode service. Requests and responses travel as JSON
// over NATS request/reply. JSON cannot carry raw bytes, so binary leaves are
// encoded as a single-key object {"$bytes": "<base64>"} and restored to
// []byte on arrival, before externalization sees the page.

const bytesKey = "$bytes"

// initReadRequest starts a fresh read on the decode service.
type initReadRequest struct {
	PageSize     int    `json:"pageSize"`
	FilterScript string `json:"filterScript"`
}

// loadPageRequest fetches one page by number.
type loadPageRequest struct {
	PageNumber int `json:"pageNumber"`
}

// pageEnvelope wraps a PageResult with the transport-level status.
type pageEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	decode.PageResult
}

// restoreBinaryLeaves rewrites the wire encoding of binary data back into
// []byte leaves, in place of the tagged objects, so the rest of the pipeline
// never sees the transport representation.
func restoreBinaryLeaves(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if encoded, ok := binaryLeaf(val); ok {
			return encoded
		}
		for key, child := range val {
			val[key] = restoreBinaryLeaves(child)
		}
		return val
	case []any:
		for i, child := range val {
			val[i] = restoreBinaryLeaves(child)
		}
		return val
	default:
		return v
	}
}

// binaryLeaf decodes a {"$bytes": "..."} object. Objects with extra keys or
// malformed base64 are left alone; they are ordinary data, not the tag.
func binaryLeaf(m map[string]any) ([]byte, bool) {
	if len(m) != 1 {
		return nil, false
	}
	encoded, ok := m[bytesKey].(string)
	if !ok {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	return raw, true
}
