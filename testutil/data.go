package testutil

import (
	"fmt"

	"github.com/WeiyueSUN/packlens-audio-preview/decode"
)

// Fixture builders for decoded entities. The shapes mirror a typical
// audio-chat container: top-level records with nested message sequences and
// embedded audio payloads.

// WAVBytes returns a RIFF-prefixed payload of total length 4+n.
func WAVBytes(n int) []byte {
	b := make([]byte, 4+n)
	copy(b, []byte{0x52, 0x49, 0x46, 0x46})
	for i := 0; i < n; i++ {
		b[4+i] = byte(i)
	}
	return b
}

// MP3Bytes returns an ID3-prefixed payload of total length 3+n.
func MP3Bytes(n int) []byte {
	b := make([]byte, 3+n)
	copy(b, []byte{0x49, 0x44, 0x33})
	for i := 0; i < n; i++ {
		b[3+i] = byte(i)
	}
	return b
}

// OpaqueBytes returns a payload matching no audio signature.
func OpaqueBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 7)
	}
	return b
}

// Entity builds a simple decoded record with index i.
func Entity(i int) any {
	return map[string]any{
		"id":    fmt.Sprintf("record_%d", i),
		"index": i,
	}
}

// AudioChatEntity builds a record embedding one WAV payload, shaped like an
// audio QA conversation.
func AudioChatEntity(i, audioLen int) any {
	return map[string]any{
		"id":   fmt.Sprintf("audio_qa_%d", i),
		"type": "audio_chat",
		"messages": []any{
			map[string]any{"role": "system", "content": "You are a helpful music assistant."},
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": "Describe this audio."},
					map[string]any{"type": "audio", "audio": WAVBytes(audioLen), "format": "wav"},
				},
			},
		},
	}
}

// Entities builds count simple records with indices starting at from.
func Entities(from, count int) []any {
	out := make([]any, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, Entity(from+i))
	}
	return out
}

// Page builds a full decode.PageResult for page n, pageSize entities.
func Page(n, pageSize int, hasNext bool) *decode.PageResult {
	return &decode.PageResult{
		PageNumber:     n,
		Data:           Entities((n-1)*pageSize, pageSize),
		HasNextPage:    hasNext,
		IsPageComplete: true,
	}
}

// PartialPage builds a filtered page carrying fewer entities than pageSize,
// flagged incomplete so the caller must request the continuation.
func PartialPage(n, pageSize, count int, hasNext bool) *decode.PageResult {
	return &decode.PageResult{
		PageNumber:     n,
		Data:           Entities((n-1)*pageSize, count),
		HasNextPage:    hasNext,
		IsPageComplete: false,
	}
}
