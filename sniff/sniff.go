// Package sniff classifies binary payloads by magic-number prefix.
//
// Classify is pure and deterministic, which keeps externalization
// idempotent: the same bytes always map to the same media kind.
package sniff

import "bytes"

// Media kinds returned by Classify.
const (
	KindMP3  = "audio/mpeg"
	KindWAV  = "audio/wav"
	KindOGG  = "audio/ogg"
	KindFLAC = "audio/flac"
	KindAAC  = "audio/aac"
)

// signature pairs a byte prefix with the media kind it identifies.
type signature struct {
	prefix []byte
	kind   string
}

// signatures is matched longest-prefix-first so that 4-byte container
// magics win over the 2-byte MPEG frame-sync patterns.
var signatures = []signature{
	// 4-byte prefixes
	{[]byte{0x52, 0x49, 0x46, 0x46}, KindWAV},  // RIFF
	{[]byte{0x4F, 0x67, 0x67, 0x53}, KindOGG},  // OggS
	{[]byte{0x66, 0x4C, 0x61, 0x43}, KindFLAC}, // fLaC

	// 3-byte prefixes
	{[]byte{0x49, 0x44, 0x33}, KindMP3}, // ID3-tagged MP3

	// 2-byte prefixes: MPEG frame sync variants
	{[]byte{0xFF, 0xFB}, KindMP3},
	{[]byte{0xFF, 0xF3}, KindMP3},
	{[]byte{0xFF, 0xF2}, KindMP3},
	{[]byte{0xFF, 0xF1}, KindAAC},
	{[]byte{0xFF, 0xF9}, KindAAC},
}

// Classify returns the media kind identified by the prefix of b, or "" when
// no signature matches or b has fewer than two bytes. At most the first four
// bytes are examined.
func Classify(b []byte) string {
	if len(b) < 2 {
		return ""
	}
	for _, sig := range signatures {
		if len(b) >= len(sig.prefix) && bytes.Equal(b[:len(sig.prefix)], sig.prefix) {
			return sig.kind
		}
	}
	return ""
}
