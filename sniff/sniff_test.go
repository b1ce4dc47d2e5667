package sniff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"ID3 tagged MP3", []byte{0x49, 0x44, 0x33, 0x04, 0x00}, KindMP3},
		{"MP3 frame sync FB", []byte{0xFF, 0xFB, 0x90, 0x00}, KindMP3},
		{"MP3 frame sync F3", []byte{0xFF, 0xF3, 0x00}, KindMP3},
		{"MP3 frame sync F2", []byte{0xFF, 0xF2}, KindMP3},
		{"RIFF WAV", []byte{0x52, 0x49, 0x46, 0x46, 0x24, 0x08}, KindWAV},
		{"Ogg", []byte{0x4F, 0x67, 0x67, 0x53, 0x00}, KindOGG},
		{"FLAC", []byte{0x66, 0x4C, 0x61, 0x43, 0x00}, KindFLAC},
		{"AAC F1", []byte{0xFF, 0xF1, 0x50}, KindAAC},
		{"AAC F9", []byte{0xFF, 0xF9, 0x50}, KindAAC},
		{"unknown bytes", []byte{0x00, 0x01, 0x02, 0x03}, ""},
		{"empty", nil, ""},
		{"single byte", []byte{0xFF}, ""},
		{"frame sync needs second byte match", []byte{0xFF, 0x00}, ""},
		{"RIFF truncated to three bytes", []byte{0x52, 0x49, 0x46}, ""},
		{"text masquerading", []byte("RIFX not riff"), ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Classify(test.input))
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	input := []byte{0x49, 0x44, 0x33, 0xAB, 0xCD}

	first := Classify(input)
	second := Classify(input)

	assert.Equal(t, first, second)
	assert.Equal(t, KindMP3, first)

	// Input is not modified
	assert.Equal(t, []byte{0x49, 0x44, 0x33, 0xAB, 0xCD}, input)
}

func TestClassifyReadsAtMostFourBytes(t *testing.T) {
	// Exactly four bytes is enough for every signature
	assert.Equal(t, KindWAV, Classify([]byte{0x52, 0x49, 0x46, 0x46}))
	assert.Equal(t, KindOGG, Classify([]byte{0x4F, 0x67, 0x67, 0x53}))
	assert.Equal(t, KindFLAC, Classify([]byte{0x66, 0x4C, 0x61, 0x43}))
}
