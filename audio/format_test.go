package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want Format
	}{
		{name: "id3 header", head: []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), want: FormatMP3},
		{name: "mpeg frame sync", head: []byte{0xff, 0xfb, 0x90, 0x00}, want: FormatMP3},
		{name: "mpeg2 frame sync", head: []byte{0xff, 0xf3, 0x40, 0x00}, want: FormatMP3},
		{name: "flac", head: []byte("fLaC\x00\x00\x00\x22"), want: FormatFLAC},
		{name: "ogg is not in the closed set", head: []byte("OggS\x00"), want: FormatUnknown},
		{name: "wave", head: []byte("RIFF\x24\x08\x00\x00WAVE"), want: FormatUnknown},
		{name: "garbage", head: []byte{0x00, 0x01, 0x02, 0x03}, want: FormatUnknown},
		{name: "sync byte without second marker", head: []byte{0xff, 0x1b}, want: FormatUnknown},
		{name: "too short", head: []byte{0xff}, want: FormatUnknown},
		{name: "empty", head: nil, want: FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.head))
		})
	}
}

func TestFormatStrings(t *testing.T) {
	assert.Equal(t, "mp3", FormatMP3.String())
	assert.Equal(t, "flac", FormatFLAC.String())
	assert.Equal(t, "unknown", FormatUnknown.String())

	assert.Equal(t, ".mp3", FormatMP3.Ext())
	assert.Equal(t, ".flac", FormatFLAC.Ext())
	assert.Equal(t, ".mp3", FormatUnknown.Ext())
}
