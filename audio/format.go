package audio

import "bytes"

// Format classifies the decrypted audio stream. Unrecognized magic bytes are
// not an error: downstream players often cope, so they map to FormatUnknown.
type Format int

const (
	FormatUnknown Format = iota
	FormatMP3
	FormatFLAC
)

func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "mp3"
	case FormatFLAC:
		return "flac"
	default:
		return "unknown"
	}
}

// Ext returns the output file extension. Unknown streams fall back to .mp3,
// matching what players most commonly accept.
func (f Format) Ext() string {
	if f == FormatFLAC {
		return ".flac"
	}
	return ".mp3"
}

var flacMagic = []byte("fLaC")
var id3Magic = []byte("ID3")

// DetectFormat inspects the first decrypted bytes for known audio magic.
func DetectFormat(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, flacMagic):
		return FormatFLAC
	case bytes.HasPrefix(head, id3Magic):
		return FormatMP3
	// Bare MPEG frame sync, for files without an ID3 header.
	case len(head) >= 2 && head[0] == 0xff && head[1]&0xe0 == 0xe0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}
