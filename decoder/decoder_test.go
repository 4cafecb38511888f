package decoder

import (
	"bytes"
	"context"
	"crypto/aes"
	"encoding/base64"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	ncm "github.com/mellowave/go-ncm"
	"github.com/mellowave/go-ncm/audio"
	"github.com/mellowave/go-ncm/container"
	"github.com/mellowave/go-ncm/crypto"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// The producer-side constants, spelled out independently of the code under
// test.
var (
	testCoreKey   = []byte("hzHRAmso5kInbaxW")
	testMetaKey   = []byte{0x23, 0x31, 0x34, 0x6c, 0x6a, 0x6b, 0x5f, 0x21, 0x5c, 0x5d, 0x26, 0x30, 0x55, 0x3c, 0x27, 0x28}
	testKeyMarker = []byte("neteasecloudmusic")
)

func ecbEncrypt(t *testing.T, key, plain []byte) []byte {
	t.Helper()

	pad := aes.BlockSize - len(plain)%aes.BlockSize
	padded := append(bytes.Clone(plain), bytes.Repeat([]byte{byte(pad)}, pad)...)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	out := make([]byte, len(padded))
	for off := 0; off < len(padded); off += aes.BlockSize {
		block.Encrypt(out[off:off+aes.BlockSize], padded[off:off+aes.BlockSize])
	}
	return out
}

type fixture struct {
	key   []byte // payload key, nil for a default
	meta  []byte // metadata JSON document, nil for an absent block
	cover []byte
	audio []byte // plaintext audio
}

// buildNCM assembles a complete encrypted container from plaintext parts.
func buildNCM(t *testing.T, fx fixture) []byte {
	t.Helper()

	if fx.key == nil {
		fx.key = []byte("7vyNloB2hFDEWcPq")
	}

	keyBlock := ecbEncrypt(t, testCoreKey, append(bytes.Clone(testKeyMarker), fx.key...))
	for i := range keyBlock {
		keyBlock[i] ^= 0x64
	}

	var metaBlock []byte
	if fx.meta != nil {
		enc := ecbEncrypt(t, testMetaKey, append([]byte("music:"), fx.meta...))
		metaBlock = append([]byte("163 key(Don't modify):"), base64.StdEncoding.EncodeToString(enc)...)
		for i := range metaBlock {
			metaBlock[i] ^= 0x63
		}
	}

	payload := bytes.Clone(fx.audio)
	crypto.NewKeystream(fx.key).XORAt(payload, 0)

	var buf bytes.Buffer
	buf.Write(container.Magic)
	buf.Write([]byte{0x00, 0x00})

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(keyBlock)))
	buf.Write(lenBuf[:])
	buf.Write(keyBlock)

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(metaBlock)))
	buf.Write(lenBuf[:])
	buf.Write(metaBlock)

	buf.Write([]byte{0x00, 0x00, 0x00, 0x00})       // crc
	buf.Write([]byte{0x01, 0x00, 0x00, 0x00, 0x00}) // gap

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(fx.cover)))
	buf.Write(lenBuf[:])
	buf.Write(fx.cover)

	buf.Write(payload)
	return buf.Bytes()
}

var sampleMeta = []byte(`{"musicId": 7, "musicName": "Title", "artist": [["Artist", 1]], "album": "Album", "format": "mp3", "duration": 1000, "bitrate": 128000}`)

func mp3Audio() []byte {
	return append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), bytes.Repeat([]byte{0x5b, 0xf0, 0x33}, 2000)...)
}

func TestDecodeEndToEnd(t *testing.T) {
	cover := []byte{0xff, 0xd8, 0xff, 0xe0, 0x11, 0x22}
	plainAudio := mp3Audio()

	data := buildNCM(t, fixture{meta: sampleMeta, cover: cover, audio: plainAudio})

	f, err := New(bytes.NewReader(data), nil)
	require.NoError(t, err)

	assert.Equal(t, audio.FormatMP3, f.Format)
	assert.Equal(t, cover, f.Cover)
	assert.Empty(t, f.Warnings)

	require.NotNil(t, f.Metadata)
	assert.Equal(t, "Title", f.Metadata.Title)
	assert.Equal(t, "Artist", f.Metadata.ArtistNames())
	assert.Equal(t, "Album", f.Metadata.Album)

	var out bytes.Buffer
	n, err := audio.Copy(context.Background(), &out, f.Audio())
	require.NoError(t, err)
	assert.Equal(t, int64(len(plainAudio)), n)
	assert.Equal(t, plainAudio, out.Bytes())
}

func TestDecodeFLAC(t *testing.T) {
	plainAudio := append([]byte("fLaC\x00\x00\x00\x22"), bytes.Repeat([]byte{0x01}, 512)...)
	data := buildNCM(t, fixture{meta: sampleMeta, audio: plainAudio})

	f, err := New(bytes.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, audio.FormatFLAC, f.Format)
}

func TestDecodeUnknownFormat(t *testing.T) {
	data := buildNCM(t, fixture{audio: bytes.Repeat([]byte{0x00, 0x01}, 100)})

	f, err := New(bytes.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, audio.FormatUnknown, f.Format)
}

func TestDecodeAbsentMetadata(t *testing.T) {
	plainAudio := mp3Audio()
	data := buildNCM(t, fixture{audio: plainAudio})

	f, err := New(bytes.NewReader(data), nil)
	require.NoError(t, err)

	assert.Empty(t, f.Warnings)
	assert.True(t, f.Metadata.Empty())
	assert.Nil(t, f.Cover)

	// Audio decryption is independent of metadata.
	var out bytes.Buffer
	_, err = audio.Copy(context.Background(), &out, f.Audio())
	require.NoError(t, err)
	assert.Equal(t, plainAudio, out.Bytes())
}

func TestDecodeCorruptMetadataDegrades(t *testing.T) {
	plainAudio := mp3Audio()
	data := buildNCM(t, fixture{meta: sampleMeta, audio: plainAudio})

	// Flip a byte inside the metadata block.
	metaOff := len(container.Magic) + 2
	keyLen := int(binary.LittleEndian.Uint32(data[metaOff:]))
	metaOff += 4 + keyLen + 4
	data[metaOff+10] ^= 0xff

	f, err := New(bytes.NewReader(data), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, f.Warnings)
	assert.True(t, f.Metadata.Empty())

	var out bytes.Buffer
	_, err = audio.Copy(context.Background(), &out, f.Audio())
	require.NoError(t, err)
	assert.Equal(t, plainAudio, out.Bytes())
}

func TestDecodeBadMagic(t *testing.T) {
	data := buildNCM(t, fixture{audio: mp3Audio()})
	data[3] ^= 0x80

	_, err := New(bytes.NewReader(data), nil)
	assert.ErrorIs(t, err, ncm.ErrNotNCMFile)
}

func TestDecodeTruncatedKeyBlock(t *testing.T) {
	data := buildNCM(t, fixture{audio: mp3Audio()})

	_, err := New(bytes.NewReader(data[:len(container.Magic)+2+4+8]), nil)
	assert.ErrorIs(t, err, ncm.ErrTruncatedInput)
}

func TestDecodeGarbageKeyBlock(t *testing.T) {
	plain := bytes.Repeat([]byte{0x77}, 32) // no marker anywhere
	keyBlock := ecbEncrypt(t, testCoreKey, plain)
	for i := range keyBlock {
		keyBlock[i] ^= 0x64
	}

	var buf bytes.Buffer
	buf.Write(container.Magic)
	buf.Write([]byte{0x00, 0x00})
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(keyBlock)))
	buf.Write(lenBuf[:])
	buf.Write(keyBlock)
	binary.LittleEndian.PutUint32(lenBuf[:], 0)
	buf.Write(lenBuf[:])
	buf.Write(make([]byte, 4+5+4))

	_, err := New(bytes.NewReader(buf.Bytes()), nil)
	assert.ErrorIs(t, err, ncm.ErrInvalidKeyHeader)
}

func TestOpenFromDisk(t *testing.T) {
	plainAudio := mp3Audio()
	path := filepath.Join(t.TempDir(), "track.ncm")
	require.NoError(t, os.WriteFile(path, buildNCM(t, fixture{meta: sampleMeta, audio: plainAudio}), 0o644))

	f, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	assert.Equal(t, audio.FormatMP3, f.Format)

	var out bytes.Buffer
	_, err = audio.Copy(context.Background(), &out, f.Audio())
	require.NoError(t, err)
	assert.Equal(t, plainAudio, out.Bytes())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.ncm"), nil)
	assert.Error(t, err)
}
