package container

import (
	"fmt"

	ncm "github.com/mellowave/go-ncm"
)

// Magic identifies an NCM container ("CTENFDAM").
var Magic = []byte{0x43, 0x54, 0x45, 0x4e, 0x46, 0x44, 0x41, 0x4d}

// Container holds the raw, still-encrypted blocks of one NCM file. The
// encrypted audio payload is everything from AudioOffset to the end of the
// source.
type Container struct {
	// RawKey is the obfuscated per-file key block.
	RawKey []byte

	// RawMeta is the obfuscated metadata block, empty when absent.
	RawMeta []byte

	// Cover is the embedded cover image, stored plaintext, nil when absent.
	Cover []byte

	// AudioOffset is where the encrypted audio payload starts.
	AudioOffset int64
}

// Layout after the 8-byte magic: a 2-byte gap, the length-prefixed key block,
// the length-prefixed metadata block, a 4-byte CRC field and a 5-byte gap
// (neither is validated), the length-prefixed cover image, then the audio
// payload until EOF.
const (
	magicGapSize = 2
	crcFieldSize = 4
	coverGapSize = 5
)

// Parse walks the container layout and returns its raw blocks. It performs
// no decryption.
func Parse(src ncm.SizedReadAt) (*Container, error) {
	r := NewReader(src, src.Size())

	if err := r.ExpectMagic(Magic); err != nil {
		return nil, err
	}
	if err := r.Skip(magicGapSize); err != nil {
		return nil, err
	}

	var c Container
	var err error

	if c.RawKey, err = r.ReadLengthPrefixed(); err != nil {
		return nil, fmt.Errorf("reading key block: %w", err)
	}
	if len(c.RawKey) == 0 {
		return nil, fmt.Errorf("%w: zero-length key block", ncm.ErrInvalidLength)
	}

	if c.RawMeta, err = r.ReadLengthPrefixed(); err != nil {
		return nil, fmt.Errorf("reading metadata block: %w", err)
	}

	if err = r.Skip(crcFieldSize + coverGapSize); err != nil {
		return nil, err
	}

	if c.Cover, err = r.ReadLengthPrefixed(); err != nil {
		return nil, fmt.Errorf("reading cover block: %w", err)
	}
	if len(c.Cover) == 0 {
		c.Cover = nil
	}

	c.AudioOffset = r.Pos()
	return &c, nil
}
