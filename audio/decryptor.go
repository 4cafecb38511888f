// Package audio reconstructs the decrypted audio stream from the container's
// encrypted payload.
package audio

import (
	"io"

	"github.com/mellowave/go-ncm/crypto"
)

// Decryptor decrypts the audio payload. Positions are relative to the start
// of the payload, not the container, and because the keystream is
// position-addressable every ReadAt is independent: non-overlapping ranges
// may be decrypted concurrently.
type Decryptor struct {
	reader    io.ReaderAt
	keystream *crypto.Keystream

	base int64
	size int64
}

// NewDecryptor wraps the container source with the payload keystream. base
// is the payload's offset within the source, size the payload length.
func NewDecryptor(r io.ReaderAt, key []byte, base, size int64) *Decryptor {
	return &Decryptor{
		reader:    r,
		keystream: crypto.NewKeystream(key),
		base:      base,
		size:      size,
	}
}

// Size returns the payload length in bytes.
func (d *Decryptor) Size() int64 {
	return d.size
}

func (d *Decryptor) ReadAt(p []byte, pos int64) (n int, err error) {
	if pos >= d.size {
		return 0, io.EOF
	}
	if rem := d.size - pos; int64(len(p)) > rem {
		p = p[:rem]
		err = io.EOF
	}

	n, rerr := d.reader.ReadAt(p, d.base+pos)
	if n > 0 {
		d.keystream.XORAt(p[:n], pos)
	}
	if rerr != nil {
		err = rerr
	}
	return n, err
}

func (d *Decryptor) Close() error {
	if closer, ok := d.reader.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
