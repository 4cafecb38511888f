// Package container parses the NCM container layout into its raw blocks.
package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	ncm "github.com/mellowave/go-ncm"
)

// maxBlockLen is a sanity bound on declared block lengths. Key blocks are
// around 128 bytes, metadata a few KiB, covers a few MiB at most.
const maxBlockLen = 1 << 30

// Reader performs sequential bounds-checked reads over a finite source. The
// cursor only ever moves forward and every read is validated against the
// remaining length before touching the source.
type Reader struct {
	r    io.ReaderAt
	size int64
	pos  int64
}

func NewReader(r io.ReaderAt, size int64) *Reader {
	return &Reader{r: r, size: size}
}

// Pos returns the current cursor position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int64 {
	return r.size - r.pos
}

// ReadExact returns exactly n bytes, advancing the cursor.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if int64(n) > r.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, %d remain", ncm.ErrTruncatedInput, n, r.pos, r.Remaining())
	}

	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: short read at offset %d: %s", ncm.ErrTruncatedInput, r.pos, err)
	}

	r.pos += int64(n)
	return buf, nil
}

// Skip advances the cursor over n bytes without returning them.
func (r *Reader) Skip(n int) error {
	if int64(n) > r.Remaining() {
		return fmt.Errorf("%w: cannot skip %d bytes at offset %d, %d remain", ncm.ErrTruncatedInput, n, r.pos, r.Remaining())
	}
	r.pos += int64(n)
	return nil
}

// ExpectMagic reads len(magic) bytes and compares them against the expected
// sequence, failing with ErrNotNCMFile on mismatch or if the source is too
// short to hold the magic at all.
func (r *Reader) ExpectMagic(magic []byte) error {
	if int64(len(magic)) > r.Remaining() {
		return fmt.Errorf("%w: shorter than magic", ncm.ErrNotNCMFile)
	}

	got, err := r.ReadExact(len(magic))
	if err != nil {
		return fmt.Errorf("%w: %s", ncm.ErrNotNCMFile, err)
	}
	if !bytes.Equal(got, magic) {
		return fmt.Errorf("%w: bad magic %x", ncm.ErrNotNCMFile, got)
	}
	return nil
}

// ReadLengthPrefixed reads a 4-byte little-endian length followed by that
// many bytes. A zero length yields an empty, non-nil slice.
func (r *Reader) ReadLengthPrefixed() ([]byte, error) {
	prefix, err := r.ReadExact(4)
	if err != nil {
		return nil, err
	}

	n := binary.LittleEndian.Uint32(prefix)

	// No block of the format (key, metadata, cover) comes anywhere near
	// this; such a length is garbage rather than a cut-off file.
	if int64(n) > maxBlockLen {
		return nil, fmt.Errorf("%w: declared length %d", ncm.ErrInvalidLength, n)
	}

	return r.ReadExact(int(n))
}
