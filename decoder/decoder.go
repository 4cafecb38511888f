// Package decoder wires the full NCM pipeline: container parsing, key
// unwrapping, best-effort metadata and cover extraction, and the decrypted
// audio stream.
package decoder

import (
	"fmt"
	"io"
	"os"

	ncm "github.com/mellowave/go-ncm"
	"github.com/mellowave/go-ncm/audio"
	"github.com/mellowave/go-ncm/container"
	"github.com/mellowave/go-ncm/crypto"
	"github.com/mellowave/go-ncm/metadata"
)

// File is one decrypted NCM container. All per-file state lives here and is
// discarded when the conversion ends; the only cross-file values are the
// format's fixed unwrap constants.
type File struct {
	// Metadata is never nil; it is empty when the container carries no
	// metadata block or decoding degraded.
	Metadata *metadata.Record

	// Cover is the embedded cover image, nil when absent.
	Cover []byte

	// Format is detected from the first decrypted payload bytes.
	Format audio.Format

	// Warnings carries non-fatal degradations (metadata, cover).
	Warnings []ncm.Warning

	decryptor *audio.Decryptor
}

// New parses and unwraps an NCM container. Key unwrapping failures are
// fatal; metadata failures degrade to warnings.
func New(src ncm.SizedReadAt, log ncm.Logger) (*File, error) {
	if log == nil {
		log = &ncm.NullLogger{}
	}

	c, err := container.Parse(src)
	if err != nil {
		return nil, err
	}

	key, err := crypto.UnwrapKey(c.RawKey)
	if err != nil {
		return nil, err
	}

	f := &File{Cover: c.Cover}
	f.Metadata, f.Warnings = metadata.Decode(c.RawMeta)
	for _, w := range f.Warnings {
		log.WithError(w.Err).Warnf("degraded %s", w.Stage)
	}

	f.decryptor = audio.NewDecryptor(src, key, c.AudioOffset, src.Size()-c.AudioOffset)

	head := make([]byte, 16)
	n, err := f.decryptor.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading payload head: %w", err)
	}
	f.Format = audio.DetectFormat(head[:n])

	log.WithField("format", f.Format.String()).
		WithField("payload", f.decryptor.Size()).
		Debugf("unwrapped container, key %d bytes", len(key))

	return f, nil
}

// Audio returns the position-addressable decrypted payload.
func (f *File) Audio() *audio.Decryptor {
	return f.decryptor
}

// Close releases the underlying source when it is closeable.
func (f *File) Close() error {
	return f.decryptor.Close()
}

type fileSource struct {
	*os.File
	size int64
}

func (s fileSource) Size() int64 { return s.size }

// Open decodes an NCM file from disk. Closing the returned File closes the
// underlying descriptor.
func Open(path string, log ncm.Logger) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, err
	}

	f, err := New(fileSource{fh, info.Size()}, log)
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	return f, nil
}
