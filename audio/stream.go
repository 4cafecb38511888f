package audio

import (
	"context"
	"fmt"
	"io"
)

// DefaultChunkSize is an efficiency choice only: chunk boundaries never
// affect output because the keystream is position-addressable.
const DefaultChunkSize = 512 * 1024

// Copy streams the whole payload from src to w in fixed-size chunks,
// checking ctx between chunks so a batch abort takes effect promptly.
// Returns the number of decrypted bytes written. The destination contents
// are undefined when an error or cancellation occurs; discarding them is the
// caller's responsibility.
func Copy(ctx context.Context, w io.Writer, src *Decryptor) (int64, error) {
	return CopyChunked(ctx, w, src, DefaultChunkSize)
}

// CopyChunked is Copy with an explicit chunk size.
func CopyChunked(ctx context.Context, w io.Writer, src *Decryptor, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		return 0, fmt.Errorf("invalid chunk size %d", chunkSize)
	}

	buf := make([]byte, chunkSize)
	var written int64
	for pos := int64(0); pos < src.Size(); {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, err := src.ReadAt(buf, pos)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("writing audio: %w", werr)
			}
			written += int64(n)
			pos += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, fmt.Errorf("decrypting audio at %d: %w", pos, err)
		}
	}

	return written, nil
}
