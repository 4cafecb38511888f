package go_ncm

import "errors"

var (
	// ErrNotNCMFile is returned when the input does not start with the NCM
	// container magic.
	ErrNotNCMFile = errors.New("not an ncm file")

	// ErrTruncatedInput is returned when the container ends before a declared
	// block or fixed-size field could be read in full.
	ErrTruncatedInput = errors.New("truncated input")

	// ErrInvalidLength is returned when a declared block length is
	// inconsistent with the remaining file size.
	ErrInvalidLength = errors.New("invalid block length")

	// ErrKeyDecryptionFailed is returned when the key block cannot be
	// decrypted or unpadded, usually format-version drift or corruption.
	ErrKeyDecryptionFailed = errors.New("key decryption failed")

	// ErrInvalidKeyHeader is returned when the decrypted key block does not
	// carry the expected marker at any tolerated offset.
	ErrInvalidKeyHeader = errors.New("invalid key header")
)

// Warning records a non-fatal degradation (metadata or cover decoding
// failure) surfaced to the caller instead of aborting audio decryption.
type Warning struct {
	Stage string
	Err   error
}

func (w Warning) String() string {
	return w.Stage + ": " + w.Err.Error()
}
