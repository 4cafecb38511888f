package crypto

import (
	"bytes"
	"fmt"

	ncm "github.com/mellowave/go-ncm"
)

// UnwrapKey recovers the per-file keystream key from the raw key block: the
// block is XOR-masked, AES-ECB encrypted with the fixed core key, and the
// plaintext starts with a textual marker confirming the decryption.
//
// The marker is expected at offset 0 but tolerated up to markerScanLimit
// bytes in, since some producer versions shift it.
func UnwrapKey(block []byte) ([]byte, error) {
	masked := make([]byte, len(block))
	for i, b := range block {
		masked[i] = b ^ keyXorMask
	}

	plain, err := decryptECB(coreKey, masked)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ncm.ErrKeyDecryptionFailed, err)
	}

	off := bytes.Index(plain, keyMarker)
	if off < 0 || off > markerScanLimit {
		return nil, fmt.Errorf("%w: marker not found within %d bytes", ncm.ErrInvalidKeyHeader, markerScanLimit)
	}

	key := plain[off+len(keyMarker):]

	// Some producers pad the key with trailing NULs.
	key = bytes.TrimRight(key, "\x00")
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty key after marker", ncm.ErrInvalidKeyHeader)
	}

	return key, nil
}
