// Package crypto implements the NCM container's cryptographic unwrapping:
// the AES-ECB key and metadata decryption and the keystream used to XOR the
// audio payload.
package crypto

// The container format's compiled-in constants. These belong to the format's
// producer, not the user, and are never reassigned.
var (
	// coreKey decrypts the per-file key block.
	coreKey = []byte("hzHRAmso5kInbaxW")

	// metaKey decrypts the metadata block.
	metaKey = []byte{
		0x23, 0x31, 0x34, 0x6c, 0x6a, 0x6b, 0x5f, 0x21,
		0x5c, 0x5d, 0x26, 0x30, 0x55, 0x3c, 0x27, 0x28,
	}

	// keyMarker prefixes a correctly decrypted key block.
	keyMarker = []byte("neteasecloudmusic")
)

const (
	// keyXorMask obfuscates the key block on disk.
	keyXorMask = 0x64

	// MetaXorMask obfuscates the metadata block on disk.
	MetaXorMask = 0x63
)

// markerScanLimit bounds the tolerant marker search. Some producer versions
// shift the marker by a handful of bytes; offsets beyond this have never been
// observed and are treated as an unsupported variant.
const markerScanLimit = 8

// MetaDecrypt decrypts a metadata block with the fixed metadata key.
func MetaDecrypt(data []byte) ([]byte, error) {
	return decryptECB(metaKey, data)
}
