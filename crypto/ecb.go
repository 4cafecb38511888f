package crypto

import (
	"crypto/aes"
	"fmt"
)

// decryptECB decrypts data block by block with AES in ECB mode and removes
// the PKCS#7 padding.
func decryptECB(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed creating cipher: %w", err)
	}

	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(data))
	}

	out := make([]byte, len(data))
	for off := 0; off < len(data); off += aes.BlockSize {
		block.Decrypt(out[off:off+aes.BlockSize], data[off:off+aes.BlockSize])
	}

	return unpadPKCS7(out)
}

func unpadPKCS7(data []byte) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding length %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding byte %#x", b)
		}
	}
	return data[:len(data)-n], nil
}
