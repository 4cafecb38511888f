package crypto

import (
	"bytes"
	"crypto/aes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecryptECBRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef")

	for _, n := range []int{0, 1, 15, 16, 17, 100} {
		plain := bytes.Repeat([]byte{0x5a}, n)

		got, err := decryptECB(key, encryptECB(t, key, plain))
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, plain, got, "length %d", n)
	}
}

func TestDecryptECBRejectsUnalignedInput(t *testing.T) {
	key := []byte("0123456789abcdef")

	for _, n := range []int{0, 1, 15, 17, 31} {
		_, err := decryptECB(key, make([]byte, n))
		assert.Error(t, err, "length %d", n)
	}
}

func TestUnpadPKCS7(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    []byte
		wantErr bool
	}{
		{
			name: "full padding block",
			in:   append([]byte{}, bytes.Repeat([]byte{16}, 16)...),
			want: []byte{},
		},
		{
			name: "single padding byte",
			in:   append(bytes.Repeat([]byte{0xab}, 15), 1),
			want: bytes.Repeat([]byte{0xab}, 15),
		},
		{
			name:    "zero padding byte",
			in:      append(bytes.Repeat([]byte{0xab}, 15), 0),
			wantErr: true,
		},
		{
			name:    "padding longer than block size",
			in:      append(bytes.Repeat([]byte{0xab}, 15), 17),
			wantErr: true,
		},
		{
			name:    "inconsistent padding bytes",
			in:      append(bytes.Repeat([]byte{0xab}, 13), 2, 3, 3),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, 0, len(tt.in)%aes.BlockSize, "bad test fixture")

			got, err := unpadPKCS7(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
