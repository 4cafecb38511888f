package crypto

// KeySchedule is a 256-entry permutation of 0..255 derived once per file from
// the unwrapped key. It is immutable after construction.
type KeySchedule [256]byte

// NewKeySchedule runs the key-scheduling permutation pass over the unwrapped
// key. Unlike RC4 proper, no drop-N discard phase follows.
func NewKeySchedule(key []byte) *KeySchedule {
	var t KeySchedule
	for i := range t {
		t[i] = byte(i)
	}

	var j byte
	for i := 0; i < len(t); i++ {
		j += t[i] + key[i%len(key)]
		t[i], t[j] = t[j], t[i]
	}

	return &t
}

// ByteAt returns the keystream byte for absolute payload position pos.
//
// This is the format's double-indexing rule, not RC4 output generation: with
// i = (pos+1) mod 256 and j = (T[i] + T[(i+T[i]) mod 256]) mod 256, the
// keystream byte is T[(i+j) mod 256]. The table is never mutated, so any
// position can be computed without replaying prior bytes.
func (t *KeySchedule) ByteAt(pos int64) byte {
	i := byte(pos + 1)
	j := t[i] + t[i+t[i]]
	return t[i+j]
}

// Keystream XOR-decrypts the audio payload at arbitrary offsets. The
// double-indexing rule depends only on pos mod 256, so the whole keystream
// collapses to a precomputed 256-byte page.
type Keystream struct {
	page [256]byte
}

// NewKeystream builds the keystream for an unwrapped key.
func NewKeystream(key []byte) *Keystream {
	t := NewKeySchedule(key)

	var k Keystream
	for p := range k.page {
		k.page[p] = t.ByteAt(int64(p))
	}
	return &k
}

// ByteAt returns the keystream byte for absolute payload position pos.
func (k *Keystream) ByteAt(pos int64) byte {
	return k.page[pos&0xff]
}

// XORAt XORs buf in place with the keystream starting at absolute payload
// position offset.
func (k *Keystream) XORAt(buf []byte, offset int64) {
	for i := range buf {
		buf[i] ^= k.page[(offset+int64(i))&0xff]
	}
}
