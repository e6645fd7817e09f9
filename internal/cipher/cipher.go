// Package cipher implements the cipher abstraction of component 2: a
// trait init(mode, key, salt, nonce), transform(in, out, chunk_id)
// (stream-cipher, in-place allowed), nonce(), wipe_key(). AES-CTR keeps
// the teacher's cached-block-cipher CTR pattern (pkg/crypto/crypto.go's
// NewCTRStream), generalized from a fixed Switch-NCA counter layout to the
// spec's per-chunk base_nonce XOR chunk_id counter (spec.md §4.7).
package cipher

import (
	"crypto/aes"
	cryptocipher "crypto/cipher"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/salsa20/salsa"
)

// ID identifies a cipher algorithm; values match the FileFlags cipher bits
// in spec.md §6 (0x10 = AES, 0x20 = SALSA20, mutually exclusive).
type ID int

const (
	None    ID = 0
	AES     ID = 0x10
	SALSA20 ID = 0x20
)

func Name(id ID) string {
	switch id {
	case AES:
		return "AES"
	case SALSA20:
		return "SALSA20"
	}
	return "NONE"
}

// NonceSize returns the base nonce length for id: 8 bytes for AES-CTR's
// 64-bit counter half, 16 bytes for the base nonce xSalsa20 feeds into
// HSalsa20 (the chunk_id counter that extends it to the full XSalsa20
// construction is derived per chunk in Transform, not stored here).
func NonceSize(id ID) int {
	switch id {
	case AES:
		return 8
	case SALSA20:
		return 16
	}
	return 0
}

// Mode selects encrypt or decrypt at Init time; both use the same
// transform for a stream cipher, but Init validates key length and nonce
// presence according to which direction it is.
type Mode int

const (
	Encrypt Mode = iota
	Decrypt
)

// Cipher is the uniform interface every supported algorithm implements.
type Cipher interface {
	// Transform XORs src into dst (dst may alias src for in-place use)
	// using the keystream positioned for chunk chunkID.
	Transform(dst, src []byte, chunkID uint64)
	// Nonce returns the base nonce generated (or supplied) at Init.
	Nonce() []byte
	// WipeKey scrubs the key material held by the cipher. Called once
	// encryption of the run has begun and the key is no longer needed in
	// the clear (spec.md §4.7: "the core never persists the plaintext
	// key; once encryption begins the key buffer is scrubbed").
	WipeKey()
}

// New constructs a Cipher for id. key must already be derived (see kdf.go);
// nonce may be nil on Encrypt (a fresh nonce is generated via rng) but must
// be supplied on Decrypt.
func New(id ID, mode Mode, key, nonce []byte, rng *SecureRng) (Cipher, error) {
	switch id {
	case AES:
		return newAESCTR(mode, key, nonce, rng)
	case SALSA20:
		return newXSalsa20(mode, key, nonce, rng)
	}
	return nil, fmt.Errorf("cipher: unsupported id %d", id)
}

// aesCTR implements AES-CTR with chunk_iv = base_nonce XOR chunk_id,
// matching the teacher's NewCTRStream but keyed per-run instead of
// per-fixed-Switch-key, and rebuilding the stream.Stream per chunk instead
// of per absolute byte offset (the chunk pipeline only ever seeks on
// chunk boundaries, never mid-chunk).
type aesCTR struct {
	block cryptocipher.Block
	base  [8]byte
	key   []byte
}

func newAESCTR(mode Mode, key, nonce []byte, rng *SecureRng) (*aesCTR, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes-ctr init: %w", err)
	}
	// key is copied rather than aliased so WipeKey only ever scrubs this
	// cipher's own copy, never the caller's key slice.
	ownKey := append([]byte(nil), key...)
	c := &aesCTR{block: block, key: ownKey}
	switch mode {
	case Encrypt:
		if nonce == nil {
			nonce = rng.Bytes(8)
		}
	case Decrypt:
		if len(nonce) != 8 {
			return nil, fmt.Errorf("aes-ctr: decrypt requires an 8-byte nonce")
		}
	}
	copy(c.base[:], nonce)
	return c, nil
}

func (c *aesCTR) Transform(dst, src []byte, chunkID uint64) {
	var counter [16]byte
	base := binary.BigEndian.Uint64(c.base[:])
	binary.BigEndian.PutUint64(counter[0:8], base^chunkID)
	stream := cryptocipher.NewCTR(c.block, counter[:])
	stream.XORKeyStream(dst, src)
}

func (c *aesCTR) Nonce() []byte { return c.base[:] }

func (c *aesCTR) WipeKey() {
	for i := range c.key {
		c.key[i] = 0
	}
}

// xSalsa20 implements XSalsa20 with chunk_iv = concat(base_nonce, chunk_id)
// per spec.md §4.7, using the 24-byte extended-nonce form from
// golang.org/x/crypto/salsa20/salsa (the Hsalsa20 subkey derivation plus
// an 8-byte counter-nonce).
type xSalsa20 struct {
	key   [32]byte
	base  [16]byte
	keyed bool
}

func newXSalsa20(mode Mode, key, nonce []byte, rng *SecureRng) (*xSalsa20, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("xsalsa20: key must be 32 bytes, got %d", len(key))
	}
	c := &xSalsa20{}
	copy(c.key[:], key)
	switch mode {
	case Encrypt:
		if nonce == nil {
			nonce = rng.Bytes(16)
		}
	case Decrypt:
		if len(nonce) != 16 {
			return nil, fmt.Errorf("xsalsa20: decrypt requires a 16-byte nonce")
		}
	}
	copy(c.base[:], nonce)
	c.keyed = true
	return c, nil
}

func (c *xSalsa20) Transform(dst, src []byte, chunkID uint64) {
	// HSalsa20(base[0:16], key) -> 32-byte subkey (the standard XSalsa20
	// construction used by nacl/secretbox), then Salsa20 with an 8-byte
	// per-chunk counter-nonce derived from chunk_id as the low half of the
	// 16-byte block counter, giving the "concat(base_nonce, chunk_id)"
	// construction spec.md §4.7 calls for.
	var hNonce [16]byte
	copy(hNonce[:], c.base[:])

	var subKey [32]byte
	salsa.HSalsa20(&subKey, &hNonce, &c.key, &salsa.Sigma)

	var counter [16]byte
	binary.LittleEndian.PutUint64(counter[0:8], chunkID)

	salsa.XORKeyStream(dst, src, &counter, &subKey)
}

func (c *xSalsa20) Nonce() []byte { return c.base[:] }

func (c *xSalsa20) WipeKey() {
	for i := range c.key {
		c.key[i] = 0
	}
}
