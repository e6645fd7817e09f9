package cipher

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// DefaultIterations matches typical pcompress-class KDF iteration counts;
// exposed so the CLI can make it configurable later without touching the
// derivation itself.
const DefaultIterations = 200000

// DeriveKey derives a 128-bit or 256-bit key from password and salt via
// PBKDF2-HMAC-SHA256, per spec.md §4.7 ("A PBKDF-2 derives a 256-bit
// (default) or 128-bit key from the user password plus salt").
func DeriveKey(password, salt []byte, keyLenBytes int) []byte {
	return pbkdf2.Key(password, salt, DefaultIterations, keyLenBytes, sha256.New)
}
