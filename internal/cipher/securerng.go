package cipher

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"os"
	"time"

	"golang.org/x/crypto/blake2b"
)

// SecureRng encapsulates /dev/urandom access with the retry/fallback
// policy from spec.md §7 and §9: up to 10 retries, 1 second apart, falling
// back to a BLAKE2b mix of {clock_monotonic, rand(), pid, rand()} if
// /dev/urandom stays unavailable (the spec names Skein/BLAKE for the
// mixing function; Skein has no implementation in this build per
// digest.New, so the fallback uses BLAKE2b exclusively).
type SecureRng struct {
	retries  int
	interval time.Duration
}

// NewSecureRng returns a SecureRng using the spec's default retry policy.
func NewSecureRng() *SecureRng {
	return &SecureRng{retries: 10, interval: time.Second}
}

// Bytes returns n cryptographically random bytes, retrying crypto/rand
// (which reads /dev/urandom on Unix) before falling back to the mixing
// function.
func (s *SecureRng) Bytes(n int) []byte {
	buf := make([]byte, n)
	var lastErr error
	for i := 0; i < s.retries; i++ {
		if _, err := rand.Read(buf); err == nil {
			return buf
		} else {
			lastErr = err
		}
		if i < s.retries-1 {
			time.Sleep(s.interval)
		}
	}
	_ = lastErr
	return s.fallback(n)
}

// fallback derives n bytes from a BLAKE2b-based mix of clock_monotonic,
// two independent math/rand draws, and the process id, matching
// spec.md §9's "Skein/BLAKE hash over {clock_monotonic, rand(), pid,
// rand()}" without depending on an unavailable Skein implementation.
func (s *SecureRng) fallback(n int) []byte {
	out := make([]byte, 0, n)
	var counter uint64
	for len(out) < n {
		var seed [40]byte
		binary.LittleEndian.PutUint64(seed[0:8], uint64(time.Now().UnixNano()))
		binary.LittleEndian.PutUint64(seed[8:16], mathrand.Uint64())
		binary.LittleEndian.PutUint64(seed[16:24], uint64(os.Getpid()))
		binary.LittleEndian.PutUint64(seed[24:32], mathrand.Uint64())
		binary.LittleEndian.PutUint64(seed[32:40], counter)
		counter++

		sum := blake2b.Sum512(seed[:])
		out = append(out, sum[:]...)
	}
	return out[:n]
}
