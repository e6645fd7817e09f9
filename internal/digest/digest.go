// Package digest implements the digest/MAC abstraction of component 1: a
// trait with init/update/final/reinit/clone, one implementation per
// supported algorithm. The core treats every algorithm behind this
// interface and never branches on the concrete type.
package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"hash/crc64"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// ID identifies a digest algorithm; values match the CKSUM_MASK table in
// spec.md §6 exactly so they round-trip through the file header unchanged.
type ID int

const (
	CRC64 ID = 1
	SKEIN256 ID = 2
	SKEIN512 ID = 3
	SHA256 ID = 4
	SHA512 ID = 5
	KECCAK256 ID = 6
	KECCAK512 ID = 7
	BLAKE256 ID = 8
	BLAKE512 ID = 9
)

// Size returns the digest size in bytes for id, used to size cksum_bytes in
// the file header and chunk frame.
func Size(id ID) int {
	switch id {
	case CRC64:
		return 8
	case SKEIN256, SHA256, KECCAK256, BLAKE256:
		return 32
	case SKEIN512, SHA512, KECCAK512, BLAKE512:
		return 64
	}
	return 0
}

// Name returns the CLI name for id, as accepted by the -S flag.
func Name(id ID) string {
	switch id {
	case CRC64:
		return "CRC64"
	case SKEIN256:
		return "SKEIN256"
	case SKEIN512:
		return "SKEIN512"
	case SHA256:
		return "SHA256"
	case SHA512:
		return "SHA512"
	case KECCAK256:
		return "KECCAK256"
	case KECCAK512:
		return "KECCAK512"
	case BLAKE256:
		return "BLAKE256"
	case BLAKE512:
		return "BLAKE512"
	}
	return "UNKNOWN"
}

// ParseName maps a -S flag value to its ID.
func ParseName(s string) (ID, error) {
	for _, id := range []ID{CRC64, SKEIN256, SKEIN512, SHA256, SHA512, KECCAK256, KECCAK512, BLAKE256, BLAKE512} {
		if Name(id) == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("digest: unknown checksum name %q", s)
}

// Digest is the uniform interface every supported algorithm implements.
// Reinit restores an algorithm instance to its initial state without
// reallocating; Clone returns a new, independent instance of the same
// algorithm in its initial state (it does not copy data already written).
type Digest interface {
	Update(p []byte)
	Final() []byte
	Reinit()
	Clone() Digest
}

// New constructs the Digest implementation for id. SKEIN256/SKEIN512 are
// named by the spec as out-of-scope external collaborators (spec.md §1)
// and have no pure-Go implementation in the retrieval pack; New returns
// an error wrapping errUnavailable for them rather than silently substituting another
// algorithm under the same id.
func New(id ID) (Digest, error) {
	ctor, err := ctorFor(id)
	if err != nil {
		return nil, err
	}
	return &hashDigest{h: ctor(), id: id}, nil
}

// ctorFor returns the hash.Hash constructor for id.
func ctorFor(id ID) (func() hash.Hash, error) {
	switch id {
	case CRC64:
		return func() hash.Hash { return crc64.New(crc64.MakeTable(crc64.ISO)) }, nil
	case SHA256:
		return func() hash.Hash { return sha256.New() }, nil
	case SHA512:
		return func() hash.Hash { return sha512.New() }, nil
	case KECCAK256:
		return func() hash.Hash { return sha3.NewLegacyKeccak256() }, nil
	case KECCAK512:
		return func() hash.Hash { return sha3.NewLegacyKeccak512() }, nil
	case BLAKE256:
		return func() hash.Hash { h, _ := blake2b.New256(nil); return h }, nil
	case BLAKE512:
		return func() hash.Hash { h, _ := blake2b.New512(nil); return h }, nil
	case SKEIN256, SKEIN512:
		return nil, fmt.Errorf("digest %s: %w", Name(id), errUnavailable)
	}
	return nil, fmt.Errorf("digest: %w: id %d", errUnavailable, id)
}

// hashDigest adapts stdlib/x-crypto hash.Hash implementations (all of
// which already expose Write/Sum/Reset) to the Digest interface.
type hashDigest struct {
	h  hash.Hash
	id ID
}

func (d *hashDigest) Update(p []byte) { d.h.Write(p) }
func (d *hashDigest) Final() []byte   { return d.h.Sum(nil) }
func (d *hashDigest) Reinit()         { d.h.Reset() }

// Clone returns a fresh digest of the same algorithm in its initial state.
// None of the wrapped hash.Hash implementations expose mid-stream state
// copying, so a worker that needs a running mid-chunk snapshot must branch
// before the first Update rather than mid-stream.
func (d *hashDigest) Clone() Digest {
	ctor, _ := ctorFor(d.id)
	return &hashDigest{h: ctor(), id: d.id}
}

var errUnavailable = fmt.Errorf("not available in this build")
