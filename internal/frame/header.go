// Package frame implements the file-level and per-chunk wire framing of
// component 4.7: the global file header (plain or encrypted), the
// FileFlags bitset, and the per-chunk frame that carries the compressed
// payload length, digest, MAC/CRC32, ChunkFlags byte, and optional
// trailing original-size field.
package frame

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/digest"
	"github.com/moinakg/pcompress-go/internal/ioutil"
	"github.com/moinakg/pcompress-go/internal/pcerr"
)

// FileFlags, 16 bits, OR-ed into the header (spec §6).
type FileFlags uint16

const (
	FlagDedup       FileFlags = 0x0001
	FlagDedupFixed  FileFlags = 0x0002
	FlagSingleChunk FileFlags = 0x0004
	FlagArchive     FileFlags = 0x0008
	FlagMetaStream  FileFlags = 0x0010

	// CksumMask is widened to 4 bits (the original's 3-bit 0x0700 mask
	// cannot represent CKSUM_BLAKE256/512 at all, forcing the original to
	// silently remap them to the Skein ids at parse time); nothing in the
	// testable properties depends on reproducing that remap, so the field
	// is widened here instead.
	CksumMask  FileFlags = 0x0F00
	CksumShift           = 8

	// CipherMask occupies a higher bit range than the named FileFlags
	// bits (0x0001..0x0010) to avoid colliding with FLAG_META_STREAM,
	// which the spec's literal table would otherwise overlap with the
	// AES/SALSA20 cipher id values.
	CipherMask  FileFlags = 0x3000
	CipherShift           = 12
)

func (f FileFlags) Cksum() digest.ID { return digest.ID((f & CksumMask) >> CksumShift) }

// CipherID decodes the 2-bit cipher selector back into the cipher
// package's real id constants (None=0, AES=0x10, SALSA20=0x20); those
// real values don't fit the 2-bit field directly, so a small selector
// is packed/unpacked here instead.
func (f FileFlags) CipherID() cipher.ID {
	switch (f & CipherMask) >> CipherShift {
	case 1:
		return cipher.AES
	case 2:
		return cipher.SALSA20
	default:
		return cipher.None
	}
}

func MakeFlags(dedup, dedupFixed, singleChunk, archive, metaStream bool, cksum digest.ID, cipherID cipher.ID) FileFlags {
	var f FileFlags
	if dedup {
		f |= FlagDedup
	}
	if dedupFixed {
		f |= FlagDedupFixed
	}
	if singleChunk {
		f |= FlagSingleChunk
	}
	if archive {
		f |= FlagArchive
	}
	if metaStream {
		f |= FlagMetaStream
	}
	f |= FileFlags(cksum) << CksumShift

	var sel FileFlags
	switch cipherID {
	case cipher.AES:
		sel = 1
	case cipher.SALSA20:
		sel = 2
	}
	f |= sel << CipherShift
	return f
}

const algoNameFieldSize = 8

// Header is the parsed form of the file header, common to both the
// plain and encrypted variants.
type Header struct {
	AlgoName  string
	Version   uint16
	Flags     FileFlags
	ChunkSize uint64
	Level     uint32

	// Present only when a cipher is configured.
	Salt      []byte
	Nonce     []byte
	KeyLength uint32
}

const CurrentVersion = 1

// Encrypted reports whether this header carries cipher parameters.
func (h Header) Encrypted() bool { return h.Flags.CipherID() != cipher.None }

// WriteTo serialises the header (plain-CRC32 or HMAC-tailed, depending
// on h.Encrypted()) to w. The plain form ends in a 4-byte CRC32; the
// encrypted form ends in an HMAC computed with hmacFn, which the plain
// form does not use.
func (h Header) WriteTo(w io.Writer, hmacFn func() cipher.HMAC) error {
	var body []byte
	body = appendFixedASCII(body, h.AlgoName, algoNameFieldSize)
	body = appendU16(body, h.Version)
	body = appendU16(body, uint16(h.Flags))
	body = appendU64(body, h.ChunkSize)
	body = appendU32(body, h.Level)

	if h.Encrypted() {
		body = appendU32(body, uint32(len(h.Salt)))
		body = append(body, h.Salt...)
		body = append(body, h.Nonce...)
		body = appendU32(body, h.KeyLength)

		mac := hmacFn()
		mac.Write(body)
		sum := mac.Sum(nil)
		body = append(body, sum...)
	} else {
		crc := crc32.ChecksumIEEE(body)
		body = appendU32(body, crc)
	}
	return ioutil.WriteFull(w, body)
}

// ReadHeader parses a file header from r. Whether the salt/nonce/key-length
// fields and an HMAC trailer follow (instead of a bare CRC32) is decided by
// the cipher id packed into the Flags field this function just parsed, not
// by anything the caller has to know in advance — the header is
// self-describing. hmacFn is only consulted when that cipher id is not
// cipher.None.
func ReadHeader(r io.Reader, hmacFn func() cipher.HMAC) (Header, error) {
	var h Header
	fixed := make([]byte, algoNameFieldSize+2+2+8+4)
	if _, err := ioutil.ReadFull(r, fixed); err != nil {
		return h, pcerr.NewFatal("frame.ReadHeader", err)
	}
	h.AlgoName = trimASCII(fixed[0:algoNameFieldSize])
	off := algoNameFieldSize
	h.Version = binary.BigEndian.Uint16(fixed[off:])
	off += 2
	h.Flags = FileFlags(binary.BigEndian.Uint16(fixed[off:]))
	off += 2
	h.ChunkSize = binary.BigEndian.Uint64(fixed[off:])
	off += 8
	h.Level = binary.BigEndian.Uint32(fixed[off:])

	cipherID := h.Flags.CipherID()
	if cipherID == cipher.None {
		var crcBuf [4]byte
		if _, err := ioutil.ReadFull(r, crcBuf[:]); err != nil {
			return h, pcerr.NewFatal("frame.ReadHeader", err)
		}
		if crc32.ChecksumIEEE(fixed) != binary.BigEndian.Uint32(crcBuf[:]) {
			return h, pcerr.ErrHeaderCRC
		}
		return h, nil
	}

	var saltLenBuf [4]byte
	if _, err := ioutil.ReadFull(r, saltLenBuf[:]); err != nil {
		return h, pcerr.NewFatal("frame.ReadHeader", err)
	}
	saltLen := binary.BigEndian.Uint32(saltLenBuf[:])
	h.Salt = make([]byte, saltLen)
	if _, err := ioutil.ReadFull(r, h.Salt); err != nil {
		return h, pcerr.NewFatal("frame.ReadHeader", err)
	}
	h.Nonce = make([]byte, cipher.NonceSize(cipherID))
	if _, err := ioutil.ReadFull(r, h.Nonce); err != nil {
		return h, pcerr.NewFatal("frame.ReadHeader", err)
	}
	var keyLenBuf [4]byte
	if _, err := ioutil.ReadFull(r, keyLenBuf[:]); err != nil {
		return h, pcerr.NewFatal("frame.ReadHeader", err)
	}
	h.KeyLength = binary.BigEndian.Uint32(keyLenBuf[:])

	if hmacFn == nil {
		return h, fmt.Errorf("frame.ReadHeader: encrypted header requires an HMAC function")
	}
	mac := hmacFn()
	macBuf := make([]byte, mac.Size())
	if _, err := ioutil.ReadFull(r, macBuf); err != nil {
		return h, pcerr.NewFatal("frame.ReadHeader", err)
	}

	body := append(append([]byte{}, fixed...), append(saltLenBuf[:], h.Salt...)...)
	body = append(body, h.Nonce...)
	body = append(body, keyLenBuf[:]...)
	mac.Write(body)
	if string(mac.Sum(nil)) != string(macBuf) {
		return h, pcerr.ErrMacMismatch
	}
	return h, nil
}

// PeekSalt reads just enough of a header to recover its cipher id and
// salt, without verifying (or even reading) the HMAC trailer — intended
// for password-based decryption, where the key (and therefore the
// hmacFn ReadHeader needs) cannot be derived until the salt is known.
// Callers that want the full, verified Header must re-read from the
// start of the stream afterwards (r must be an io.Seeker, or the
// caller must have buffered these bytes itself).
func PeekSalt(r io.Reader) (cipher.ID, []byte, error) {
	fixed := make([]byte, algoNameFieldSize+2+2+8+4)
	if _, err := ioutil.ReadFull(r, fixed); err != nil {
		return cipher.None, nil, pcerr.NewFatal("frame.PeekSalt", err)
	}
	flags := FileFlags(binary.BigEndian.Uint16(fixed[algoNameFieldSize+2:]))
	cipherID := flags.CipherID()
	if cipherID == cipher.None {
		return cipher.None, nil, nil
	}

	var saltLenBuf [4]byte
	if _, err := ioutil.ReadFull(r, saltLenBuf[:]); err != nil {
		return cipherID, nil, pcerr.NewFatal("frame.PeekSalt", err)
	}
	salt := make([]byte, binary.BigEndian.Uint32(saltLenBuf[:]))
	if _, err := ioutil.ReadFull(r, salt); err != nil {
		return cipherID, nil, pcerr.NewFatal("frame.PeekSalt", err)
	}
	return cipherID, salt, nil
}

func appendFixedASCII(b []byte, s string, n int) []byte {
	buf := make([]byte, n)
	copy(buf, s)
	return append(b, buf...)
}

func trimASCII(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return string(b[:i])
}

func appendU16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
