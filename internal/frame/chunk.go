package frame

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/ioutil"
	"github.com/moinakg/pcompress-go/internal/pcerr"
)

// ChunkFlags, one byte at the start of each compressed chunk payload
// (spec §3).
type ChunkFlags uint8

const (
	ChunkCompressed   ChunkFlags = 1 << 0
	ChunkPreprocessed ChunkFlags = 1 << 1
	ChunkDeduped      ChunkFlags = 1 << 2
	// bits 3-6 carry the adaptive sub-algorithm id (0 if not adaptive).
	chunkSubAlgoShift = 3
	chunkSubAlgoMask  = 0x0F
	ChunkVarSize      ChunkFlags = 1 << 7
)

func (f ChunkFlags) SubAlgo() int { return int((f >> chunkSubAlgoShift) & chunkSubAlgoMask) }

func WithSubAlgo(f ChunkFlags, sub int) ChunkFlags {
	f &^= chunkSubAlgoMask << chunkSubAlgoShift
	return f | ChunkFlags((sub&chunkSubAlgoMask)<<chunkSubAlgoShift)
}

// EndOfStream and MetadataIndicator are the two special 8-byte length
// sentinels that precede every per-chunk frame (spec §6).
const (
	EndOfStream       uint64 = 0
	MetadataIndicator uint64 = 0xFFFFFFFFFFFFFFFF
)

// MaxLengthOverhead bounds how far a declared payload length may exceed
// chunksize before the reader treats it as stream corruption.
const MaxLengthOverhead = 256

// ChunkHeader is everything that precedes a chunk's payload bytes.
type ChunkHeader struct {
	Length       uint64
	Digest       []byte // cksum_bytes; empty when encrypting
	Mac          []byte // HMAC or CRC32 over the frame header
	Flags        ChunkFlags
	OriginalSize uint64 // only meaningful/present when Flags&ChunkVarSize != 0
}

// WriteChunk writes one chunk frame: length, digest, mac/crc32, flags,
// payload, and (if Flags has ChunkVarSize set) the trailing original
// size field. macFn, if non-nil, computes an HMAC over the
// length+digest+flags preamble; otherwise a CRC32 of that preamble is
// written.
func WriteChunk(w io.Writer, h ChunkHeader, payload []byte, macFn func() cipher.HMAC) error {
	preamble := make([]byte, 0, 8+len(h.Digest)+1)
	preamble = appendU64(preamble, h.Length)
	preamble = append(preamble, h.Digest...)
	preamble = append(preamble, byte(h.Flags))

	var tail []byte
	if macFn != nil {
		mac := macFn()
		mac.Write(preamble)
		tail = mac.Sum(nil)
	} else {
		var crcBuf [4]byte
		binary.BigEndian.PutUint32(crcBuf[:], crc32.ChecksumIEEE(preamble))
		tail = crcBuf[:]
	}

	out := make([]byte, 0, len(preamble)+len(tail)+len(payload)+8)
	out = appendU64(out, h.Length)
	out = append(out, h.Digest...)
	out = append(out, tail...)
	out = append(out, byte(h.Flags))
	out = append(out, payload...)
	if h.Flags&ChunkVarSize != 0 {
		out = appendU64(out, h.OriginalSize)
	}
	return ioutil.WriteFull(w, out)
}

// WriteEndOfStream writes the terminal zero-length marker.
func WriteEndOfStream(w io.Writer) error {
	var buf [8]byte
	return ioutil.WriteFull(w, buf[:])
}

// WriteMetadataChunk writes one metadata-stream chunk (spec §4.8): the
// METADATA_INDICATOR sentinel length, the real body length, then body.
// body is caller-supplied already-serialised, already-compressed bytes;
// this function only handles the sentinel framing, not the metadata's
// own encoding (see internal/archive).
func WriteMetadataChunk(w io.Writer, body []byte) error {
	out := make([]byte, 0, 16+len(body))
	out = appendU64(out, MetadataIndicator)
	out = appendU64(out, uint64(len(body)))
	out = append(out, body...)
	return ioutil.WriteFull(w, out)
}

// ReadMetadataBody reads the length-prefixed body that follows a
// METADATA_INDICATOR sentinel already consumed by ReadChunk.
func ReadMetadataBody(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := ioutil.ReadFull(r, lenBuf[:]); err != nil {
		return nil, pcerr.NewFatal("frame.ReadMetadataBody", err)
	}
	body := make([]byte, binary.BigEndian.Uint64(lenBuf[:]))
	if _, err := ioutil.ReadFull(r, body); err != nil {
		return nil, pcerr.NewFatal("frame.ReadMetadataBody", err)
	}
	return body, nil
}

// ReadChunk reads one chunk frame. digestSize and macSize must match
// the stream's configured digest/MAC widths (digestSize is 0 when the
// stream is encrypted, per spec §3). isEOS is true when the length
// sentinel signalled end of stream; isMetadata is true when it signalled
// a metadata-stream chunk (archive mode) — in the latter case the
// caller is responsible for reading the metadata length/body that
// follows and this function returns zero values otherwise.
func ReadChunk(r io.Reader, digestSize, macSize int, chunksize uint64, macFn func() cipher.HMAC) (h ChunkHeader, payload []byte, isEOS, isMetadata bool, err error) {
	var lenBuf [8]byte
	if _, err = ioutil.ReadFull(r, lenBuf[:]); err != nil {
		return h, nil, false, false, pcerr.NewFatal("frame.ReadChunk", err)
	}
	length := binary.BigEndian.Uint64(lenBuf[:])

	switch {
	case length == EndOfStream:
		return h, nil, true, false, nil
	case length == MetadataIndicator:
		return h, nil, false, true, nil
	case length > chunksize+MaxLengthOverhead:
		return h, nil, false, false, pcerr.NewFatal("frame.ReadChunk", pcerr.ErrFrameCorrupt)
	}

	h.Length = length
	h.Digest = make([]byte, digestSize)
	if digestSize > 0 {
		if _, err = ioutil.ReadFull(r, h.Digest); err != nil {
			return h, nil, false, false, pcerr.NewFatal("frame.ReadChunk", err)
		}
	}
	mac := make([]byte, macSize)
	if _, err = ioutil.ReadFull(r, mac); err != nil {
		return h, nil, false, false, pcerr.NewFatal("frame.ReadChunk", err)
	}
	var flagByte [1]byte
	if _, err = ioutil.ReadFull(r, flagByte[:]); err != nil {
		return h, nil, false, false, pcerr.NewFatal("frame.ReadChunk", err)
	}
	h.Flags = ChunkFlags(flagByte[0])

	payload = make([]byte, length)
	if _, err = ioutil.ReadFull(r, payload); err != nil {
		return h, nil, false, false, pcerr.NewFatal("frame.ReadChunk", err)
	}

	if h.Flags&ChunkVarSize != 0 {
		var sizeBuf [8]byte
		if _, err = ioutil.ReadFull(r, sizeBuf[:]); err != nil {
			return h, nil, false, false, pcerr.NewFatal("frame.ReadChunk", err)
		}
		h.OriginalSize = binary.BigEndian.Uint64(sizeBuf[:])
	}

	preamble := make([]byte, 0, 8+len(h.Digest)+1)
	preamble = appendU64(preamble, h.Length)
	preamble = append(preamble, h.Digest...)
	preamble = append(preamble, byte(h.Flags))

	if macFn != nil {
		m := macFn()
		m.Write(preamble)
		if string(m.Sum(nil)) != string(mac) {
			return h, nil, false, false, pcerr.ErrMacMismatch
		}
	} else {
		if crc32.ChecksumIEEE(preamble) != binary.BigEndian.Uint32(mac) {
			return h, nil, false, false, fmt.Errorf("frame.ReadChunk: %w", pcerr.ErrHeaderCRC)
		}
	}
	h.Mac = mac
	return h, payload, false, false, nil
}
