// Package archive implements the metadata-stream/archive-mode component of
// spec.md §4.8: a secondary stream of file-list metadata interleaved with
// the primary chunk stream, plus the `-i` list-mode scan and `-a`
// archive-create/extract entry points built on top of internal/pipeline.
//
// The multi-file container shape (a flat string table of names paired with
// per-entry size/mode, written once up front) is grounded on the teacher's
// pkg/fs.PFS0Header/PFS0FileEntry: a fixed entry array plus one trailing
// string table. Archive mode here has no need for PFS0's offset/size table
// though, since file boundaries fall out of the concatenated chunk stream
// itself; only names, sizes and modes are carried.
package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/s2"
)

// Entry describes one file in an archive's metadata stream.
type Entry struct {
	Name string
	Size uint64
	Mode uint32
}

// EncodeEntries serialises entries into a flat record stream and
// compresses it with S2 (this port's LZ4-class codec, see
// internal/codec/lz4.go), matching spec §4.8's "metadata producer has its
// own small worker (LZ4-compressed...)". The result is meant to be handed
// to pipeline.Options.MetaBody as-is.
func EncodeEntries(entries []Entry) []byte {
	raw := make([]byte, 0, 4+len(entries)*16)
	raw = appendU32(raw, uint32(len(entries)))
	for _, e := range entries {
		raw = appendU16(raw, uint16(len(e.Name)))
		raw = append(raw, e.Name...)
		raw = appendU64(raw, e.Size)
		raw = appendU32(raw, e.Mode)
	}
	return s2.Encode(nil, raw)
}

// DecodeEntries reverses EncodeEntries.
func DecodeEntries(body []byte) ([]Entry, error) {
	raw, err := s2.Decode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("archive: decode metadata: %w", err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("archive: metadata body too short")
	}
	count := binary.BigEndian.Uint32(raw)
	off := 4
	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+2 > len(raw) {
			return nil, fmt.Errorf("archive: truncated metadata at entry %d", i)
		}
		nameLen := int(binary.BigEndian.Uint16(raw[off:]))
		off += 2
		if off+nameLen+8+4 > len(raw) {
			return nil, fmt.Errorf("archive: truncated metadata at entry %d", i)
		}
		name := string(raw[off : off+nameLen])
		off += nameLen
		size := binary.BigEndian.Uint64(raw[off:])
		off += 8
		mode := binary.BigEndian.Uint32(raw[off:])
		off += 4
		entries = append(entries, Entry{Name: name, Size: size, Mode: mode})
	}
	return entries, nil
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
