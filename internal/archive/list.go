package archive

import (
	"io"

	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/digest"
	"github.com/moinakg/pcompress-go/internal/frame"
)

// ChunkSummary is one scanned chunk frame's bookkeeping, without its
// payload decompressed — list mode (spec §6 `-i`) only needs sizes and
// flags, never the decoded bytes.
type ChunkSummary struct {
	CompressedLength uint64
	Flags            frame.ChunkFlags
	OriginalSize     uint64 // only set when Flags&ChunkVarSize is set
}

// ListResult is everything List recovers from a stream without
// running any chunk through a decompressor.
type ListResult struct {
	Header  frame.Header
	Chunks  []ChunkSummary
	Entries []Entry // nil unless the stream carries a metadata chunk
}

// List scans r's file header and every chunk frame, reporting sizes and
// flags plus the decoded metadata-stream entry list (if the archive
// carries one), without decompressing or decrypting any chunk payload.
// hmacFn must be supplied whenever the stream may be encrypted — pass
// nil only for definitely-plain streams, matching frame.ReadHeader's
// and frame.ReadChunk's own contracts.
//
// Because r is read once, forward-only, this is deliberately built
// directly on frame.ReadHeader/frame.ReadChunk rather than threading a
// second, byte-skipping fast path through them: list mode is already
// far cheaper than a real decompress (no codec, no dedup, no cipher
// work per chunk), and a separate skip-only parser would double the
// surface that has to agree with the wire format.
func List(r io.Reader, hmacFn func() cipher.HMAC) (ListResult, error) {
	var res ListResult

	hdr, err := frame.ReadHeader(r, hmacFn)
	if err != nil {
		return res, err
	}
	res.Header = hdr

	cipherActive := hdr.Encrypted()
	digestSize := 0
	if !cipherActive {
		digestSize = digest.Size(hdr.Flags.Cksum())
	}
	macSize := 4
	if cipherActive {
		macSize = cipher.HMACSize(hdr.Flags.Cksum())
	}

	for {
		chdr, payload, isEOS, isMeta, err := frame.ReadChunk(r, digestSize, macSize, hdr.ChunkSize, hmacFn)
		if err != nil {
			return res, err
		}
		if isEOS {
			return res, nil
		}
		if isMeta {
			body, err := frame.ReadMetadataBody(r)
			if err != nil {
				return res, err
			}
			entries, err := DecodeEntries(body)
			if err != nil {
				return res, err
			}
			res.Entries = entries
			continue
		}
		res.Chunks = append(res.Chunks, ChunkSummary{
			CompressedLength: uint64(len(payload)),
			Flags:            chdr.Flags,
			OriginalSize:     chdr.OriginalSize,
		})
	}
}
