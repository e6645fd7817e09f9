package codec

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// lz4Codec implements -c lz4. klauspost/compress ships no LZ4 decoder,
// but its sibling S2 format (same module the teacher already depends on
// for zstd) targets the identical niche — a very fast, low-ratio,
// SIMD-friendly block codec — and is the pack's closest drop-in for the
// spec's "lz4" backend; see DESIGN.md for why this substitution was made
// instead of adding a second, unrelated compression module.
type lz4Codec struct{}

func (c *lz4Codec) Compress(dst, src []byte, level int) (int, int, error) {
	out := s2.Encode(nil, src)
	if len(out) >= len(src) {
		return 0, 0, ErrIncompressible
	}
	if len(out) > len(dst) {
		return 0, 0, fmt.Errorf("codec/lz4: destination buffer too small (%d < %d)", len(dst), len(out))
	}
	n := copy(dst, out)
	return n, 0, nil
}

func (c *lz4Codec) Decompress(dst, src []byte, level int, subAlgo int) (int, error) {
	out, err := s2.Decode(nil, src)
	if err != nil {
		return 0, err
	}
	if len(out) > len(dst) {
		return 0, fmt.Errorf("codec/lz4: destination buffer too small (%d < %d)", len(dst), len(out))
	}
	n := copy(dst, out)
	return n, nil
}

func (c *lz4Codec) Props(level, chunksize int) AlgoProps {
	return AlgoProps{
		BufExtra:             32,
		CompressMTCapable:    false,
		DecompressMTCapable:  false,
		SingleChunkMTCapable: false,
		CMaxThreads:          1,
		DMaxThreads:          1,
		Delta2Span:           0,
		DeltaCMinDistance:    0,
		ChecksumHint:         false,
	}
}

func (c *lz4Codec) Deinit() {}
