package dedup

import (
	"encoding/binary"
	"fmt"
)

// Config carries the subset of CLI flags (spec §6: -D -G -F -E -B) that
// drive the in-chunk dedup pass.
type Config struct {
	Enabled       bool
	FixedBlock    bool // -F: skip content-defined chunking, use fixed blocks of the -B average block size
	DeltaEncoding bool // -E: enable SIMILAR_PARTIAL detection and delta patches
	DeltaIntensity int // 0, 1 (-E) or 2 (-E -E): selects the similarity sketch precision
	AvgBlockIndex int  // -B 0..5
	MinDistance   int  // deltac_min_distance: minimum offset gap for a similar-block candidate
}

func (c Config) similarityPercent() SimilarityPercent {
	switch c.DeltaIntensity {
	case 2:
		return SimilarityHigh
	case 1:
		return SimilarityMedium
	default:
		return SimilarityLow
	}
}

// EncodeChunk attempts to dedup a single compression chunk in place. On
// success it returns the encoded form (block-index array followed by the
// surviving literal/patch data) and ok=true. ok=false means dedup did
// not shrink the chunk and the caller must emit data unmodified with the
// dedup flag clear (spec §4.4, "Failure to compress the index").
func EncodeChunk(data []byte, cfg Config) (out []byte, ok bool) {
	if !cfg.Enabled || len(data) < minChunkSizeForDedup {
		return nil, false
	}

	var blocks []Block
	if cfg.FixedBlock {
		blocks = fixedBlocks(data, 1<<avgBlockShiftForIndex(cfg.AvgBlockIndex))
	} else {
		blocks = NewChunker(cfg.AvgBlockIndex).Split(data)
	}
	if len(blocks) < 3 {
		return nil, false
	}

	entries := buildEntries(data, blocks, cfg.similarityPercent(), cfg.DeltaEncoding, cfg.MinDistance)

	index := make([]byte, 0, len(entries)*4)
	body := make([]byte, 0, len(data))

	for _, e := range entries {
		var word uint32
		switch e.Kind {
		case 0:
			word = uint32(e.Length) & IndexValueMask
			body = append(body, data[e.Offset:e.Offset+e.Length]...)
		case SimilarExact:
			word = IndexFlag | (uint32(e.RefIndex) & IndexValueMask)
		case SimilarPartial:
			word = IndexFlag | SimilarityFlag | (uint32(e.RefIndex) & IndexValueMask)
			ref := entries[e.RefIndex]
			patch := DeltaEncode(data[ref.Offset:ref.Offset+ref.Length], data[e.Offset:e.Offset+e.Length])
			body = appendU32(body, uint32(len(patch)))
			body = append(body, patch...)
		}
		index = appendU32(index, word)
	}

	out = make([]byte, 0, 8+len(index)+len(body))
	out = appendU32(out, uint32(len(entries)))
	out = appendU32(out, uint32(len(index)))
	out = append(out, index...)
	out = append(out, body...)

	if len(out) >= len(data) {
		return nil, false
	}
	return out, true
}

// DecodeChunk reverses EncodeChunk, given the full encoded byte stream
// produced above.
func DecodeChunk(encoded []byte) ([]byte, error) {
	if len(encoded) < 8 {
		return nil, fmt.Errorf("dedup: encoded chunk too short")
	}
	blknum := binary.BigEndian.Uint32(encoded[0:4])
	indexLen := binary.BigEndian.Uint32(encoded[4:8])
	pos := 8
	if uint32(len(encoded)) < uint32(pos)+indexLen {
		return nil, fmt.Errorf("dedup: truncated index array")
	}
	index := encoded[pos : pos+int(indexLen)]
	pos += int(indexLen)
	body := encoded[pos:]

	recon := make([][]byte, blknum)
	var out []byte
	bodyPos := 0

	for i := uint32(0); i < blknum; i++ {
		if len(index) < int(i+1)*4 {
			return nil, fmt.Errorf("dedup: short index entry %d", i)
		}
		word := binary.BigEndian.Uint32(index[i*4 : i*4+4])

		var block []byte
		switch {
		case word&IndexFlag == 0:
			length := int(word & IndexValueMask)
			if bodyPos+length > len(body) {
				return nil, fmt.Errorf("dedup: literal run overruns data area")
			}
			block = body[bodyPos : bodyPos+length]
			bodyPos += length
		case word&SimilarityFlag == 0:
			ref := int(word & IndexValueMask)
			if ref >= int(i) {
				return nil, fmt.Errorf("dedup: forward reference at block %d", i)
			}
			block = recon[ref]
		default:
			ref := int(word & IndexValueMask)
			if ref >= int(i) {
				return nil, fmt.Errorf("dedup: forward reference at block %d", i)
			}
			if bodyPos+4 > len(body) {
				return nil, fmt.Errorf("dedup: truncated patch length")
			}
			patchLen := int(binary.BigEndian.Uint32(body[bodyPos : bodyPos+4]))
			bodyPos += 4
			if bodyPos+patchLen > len(body) {
				return nil, fmt.Errorf("dedup: truncated patch body")
			}
			patch := body[bodyPos : bodyPos+patchLen]
			bodyPos += patchLen
			var err error
			block, err = DeltaDecode(recon[ref], patch)
			if err != nil {
				return nil, fmt.Errorf("dedup: block %d: %w", i, err)
			}
		}
		recon[i] = block
		out = append(out, block...)
	}
	return out, nil
}

func fixedBlocks(data []byte, size int) []Block {
	var blocks []Block
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}
		blocks = append(blocks, Block{Offset: off, Length: end - off})
	}
	return blocks
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
