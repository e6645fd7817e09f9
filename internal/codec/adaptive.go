package codec

import "fmt"

// Sub-algorithm ids stored in ChunkFlags bits 3-6 (spec.md §3, §4.6) when
// an adaptive backend picks a winner for a given chunk. 0 is reserved for
// "not adaptive" by callers that never invoke an adaptive backend.
const (
	SubAlgoZlib  = 1
	SubAlgoLZMA  = 2
	SubAlgoBzip2 = 3
	SubAlgoLZ4   = 4
)

// adaptiveCodec implements -c adapt / -c adapt2: per spec.md §9 ("the
// source re-enters the dispatch table ... model as a regular variant
// dispatch in the Compressor trait"), each chunk is tried against a fixed
// roster of inner backends and the smallest result wins. adapt tries the
// fast roster (zlib, lz4); adapt2 additionally tries lzma and bzip2 for a
// better, slower search.
type adaptiveCodec struct {
	level     int
	wide      bool
	zlib      *zlibCodec
	lz4       *lz4Codec
	lzma      *lzmaCodec
	bzip2     *bzip2Codec
}

func newAdaptiveCodec(level int, wide bool) (*adaptiveCodec, error) {
	z, err := newZlibCodec(level)
	if err != nil {
		return nil, err
	}
	a := &adaptiveCodec{level: level, wide: wide, zlib: z, lz4: &lz4Codec{}}
	if wide {
		l, err := newLZMACodec(level, 1, false)
		if err != nil {
			return nil, err
		}
		b, err := newBzip2Codec(level)
		if err != nil {
			return nil, err
		}
		a.lzma, a.bzip2 = l, b
	}
	return a, nil
}

type candidate struct {
	subAlgo int
	codec   Compressor
}

func (c *adaptiveCodec) roster() []candidate {
	cands := []candidate{
		{SubAlgoZlib, c.zlib},
		{SubAlgoLZ4, c.lz4},
	}
	if c.wide {
		cands = append(cands, candidate{SubAlgoLZMA, c.lzma}, candidate{SubAlgoBzip2, c.bzip2})
	}
	return cands
}

func (c *adaptiveCodec) Compress(dst, src []byte, level int) (int, int, error) {
	bestN := -1
	bestSub := 0
	scratch := make([]byte, len(dst))

	for _, cand := range c.roster() {
		n, _, err := cand.codec.Compress(scratch, src, level)
		if err != nil {
			continue
		}
		if bestN == -1 || n < bestN {
			bestN = n
			bestSub = cand.subAlgo
			copy(dst, scratch[:n])
		}
	}
	if bestN == -1 {
		return 0, 0, ErrIncompressible
	}
	return bestN, bestSub, nil
}

func (c *adaptiveCodec) Decompress(dst, src []byte, level int, subAlgo int) (int, error) {
	for _, cand := range c.roster() {
		if cand.subAlgo == subAlgo {
			return cand.codec.Decompress(dst, src, level, 0)
		}
	}
	return 0, fmt.Errorf("codec/adapt: unknown sub-algorithm id %d", subAlgo)
}

func (c *adaptiveCodec) Props(level, chunksize int) AlgoProps {
	props := c.zlib.Props(level, chunksize)
	props.ChecksumHint = true
	return props
}

func (c *adaptiveCodec) Deinit() {
	c.zlib.Deinit()
	c.lz4.Deinit()
	if c.wide {
		c.lzma.Deinit()
		c.bzip2.Deinit()
	}
}
