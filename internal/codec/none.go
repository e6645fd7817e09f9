package codec

import (
	"errors"
	"fmt"
)

// ErrIncompressible signals that a backend declined to compress a chunk
// because the result would not have been smaller; the worker falls back
// to storing the chunk raw (spec.md §3's invariant on equal-or-larger
// compressed output).
var ErrIncompressible = errors.New("codec: chunk did not compress smaller")

// noneCodec implements -c none: the chunk is always stored raw. Present
// so "none" can still flow through the same Compressor-shaped call sites
// as every other algorithm, rather than pipeline.go special-casing it.
type noneCodec struct{}

func (c *noneCodec) Compress(dst, src []byte, level int) (int, int, error) {
	return 0, 0, ErrIncompressible
}

func (c *noneCodec) Decompress(dst, src []byte, level int, subAlgo int) (int, error) {
	return 0, fmt.Errorf("codec/none: decompress should never be called on a raw chunk")
}

func (c *noneCodec) Props(level, chunksize int) AlgoProps {
	return AlgoProps{}
}

func (c *noneCodec) Deinit() {}

// unavailableCodec implements the Compressor interface for algorithms
// named by the spec (PPMd, libbsc) that have no pure-Go implementation
// anywhere in the retrieval pack. Per spec.md §1 these are external
// collaborators the core treats as black boxes; this returns a clear
// configuration error instead of silently falling back to another
// algorithm under the requested id.
type unavailableCodec struct{ name string }

func (c *unavailableCodec) Compress(dst, src []byte, level int) (int, int, error) {
	return 0, 0, fmt.Errorf("codec: %s is not available in this build", c.name)
}

func (c *unavailableCodec) Decompress(dst, src []byte, level int, subAlgo int) (int, error) {
	return 0, fmt.Errorf("codec: %s is not available in this build", c.name)
}

func (c *unavailableCodec) Props(level, chunksize int) AlgoProps { return AlgoProps{} }
func (c *unavailableCodec) Deinit()                              {}
