package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// zlibCodec implements -c zlib, grounded on the teacher's pooled-encoder
// pattern (pkg/zstd/zstd.go) but over klauspost/compress/zlib, the
// drop-in replacement for compress/zlib the teacher's own module already
// vendors.
type zlibCodec struct {
	level int
}

func newZlibCodec(level int) (*zlibCodec, error) {
	lv := clampZlibLevel(level)
	return &zlibCodec{level: lv}, nil
}

func clampZlibLevel(level int) int {
	// spec.md's -l range is 0-14; zlib only understands 0-9, so levels
	// above 9 are clamped to best compression.
	if level > 9 {
		return 9
	}
	if level < 0 {
		return zlib.DefaultCompression
	}
	return level
}

func (c *zlibCodec) Compress(dst, src []byte, level int) (int, int, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, clampZlibLevel(level))
	if err != nil {
		return 0, 0, err
	}
	if _, err := w.Write(src); err != nil {
		w.Close()
		return 0, 0, err
	}
	if err := w.Close(); err != nil {
		return 0, 0, err
	}
	if buf.Len() >= len(src) {
		return 0, 0, ErrIncompressible
	}
	if buf.Len() > len(dst) {
		return 0, 0, fmt.Errorf("codec/zlib: destination buffer too small (%d < %d)", len(dst), buf.Len())
	}
	n := copy(dst, buf.Bytes())
	return n, 0, nil
}

func (c *zlibCodec) Decompress(dst, src []byte, level int, subAlgo int) (int, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.ReadFull(r, dst)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, err
	}
	return n, nil
}

func (c *zlibCodec) Props(level, chunksize int) AlgoProps {
	return AlgoProps{
		BufExtra:             64,
		CompressMTCapable:    true,
		DecompressMTCapable:  true,
		SingleChunkMTCapable: false,
		CMaxThreads:          1,
		DMaxThreads:          1,
		Delta2Span:           4,
		DeltaCMinDistance:    4096,
		ChecksumHint:         true,
	}
}

func (c *zlibCodec) Deinit() {}
