package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
)

// bzip2Codec implements -c bzip2 via github.com/dsnet/compress/bzip2, the
// pure-Go bzip2 implementation retrieved in the pack (dsnet-compress).
type bzip2Codec struct {
	level int
}

func newBzip2Codec(level int) (*bzip2Codec, error) {
	lv := level
	if lv < bzip2.BestSpeed {
		lv = bzip2.DefaultCompression
	}
	if lv > bzip2.BestCompression {
		lv = bzip2.BestCompression
	}
	return &bzip2Codec{level: lv}, nil
}

func (c *bzip2Codec) Compress(dst, src []byte, level int) (int, int, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: c.level})
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
		return 0, 0, fmt.Errorf("codec/bzip2: destination buffer too small (%d < %d)", len(dst), buf.Len())
	}
	n := copy(dst, buf.Bytes())
	return n, 0, nil
}

func (c *bzip2Codec) Decompress(dst, src []byte, level int, subAlgo int) (int, error) {
	r, err := bzip2.NewReader(bytes.NewReader(src), nil)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return n, err
	}
	return n, nil
}

func (c *bzip2Codec) Props(level, chunksize int) AlgoProps {
	return AlgoProps{
		BufExtra:             128,
		CompressMTCapable:    true,
		DecompressMTCapable:  true,
		SingleChunkMTCapable: true,
		CMaxThreads:          4,
		DMaxThreads:          4,
		Delta2Span:           4,
		DeltaCMinDistance:    8192,
		ChecksumHint:         true,
	}
}

func (c *bzip2Codec) Deinit() {}
