package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// lzmaCodec implements -c lzma and -c lzmaMt via github.com/ulikunitz/xz's
// lzma subpackage (the pack's pure-Go LZMA implementation, retrieved as
// ulikunitz-xz and liumingmin-xz). Multithreading for LzmaMt is handled
// one layer up by the pipeline's worker count, not inside this backend —
// ulikunitz/xz's encoder is single-threaded per instance, matching
// CompressMTCapable=false below; the spec's "Mt" suffix only changes how
// many chunks the scheduler runs concurrently, never this backend's
// internal behaviour.
type lzmaCodec struct {
	dictCap int
}

func newLZMACodec(level, nthreads int, multithreaded bool) (*lzmaCodec, error) {
	return &lzmaCodec{dictCap: dictCapForLevel(level)}, nil
}

// dictCapForLevel scales the LZMA dictionary size with the compression
// level, mirroring the standard LZMA level/dictionary-size tables (low
// levels use a small window for speed, high levels use a large window for
// ratio).
func dictCapForLevel(level int) int {
	switch {
	case level <= 2:
		return 1 << 20 // 1 MiB
	case level <= 5:
		return 4 << 20
	case level <= 8:
		return 16 << 20
	default:
		return 64 << 20
	}
}

func (c *lzmaCodec) Compress(dst, src []byte, level int) (int, int, error) {
	var buf bytes.Buffer
	cfg := lzma.WriterConfig{DictCap: dictCapForLevel(level)}
	w, err := cfg.NewWriter(&buf)
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
		return 0, 0, fmt.Errorf("codec/lzma: destination buffer too small (%d < %d)", len(dst), buf.Len())
	}
	n := copy(dst, buf.Bytes())
	return n, 0, nil
}

func (c *lzmaCodec) Decompress(dst, src []byte, level int, subAlgo int) (int, error) {
	r, err := lzma.NewReader(bytes.NewReader(src))
	if err != nil {
		return 0, err
	}
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return n, err
	}
	return n, nil
}

func (c *lzmaCodec) Props(level, chunksize int) AlgoProps {
	return AlgoProps{
		BufExtra:             256,
		CompressMTCapable:    false,
		DecompressMTCapable:  false,
		SingleChunkMTCapable: false,
		CMaxThreads:          1,
		DMaxThreads:          1,
		Delta2Span:           4,
		DeltaCMinDistance:    16384,
		ChecksumHint:         true,
	}
}

func (c *lzmaCodec) Deinit() {}
