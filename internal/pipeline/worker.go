package pipeline

import (
	"encoding/binary"
	"fmt"

	"github.com/moinakg/pcompress-go/internal/arena"
	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/codec"
	"github.com/moinakg/pcompress-go/internal/dedup"
	"github.com/moinakg/pcompress-go/internal/digest"
	"github.com/moinakg/pcompress-go/internal/frame"
	"github.com/moinakg/pcompress-go/internal/pcerr"
	"github.com/moinakg/pcompress-go/internal/preproc"
)

// chunkWorker holds the per-goroutine state that must not be shared
// across workers (spec §4.1 WorkerSlot: "a per-worker compressor state,
// a per-worker MAC state, a per-worker dedup state").
type chunkWorker struct {
	opts    Options
	comp    codec.Compressor
	dig     digest.Digest
	cph     cipher.Cipher
	hmacFn  func() cipher.HMAC
	preproc *preproc.Pipeline
	rng     *cipher.SecureRng
	arena   *arena.Arena
}

func newChunkWorker(opts Options, op codec.Op, cph cipher.Cipher, hmacFn func() cipher.HMAC) (*chunkWorker, error) {
	comp, err := codec.New(opts.Algo, opts.Level, 1, int(opts.ChunkSize), op)
	if err != nil {
		return nil, err
	}
	dig, err := digest.New(opts.Cksum)
	if err != nil {
		return nil, err
	}
	var pp *preproc.Pipeline
	if opts.Preproc.any() {
		pp = preproc.NewPipeline(opts.Preproc.Dispack, opts.Preproc.E8E9, opts.Preproc.DICT, opts.Preproc.LZP, opts.Preproc.Delta2, opts.Level)
	}
	// Sized to comfortably hold this worker's two largest per-chunk
	// scratch buffers (codec output plus cipher output) back to back
	// before Acquire ever needs to grow it.
	ar := arena.New(int(opts.ChunkSize)*2 + 8192)
	return &chunkWorker{opts: opts, comp: comp, dig: dig, cph: cph, hmacFn: hmacFn, preproc: pp, rng: cipher.NewSecureRng(), arena: ar}, nil
}

// encodeChunk runs the full forward pipeline (dedup -> preprocess ->
// compress -> encrypt/MAC -> frame) for one chunk, per spec §4.2 step
// list, and returns the framed bytes ready to write. Dedup runs on the
// original bytes, before any preprocessing filter has a chance to
// rewrite them (e.g. E8E9 rewriting relative branch targets to
// absolute ones), so that two identical raw blocks at different chunk
// offsets are still recognised as duplicates (spec §8 invariant #5,
// dedup safety).
func (w *chunkWorker) encodeChunk(id uint64, raw []byte) ([]byte, error) {
	w.dig.Reinit()
	w.dig.Update(raw)
	origDigest := w.dig.Final()

	var flags frame.ChunkFlags
	working := raw

	if w.opts.Dedup.Enabled {
		if encoded, ok := dedup.EncodeChunk(working, w.opts.Dedup); ok {
			working = encoded
			flags |= frame.ChunkDeduped
		}
	}

	if w.preproc != nil {
		out, applied := w.preproc.Run(working)
		if len(applied) > 0 {
			var ppFlags preproc.Kind
			for _, a := range applied {
				ppFlags |= a.Filter.Flag()
			}
			header := make([]byte, 9)
			header[0] = byte(ppFlags)
			binary.LittleEndian.PutUint64(header[1:], uint64(len(out)))
			working = append(header, out...)
			flags |= frame.ChunkPreprocessed
		}
	}

	subAlgo := 0
	compressed := w.arena.Acquire(len(working) + w.comp.Props(w.opts.Level, int(w.opts.ChunkSize)).BufExtra)
	n, sub, err := w.comp.Compress(compressed, working, w.opts.Level)
	switch {
	case err == nil && n < len(working):
		compressed = compressed[:n]
		subAlgo = sub
		flags |= frame.ChunkCompressed
	default:
		compressed = working
	}
	if flags&frame.ChunkCompressed != 0 {
		flags = frame.WithSubAlgo(flags, subAlgo)
	}

	var digestBytes []byte
	if w.cph == nil {
		digestBytes = origDigest
	}

	payload := compressed
	if w.cph != nil {
		ciphertext := w.arena.Acquire(len(compressed))
		w.cph.Transform(ciphertext, compressed, id)
		payload = ciphertext
	}

	variableSize := uint64(len(raw)) != w.opts.ChunkSize
	if variableSize {
		flags |= frame.ChunkVarSize
	}

	hdr := frame.ChunkHeader{
		Length:       uint64(len(payload)),
		Digest:       digestBytes,
		Flags:        flags,
		OriginalSize: uint64(len(raw)),
	}

	var buf []byte
	bw := &byteAppender{}
	if err := frame.WriteChunk(bw, hdr, payload, w.hmacFn); err != nil {
		return nil, err
	}
	buf = bw.buf
	// Safe to release now: WriteChunk has already copied compressed's/
	// ciphertext's bytes into bw.buf, which is an independent allocation.
	w.arena.Release()
	return buf, nil
}

// decodeChunk reverses encodeChunk given a parsed frame header and its
// payload; it returns the original chunk bytes. The steps run in the
// mirror order of encodeChunk's dedup -> preprocess -> compress: here
// it's decompress -> un-preprocess -> un-dedup.
func (w *chunkWorker) decodeChunk(id uint64, hdr frame.ChunkHeader, payload []byte) ([]byte, error) {
	plain := payload
	if w.cph != nil {
		out := w.arena.Acquire(len(payload))
		w.cph.Transform(out, payload, id)
		plain = out
	}

	working := plain
	if hdr.Flags&frame.ChunkCompressed != 0 {
		dst := w.arena.Acquire(int(w.opts.ChunkSize) + w.comp.Props(w.opts.Level, int(w.opts.ChunkSize)).BufExtra)
		n, err := w.comp.Decompress(dst, plain, w.opts.Level, hdr.Flags.SubAlgo())
		if err != nil {
			return nil, fmt.Errorf("pipeline: decompress: %w", err)
		}
		working = dst[:n]
	}

	if hdr.Flags&frame.ChunkPreprocessed != 0 {
		if len(working) < 9 {
			return nil, pcerr.ErrFrameCorrupt
		}
		ppFlags := preproc.Kind(working[0])
		postLen := binary.LittleEndian.Uint64(working[1:9])
		body := working[9:]
		if uint64(len(body)) != postLen {
			return nil, pcerr.ErrFrameCorrupt
		}
		out, err := preproc.Invert(ppFlags, body, w.opts.Level)
		if err != nil {
			return nil, err
		}
		working = out
	}

	if hdr.Flags&frame.ChunkDeduped != 0 {
		out, err := dedup.DecodeChunk(working)
		if err != nil {
			return nil, fmt.Errorf("pipeline: dedup decode: %w", err)
		}
		working = out
	}

	if w.cph == nil && len(hdr.Digest) > 0 {
		w.dig.Reinit()
		w.dig.Update(working)
		if string(w.dig.Final()) != string(hdr.Digest) {
			return nil, pcerr.ErrDigestMismatch
		}
	}

	// working may still alias this worker's arena (the decompress or
	// decrypt scratch buffer); copy it out before the arena is released
	// and reused by the next chunk this worker picks up, since the
	// ordered sink may hold this result waiting for its turn to be
	// written well after this call returns.
	out := append([]byte(nil), working...)
	w.arena.Release()
	return out, nil
}

// byteAppender is a trivial io.Writer over a growable slice, used so
// frame.WriteChunk's single Write call can be captured without an
// intermediate bytes.Buffer allocation per chunk.
type byteAppender struct{ buf []byte }

func (b *byteAppender) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}
