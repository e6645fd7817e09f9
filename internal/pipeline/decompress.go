package pipeline

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/codec"
	"github.com/moinakg/pcompress-go/internal/digest"
	"github.com/moinakg/pcompress-go/internal/frame"
	"github.com/moinakg/pcompress-go/internal/ioutil"
	"github.com/moinakg/pcompress-go/internal/pcerr"
)

// decodeJob is one framed chunk read off the wire, still undecoded, handed
// to the worker pool for decrypt/decompress/un-dedup/un-preprocess.
type decodeJob struct {
	id      uint64
	hdr     frame.ChunkHeader
	payload []byte
}

// Decompress reverses Compress: it reads the file header to recover the
// algorithm, chunk size and crypto parameters, then reads framed chunks
// off r sequentially (framing is inherently ordered — there is only one
// reader) while farming the actual decrypt/decompress/un-dedup work for
// each chunk out to a worker pool, and serialises the results onto w in
// strict ascending order via orderedSink.
func Decompress(ctx context.Context, r io.Reader, w io.Writer, opts Options) (Stats, error) {
	var stats Stats

	cipherActive := opts.CipherID != cipher.None
	digestSize := 0
	if !cipherActive {
		digestSize = digest.Size(opts.Cksum)
	}

	var hmacFn func() cipher.HMAC
	macSize := 4 // CRC32
	if cipherActive {
		hf, err := cipher.NewHMAC(opts.Key, cipher.HMACSize(opts.Cksum))
		if err != nil {
			return stats, err
		}
		hmacFn = hf
		macSize = cipher.HMACSize(opts.Cksum)
	}

	hdr, err := frame.ReadHeader(r, hmacFn)
	if err != nil {
		return stats, err
	}

	if opts.ChunkSize == 0 {
		opts.ChunkSize = hdr.ChunkSize
	}
	algo, err := codec.ParseName(hdr.AlgoName)
	if err != nil {
		return stats, pcerr.NewFatal("pipeline.Decompress", fmt.Errorf("%w %q", pcerr.ErrUnknownAlgorithm, hdr.AlgoName))
	}
	opts.Algo = algo

	var baseCipher cipher.Cipher
	if cipherActive {
		rng := cipher.NewSecureRng()
		c, err := cipher.New(opts.CipherID, cipher.Decrypt, opts.Key, hdr.Nonce, rng)
		if err != nil {
			return stats, err
		}
		baseCipher = c
	}

	sink := newOrderedSink(func(id uint64, data []byte) error {
		stats.ChunksOut++
		stats.BytesOut += int64(len(data))
		return ioutil.WriteFull(w, data)
	})

	nWorkers := opts.ResolveWorkers(-1)
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan decodeJob, nWorkers*2)

	for i := 0; i < nWorkers; i++ {
		g.Go(func() error {
			worker, err := newChunkWorker(opts, codec.OpDecompress, baseCipher, hmacFn)
			if err != nil {
				return err
			}
			defer worker.comp.Deinit()

			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case job, ok := <-jobs:
					if !ok {
						return nil
					}
					decoded, err := worker.decodeChunk(job.id, job.hdr, job.payload)
					if err != nil {
						return fmt.Errorf("pipeline: chunk %d: %w", job.id, err)
					}
					if err := sink.Submit(job.id, decoded); err != nil {
						return err
					}
				}
			}
		})
	}

	g.Go(func() error {
		defer close(jobs)
		var id uint64
		for {
			chdr, payload, isEOS, isMeta, err := frame.ReadChunk(r, digestSize, macSize, opts.ChunkSize, hmacFn)
			if err != nil {
				return err
			}
			if isEOS {
				return nil
			}
			if isMeta {
				body, err := frame.ReadMetadataBody(r)
				if err != nil {
					return err
				}
				if opts.OnMetadata != nil {
					if err := opts.OnMetadata(body); err != nil {
						return err
					}
				}
				continue
			}
			stats.ChunksIn++
			stats.BytesIn += int64(len(payload))
			select {
			case jobs <- decodeJob{id: id, hdr: chdr, payload: payload}:
			case <-gctx.Done():
				return gctx.Err()
			}
			id++
		}
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	// Every worker sharing baseCipher has returned; safe to scrub its key
	// now (spec §4.7).
	if baseCipher != nil {
		baseCipher.WipeKey()
	}
	return stats, sink.Err()
}
