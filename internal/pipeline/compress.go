package pipeline

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/codec"
	"github.com/moinakg/pcompress-go/internal/frame"
	"github.com/moinakg/pcompress-go/internal/ioutil"
)

// chunkJob is one unit of reader-produced work handed to the worker
// pool.
type chunkJob struct {
	id   uint64
	data []byte
}

// Compress drives a full compression run: the reader slices r into
// chunks, a pool of workers runs each chunk through encodeChunk
// concurrently, and the results are serialised onto w in strict
// ascending chunk-id order via orderedSink (spec §4.1's ordering rule).
func Compress(ctx context.Context, r io.Reader, w io.Writer, opts Options) (Stats, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}

	var stats Stats
	var baseCipher cipher.Cipher
	var hmacFn func() cipher.HMAC
	var nonce []byte

	if opts.CipherID != cipher.None {
		rng := cipher.NewSecureRng()
		c, err := cipher.New(opts.CipherID, cipher.Encrypt, opts.Key, nil, rng)
		if err != nil {
			return stats, err
		}
		baseCipher = c
		nonce = c.Nonce()
		hf, err := cipher.NewHMAC(opts.Key, cipher.HMACSize(opts.Cksum))
		if err != nil {
			return stats, err
		}
		hmacFn = hf
	}

	hdr := frame.Header{
		AlgoName:  codec.Name(opts.Algo),
		Version:   frame.CurrentVersion,
		Flags:     frame.MakeFlags(opts.Dedup.Enabled, opts.Dedup.FixedBlock, false, opts.Archive, opts.MetaBody != nil, opts.Cksum, opts.CipherID),
		ChunkSize: opts.ChunkSize,
		Level:     uint32(opts.Level),
		Salt:      opts.Salt,
		Nonce:     nonce,
		KeyLength: uint32(len(opts.Key)),
	}
	if err := hdr.WriteTo(w, hmacFn); err != nil {
		return stats, err
	}
	if opts.MetaBody != nil {
		if err := frame.WriteMetadataChunk(w, opts.MetaBody); err != nil {
			return stats, err
		}
	}

	sink := newOrderedSink(func(id uint64, data []byte) error {
		stats.ChunksOut++
		stats.BytesOut += int64(len(data))
		return ioutil.WriteFull(w, data)
	})

	nWorkers := opts.ResolveWorkers(-1)
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan chunkJob, nWorkers*2)

	for i := 0; i < nWorkers; i++ {
		g.Go(func() error {
			worker, err := newChunkWorker(opts, codec.OpCompress, baseCipher, hmacFn)
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
					encoded, err := worker.encodeChunk(job.id, job.data)
					if err != nil {
						return err
					}
					if err := sink.Submit(job.id, encoded); err != nil {
						return err
					}
				}
			}
		})
	}

	g.Go(func() error {
		defer close(jobs)
		buf := make([]byte, opts.ChunkSize)
		var id uint64
		for {
			n, err := ioutil.ReadFull(r, buf)
			if n > 0 {
				stats.ChunksIn++
				stats.BytesIn += int64(n)
				chunkData := make([]byte, n)
				copy(chunkData, buf[:n])
				select {
				case jobs <- chunkJob{id: id, data: chunkData}:
				case <-gctx.Done():
					return gctx.Err()
				}
				id++
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	// The run is done with baseCipher; every worker that shared it has
	// returned from g.Wait, so it's safe to scrub the key now (spec §4.7:
	// "once encryption begins the key buffer is scrubbed").
	if baseCipher != nil {
		baseCipher.WipeKey()
	}
	if err := sink.Err(); err != nil {
		return stats, err
	}
	return stats, frame.WriteEndOfStream(w)
}
