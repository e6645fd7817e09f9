package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/cliutil"
	"github.com/moinakg/pcompress-go/internal/codec"
	"github.com/moinakg/pcompress-go/internal/dedup"
	"github.com/moinakg/pcompress-go/internal/digest"
	"github.com/moinakg/pcompress-go/internal/pipeline"
)

// coreFlags holds the -l/-s/-t/-c/-S/-e/-k/-w/-D/-G/-F/-E/-B/-L/-P/-x
// knobs common to compress, decompress and archive-create, per spec §6.
// -j (lossless media filters) is accepted but rejected at run time since
// those filters are out of scope (spec.md §1).
type coreFlags struct {
	level      int
	sizeStr    string
	nthreads   int
	algoStr    string
	cksumStr   string
	cipherStr  string
	keylen     int
	passfile   string
	rabinDedup bool
	globalDedup bool
	fixedDedup bool
	deltaCount int
	avgBlock   int
	lzp        bool
	delta2     bool
	exePreproc bool
	mediaFilters bool
	noMetaStream bool
	pipeMode   bool
	verbose    bool
	showChunks bool
	showMem    bool
}

func addCoreFlags(cmd *cobra.Command, f *coreFlags) {
	cmd.Flags().IntVarP(&f.level, "level", "l", 6, "compression level (0-14)")
	cmd.Flags().StringVarP(&f.sizeStr, "chunksize", "s", "", "chunk size, accepts K/M/G suffix")
	cmd.Flags().IntVarP(&f.nthreads, "threads", "t", 0, "worker thread count (0 = auto)")
	cmd.Flags().StringVarP(&f.algoStr, "algo", "c", "zlib", "compression algorithm: zlib|lzma|lzmaMt|bzip2|ppmd|lz4|none|adapt|adapt2|libbsc")
	cmd.Flags().StringVarP(&f.cksumStr, "cksum", "S", "SHA256", "checksum algorithm")
	cmd.Flags().StringVarP(&f.cipherStr, "encrypt", "e", "", "encryption algorithm: AES|SALSA20")
	cmd.Flags().IntVarP(&f.keylen, "keylen", "k", 32, "key length in bytes: 16 or 32")
	cmd.Flags().StringVarP(&f.passfile, "passfile", "w", "", "path to a file holding the encryption passphrase")
	cmd.Flags().BoolVarP(&f.rabinDedup, "dedup", "D", false, "enable content-defined (rabin) deduplication")
	cmd.Flags().BoolVarP(&f.globalDedup, "global-dedup", "G", false, "enable deduplication; runs the same in-chunk deduplication as -D (no cross-chunk index)")
	cmd.Flags().BoolVarP(&f.fixedDedup, "fixed-dedup", "F", false, "use fixed-size blocks instead of content-defined chunking for dedup")
	cmd.Flags().CountVarP(&f.deltaCount, "delta", "E", "enable delta (similarity) encoding; repeat for higher-precision sketches")
	cmd.Flags().IntVarP(&f.avgBlock, "avg-block", "B", 2, "average dedup block size index, 0 (2K) .. 5 (64K)")
	cmd.Flags().BoolVarP(&f.lzp, "lzp", "L", false, "enable LZP literal-predictor preprocessing")
	cmd.Flags().BoolVarP(&f.delta2, "delta2", "P", false, "enable Delta2 arithmetic-progression RLE preprocessing")
	cmd.Flags().BoolVarP(&f.exePreproc, "exe-filter", "x", false, "enable Dispack/E8E9 executable preprocessing")
	cmd.Flags().BoolVarP(&f.mediaFilters, "media-filters", "j", false, "lossless media filters (PackJPG/WavPack) — not supported by this build")
	cmd.Flags().BoolVarP(&f.noMetaStream, "no-meta-stream", "T", false, "disable the archive metadata stream")
	cmd.Flags().BoolVarP(&f.pipeMode, "pipe", "p", false, "streaming/pipe mode: read stdin, write stdout")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "verbose per-field statistics")
	cmd.Flags().BoolVarP(&f.showChunks, "show-chunks", "C", false, "print a run summary (sizes, ratio, throughput)")
	cmd.Flags().BoolVarP(&f.showMem, "mem-stats", "M", false, "accepted; no memory statistics are printed")
}

// buildOptions resolves f into a pipeline.Options, validating the
// cross-field constraints spec §6/§7 call out (key length, cipher
// needing a key, fixed-dedup implying rabin dedup is off, etc).
func (f *coreFlags) buildOptions() (pipeline.Options, error) {
	var opts pipeline.Options

	if f.mediaFilters {
		return opts, fmt.Errorf("pcompress: lossless media filters (-j) are not supported in this build")
	}

	algo, err := codec.ParseName(f.algoStr)
	if err != nil {
		return opts, err
	}
	opts.Algo = algo

	cksum, err := digest.ParseName(f.cksumStr)
	if err != nil {
		return opts, err
	}
	opts.Cksum = cksum

	if f.sizeStr != "" {
		size, err := cliutil.ParseSize(f.sizeStr)
		if err != nil {
			return opts, err
		}
		opts.ChunkSize = size
	}

	opts.Level = f.level
	opts.NWorkers = f.nthreads

	if f.cipherStr != "" {
		switch f.cipherStr {
		case "AES":
			opts.CipherID = cipher.AES
		case "SALSA20":
			opts.CipherID = cipher.SALSA20
		default:
			return opts, fmt.Errorf("pcompress: unknown encryption algorithm %q", f.cipherStr)
		}
		if f.keylen != 16 && f.keylen != 32 {
			return opts, fmt.Errorf("pcompress: key length must be 16 or 32, got %d", f.keylen)
		}
		key, salt, err := readPassphraseKey(f.passfile, f.keylen, nil)
		if err != nil {
			return opts, err
		}
		opts.Key = key
		opts.Salt = salt
	}

	opts.Dedup = dedup.Config{
		Enabled:        f.rabinDedup || f.globalDedup || f.fixedDedup,
		FixedBlock:     f.fixedDedup,
		DeltaEncoding:  f.deltaCount > 0,
		DeltaIntensity: f.deltaCount,
		AvgBlockIndex:  f.avgBlock,
	}
	if f.avgBlock < 0 || f.avgBlock > 5 {
		return opts, fmt.Errorf("pcompress: average dedup block size index must be 0..5, got %d", f.avgBlock)
	}
	// -G (global/cross-chunk dedup) is accepted but currently runs the
	// same in-chunk dedup as -D: see DESIGN.md for why dedup.GlobalIndex
	// is not yet threaded into the worker pool.

	opts.Preproc.LZP = f.lzp
	opts.Preproc.Delta2 = f.delta2
	opts.Preproc.Dispack = f.exePreproc
	opts.Preproc.E8E9 = f.exePreproc

	return opts, nil
}

// readPassphraseKey reads a passphrase from passfile (or, if empty,
// prompts nothing and errors — this build requires -w, matching the
// source's pwd_file-driven flow rather than an interactive prompt) and
// derives a key of keylen bytes via cipher.DeriveKey. On compress, salt
// is nil and a fresh one is generated; on decompress the caller supplies
// the salt recovered from the file header via frame.PeekSalt, so the
// same passphrase rederives the same key.
func readPassphraseKey(passfile string, keylen int, salt []byte) (key, usedSalt []byte, err error) {
	if passfile == "" {
		return nil, nil, fmt.Errorf("pcompress: -e requires a passphrase file via -w")
	}
	passphrase, err := os.ReadFile(passfile)
	if err != nil {
		return nil, nil, fmt.Errorf("pcompress: reading passphrase file: %w", err)
	}
	if salt == nil {
		rng := cipher.NewSecureRng()
		salt = rng.Bytes(16)
	}
	return cipher.DeriveKey(passphrase, salt, keylen), salt, nil
}
