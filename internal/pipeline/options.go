// Package pipeline implements component 4.1, the chunk pipeline /
// scheduler: it drives a compress or decompress run across a pool of
// worker goroutines while preserving strict input-order emission on the
// output side, generalising the teacher's indexed worker-pool pattern
// (github.com/falk/nsz-go's pkg/fs.compressBlocks) to a streaming,
// many-stage-per-chunk pipeline built with golang.org/x/sync/errgroup.
package pipeline

import (
	"runtime"

	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/codec"
	"github.com/moinakg/pcompress-go/internal/dedup"
	"github.com/moinakg/pcompress-go/internal/digest"
)

const (
	DefaultChunkSize = 8 << 20
	MinChunkSize     = 1 << 20
)

// PreprocConfig mirrors the CLI's -x/-L/-P filter toggles (spec §6).
type PreprocConfig struct {
	Dispack bool
	E8E9    bool
	DICT    bool
	LZP     bool
	Delta2  bool
}

func (c PreprocConfig) any() bool {
	return c.Dispack || c.E8E9 || c.DICT || c.LZP || c.Delta2
}

// Options configures one pipeline run; it corresponds to the
// initialisation parameters in spec §4.1.
type Options struct {
	ChunkSize uint64
	Level     int
	NWorkers  int
	Algo      codec.ID
	Cksum     digest.ID
	CipherID  cipher.ID
	Key       []byte
	// Salt, when non-nil, is recorded verbatim in the file header's salt
	// field (spec §6) so a password-based decrypt can rederive Key from
	// the same passphrase without the caller threading the salt through
	// any other channel. Callers that already hold a raw, non-derived
	// key (as opposed to a passphrase) can leave this nil.
	Salt []byte
	Preproc   PreprocConfig
	Dedup     dedup.Config
	Global    *dedup.GlobalIndex

	// Archive marks the file header's FLAG_ARCHIVE bit (spec §6); set by
	// internal/archive when the input is a multi-file container rather
	// than a single stream.
	Archive bool
	// MetaBody, when non-nil, is written as one metadata-stream chunk
	// (spec §4.8) immediately after the file header, framed with the
	// METADATA_INDICATOR sentinel length. internal/archive supplies the
	// already-serialised, already-compressed file-list body here.
	MetaBody []byte
	// OnMetadata, when non-nil, receives the raw body of each
	// metadata-stream chunk encountered during Decompress, in encounter
	// order. internal/archive uses this to recover the file list before
	// the concatenated chunk stream is split back into per-file output.
	OnMetadata func(body []byte) error
}

// ResolveWorkers implements the N = min(logical_cores, ceil(input_size /
// chunksize)) auto-selection rule from spec §4.1 when NWorkers is unset.
// A negative inputSize means the size is not known up front (a streaming
// reader with no seekable length); in that case the ceil(...) term is
// skipped and every logical core is used.
func (o Options) ResolveWorkers(inputSize int64) int {
	if o.NWorkers > 0 {
		return o.NWorkers
	}
	cores := runtime.NumCPU()
	if o.ChunkSize == 0 || inputSize < 0 {
		return cores
	}
	need := int((inputSize + int64(o.ChunkSize) - 1) / int64(o.ChunkSize))
	if need < 1 {
		need = 1
	}
	if need < cores {
		return need
	}
	return cores
}

// Stats accumulates the summary counters the CLI's -v/-C modes print
// (spec §9 / the statlog component).
type Stats struct {
	ChunksIn         int64
	ChunksOut        int64
	BytesIn          int64
	BytesOut         int64
	DedupedChunks    int64
	PreprocessedChunks int64
}
