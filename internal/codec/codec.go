// Package codec implements the compressor abstraction of component 3:
// init(level, nthreads, chunksize, file_version, op), compress/decompress,
// props(level, chunksize) -> AlgoProps, deinit. Each algorithm is a
// Compressor implementation; the pipeline holds one instance per worker,
// matching the "Compressor trait with associated State" re-shaping called
// for in spec.md §9 (the source's void-pointer back-ends become a normal
// Go interface instead of an opaque data pointer).
package codec

import "fmt"

// ID identifies an algorithm; the CLI -c flag maps directly onto these.
type ID int

const (
	None ID = iota
	Zlib
	Lzma
	LzmaMt
	Bzip2
	Ppmd
	Lz4
	Adapt
	Adapt2
	Libbsc
)

func ParseName(s string) (ID, error) {
	switch s {
	case "none":
		return None, nil
	case "zlib":
		return Zlib, nil
	case "lzma":
		return Lzma, nil
	case "lzmaMt":
		return LzmaMt, nil
	case "bzip2":
		return Bzip2, nil
	case "ppmd":
		return Ppmd, nil
	case "lz4":
		return Lz4, nil
	case "adapt":
		return Adapt, nil
	case "adapt2":
		return Adapt2, nil
	case "libbsc":
		return Libbsc, nil
	}
	return 0, fmt.Errorf("codec: unknown algorithm %q", s)
}

func Name(id ID) string {
	switch id {
	case None:
		return "none"
	case Zlib:
		return "zlib"
	case Lzma:
		return "lzma"
	case LzmaMt:
		return "lzmaMt"
	case Bzip2:
		return "bzip2"
	case Ppmd:
		return "ppmd"
	case Lz4:
		return "lz4"
	case Adapt:
		return "adapt"
	case Adapt2:
		return "adapt2"
	case Libbsc:
		return "libbsc"
	}
	return "unknown"
}

// Op distinguishes which direction a Compressor was initialised for.
type Op int

const (
	OpCompress Op = iota
	OpDecompress
)

// AlgoProps is what a compressor advertises to the pipeline, per spec.md
// §3: scratch requirements, threading capability flags, and preprocessor
// tuning hints.
type AlgoProps struct {
	BufExtra            int
	CompressMTCapable    bool
	DecompressMTCapable  bool
	SingleChunkMTCapable bool
	CMaxThreads          int
	DMaxThreads          int
	Delta2Span           int
	DeltaCMinDistance    int
	ChecksumHint         bool
}

// Compressor is the uniform interface every algorithm backend implements.
// A positive return from Compress in an adaptive backend is the id of the
// inner algorithm actually used for this chunk (stored in ChunkFlags bits
// 3-6); zero is a plain "ok"; a sentinel error return means "could not
// compress this chunk, caller should fall back to raw".
type Compressor interface {
	// Compress writes a compressed representation of src into dst,
	// returning the number of bytes written and, for adaptive backends,
	// a non-zero sub-algorithm id. ErrIncompressible signals the backend
	// declined to compress (caller falls back to storing src raw).
	Compress(dst, src []byte, level int) (n int, subAlgo int, err error)
	Decompress(dst, src []byte, level int, subAlgo int) (n int, err error)
	Props(level int, chunksize int) AlgoProps
	Deinit()
}

// New constructs the Compressor for id. The backends in this build size
// their state from level alone (the LZMA dictionary window follows
// level); nthreads, chunksize and op do not change what is allocated.
func New(id ID, level, nthreads, chunksize int, op Op) (Compressor, error) {
	switch id {
	case None:
		return &noneCodec{}, nil
	case Zlib:
		return newZlibCodec(level)
	case Lzma, LzmaMt:
		return newLZMACodec(level, nthreads, id == LzmaMt)
	case Bzip2:
		return newBzip2Codec(level)
	case Lz4:
		return &lz4Codec{}, nil
	case Adapt:
		return newAdaptiveCodec(level, false)
	case Adapt2:
		return newAdaptiveCodec(level, true)
	case Ppmd:
		return &unavailableCodec{name: "ppmd"}, nil
	case Libbsc:
		return &unavailableCodec{name: "libbsc"}, nil
	}
	return nil, fmt.Errorf("codec: unknown algorithm id %d", id)
}
