package dedup

import "sync"

// GlobalEntry records where a previously-seen block lives in the output
// stream, for the global-dedup index entry format in spec §3: "4 B
// length | flag, 8 B absolute file offset".
type GlobalEntry struct {
	Offset int64
	Length uint32
}

// GlobalMode selects between the two global-dedup sub-modes of spec
// §4.4: Simple checks every chunk's blocks against one flat hash table;
// Segmented additionally groups chunks into segments and checks
// inter-segment similarity via per-segment sketches before accepting a
// cross-segment duplicate, trading some recall for a bounded working set.
type GlobalMode int

const (
	GlobalSimple GlobalMode = iota
	GlobalSegmented
)

// segmentSketchCap bounds how many representative sketches are retained
// per segment; this is a working-set cap, not a correctness limit: a
// segment's duplicates are still detected via the flat exact index, the
// retained sketches are only used to decide whether a *new* segment is
// worth comparing against an old one at all.
const segmentSketchCap = 64

// GlobalIndex is a cross-chunk deduplication index. Lookup and Insert
// serialise on this type's own mutex; it imposes no ordering between
// callers. The chunk pipeline (internal/pipeline) does not use it: its
// workers run only the in-chunk dedup pass of EncodeChunk.
type GlobalIndex struct {
	mode GlobalMode

	mu    sync.Mutex
	exact map[uint64]GlobalEntry

	segmentOf func(offset int64) uint64
	segments  map[uint64][]uint64 // segment id -> representative sketches seen so far
}

// NewGlobalIndex builds a global-dedup index. segmentSize is only
// consulted in GlobalSegmented mode, to map an absolute offset to its
// owning segment.
func NewGlobalIndex(mode GlobalMode, segmentSize int64) *GlobalIndex {
	g := &GlobalIndex{
		mode:  mode,
		exact: make(map[uint64]GlobalEntry),
	}
	if mode == GlobalSegmented {
		if segmentSize <= 0 {
			segmentSize = 64 << 20
		}
		g.segments = make(map[uint64][]uint64)
		g.segmentOf = func(offset int64) uint64 { return uint64(offset / segmentSize) }
	}
	return g
}

// Lookup checks whether block has already been recorded. In Segmented
// mode, a lookup first confirms the candidate segment's sketch set has
// at least one collision with block's own sketch before trusting the
// flat hash result, matching the spec's "inter-segment similarity is
// checked against those sketches before emitting a cross-segment
// duplicate".
func (g *GlobalIndex) Lookup(block []byte, atOffset int64) (GlobalEntry, bool) {
	hash := exactHash(block)

	g.mu.Lock()
	defer g.mu.Unlock()

	entry, found := g.exact[hash]
	if !found {
		return GlobalEntry{}, false
	}

	if g.mode == GlobalSegmented {
		seg := g.segmentOf(atOffset)
		refSeg := g.segmentOf(entry.Offset)
		if seg != refSeg && !g.segmentHasSketch(refSeg, similaritySketch(block, SimilarityMedium)) {
			return GlobalEntry{}, false
		}
	}
	return entry, true
}

// Insert records block as newly seen at atOffset, for future Lookup
// calls to reference.
func (g *GlobalIndex) Insert(block []byte, atOffset int64) {
	hash := exactHash(block)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.exact[hash] = GlobalEntry{Offset: atOffset, Length: uint32(len(block))}
	if g.mode == GlobalSegmented {
		seg := g.segmentOf(atOffset)
		sketch := similaritySketch(block, SimilarityMedium)
		list := g.segments[seg]
		if len(list) < segmentSketchCap {
			g.segments[seg] = append(list, sketch)
		}
	}
}

func (g *GlobalIndex) segmentHasSketch(seg uint64, sketch uint64) bool {
	for _, s := range g.segments[seg] {
		if s == sketch {
			return true
		}
	}
	return false
}
