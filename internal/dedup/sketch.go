package dedup

import (
	"container/heap"
	"encoding/binary"
	"hash/fnv"
	"sort"
)

// SimilarityPercent selects how much of a block's min-hash sketch is
// kept before hashing down to a single similarity fingerprint — larger
// keeps more of the block's structure (stronger detection, slower), per
// spec §4.4's "k = 50%/62%/87% of block length depending on similarity
// mode" (the CLI's -E / -E -E intensity levels).
type SimilarityPercent int

const (
	SimilarityLow    SimilarityPercent = 50
	SimilarityMedium SimilarityPercent = 62
	SimilarityHigh   SimilarityPercent = 87
)

// uint64Heap is a max-heap of uint64 (the largest value at the root), used
// to select the k smallest 8-byte windows of a block for its min-hash
// sketch.
type uint64Heap []uint64

func (h uint64Heap) Len() int            { return len(h) }
func (h uint64Heap) Less(i, j int) bool  { return h[i] > h[j] } // max-heap at root so we can evict the largest
func (h uint64Heap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *uint64Heap) Push(x interface{}) { *h = append(*h, x.(uint64)) }
func (h *uint64Heap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// exactHash produces a strong block-identity hash for exact-duplicate
// detection, independent of the similarity sketch.
func exactHash(block []byte) uint64 {
	h := fnv.New64a()
	h.Write(block)
	return h.Sum64()
}

// similaritySketch computes the min-hash style sketch used to detect
// SIMILAR_PARTIAL blocks: the block is viewed as a sequence of
// non-overlapping 8-byte little-endian integers, the k smallest (by
// value) of which are kept via a bounded max-heap, and that retained
// set is hashed to a single 64-bit fingerprint. Two blocks with matching
// sketches are candidates for delta encoding.
func similaritySketch(block []byte, pct SimilarityPercent) uint64 {
	nWords := len(block) / 8
	if nWords == 0 {
		return exactHash(block)
	}
	k := (nWords * int(pct)) / 100
	if k < 1 {
		k = 1
	}

	h := &uint64Heap{}
	heap.Init(h)
	for i := 0; i < nWords; i++ {
		v := binary.LittleEndian.Uint64(block[i*8 : i*8+8])
		if h.Len() < k {
			heap.Push(h, v)
			continue
		}
		if v < (*h)[0] {
			heap.Pop(h)
			heap.Push(h, v)
		}
	}

	kept := make([]uint64, h.Len())
	copy(kept, *h)
	sort.Slice(kept, func(a, b int) bool { return kept[a] < kept[b] })

	fn := fnv.New64a()
	var tmp [8]byte
	for _, v := range kept {
		binary.LittleEndian.PutUint64(tmp[:], v)
		fn.Write(tmp[:])
	}
	return fn.Sum64()
}
