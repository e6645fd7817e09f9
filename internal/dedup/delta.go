package dedup

import "encoding/binary"

// DeltaEncode produces a bsdiff-style patch between two equal-length
// blocks that similaritySketch has already identified as candidates: the
// byte-wise difference new[i]-old[i] is almost always zero for truly
// similar blocks, so the patch is simply that difference stream,
// zero-run-length-encoded (spec §4.4: "similar blocks delta-encoded by
// bsdiff + zero-RLE"). Unlike full bsdiff this assumes old and new are
// already aligned and the same length — true here because SIMILAR_PARTIAL
// detection only fires on matching lengths.
func DeltaEncode(old, updated []byte) []byte {
	n := len(updated)
	out := make([]byte, 0, n/4+8)
	out = appendVarint(out, uint64(n))

	i := 0
	for i < n {
		start := i
		for i < n && diffByte(old, updated, i) == 0 {
			i++
		}
		zeroRun := i - start
		out = appendVarint(out, uint64(zeroRun))

		start = i
		for i < n && diffByte(old, updated, i) != 0 {
			i++
		}
		litRun := i - start
		out = appendVarint(out, uint64(litRun))
		for j := start; j < i; j++ {
			out = append(out, diffByte(old, updated, j))
		}
	}
	return out
}

func diffByte(old, updated []byte, i int) byte {
	var o byte
	if i < len(old) {
		o = old[i]
	}
	return updated[i] - o
}

// DeltaDecode reconstructs new from old and a DeltaEncode patch.
func DeltaDecode(old, patch []byte) ([]byte, error) {
	n, consumed, err := readVarint(patch)
	if err != nil {
		return nil, err
	}
	patch = patch[consumed:]

	out := make([]byte, 0, n)
	for uint64(len(out)) < n {
		zeroRun, c, err := readVarint(patch)
		if err != nil {
			return nil, err
		}
		patch = patch[c:]
		for k := uint64(0); k < zeroRun; k++ {
			idx := len(out)
			var o byte
			if idx < len(old) {
				o = old[idx]
			}
			out = append(out, o)
		}

		litRun, c, err := readVarint(patch)
		if err != nil {
			return nil, err
		}
		patch = patch[c:]
		for k := uint64(0); k < litRun; k++ {
			idx := len(out)
			var o byte
			if idx < len(old) {
				o = old[idx]
			}
			out = append(out, o+patch[0])
			patch = patch[1:]
		}
	}
	return out, nil
}

func appendVarint(b []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(b, tmp[:n]...)
}

func readVarint(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, 0, errShortPatch
	}
	return v, n, nil
}

var errShortPatch = shortPatchError{}

type shortPatchError struct{}

func (shortPatchError) Error() string { return "dedup: truncated delta patch" }
