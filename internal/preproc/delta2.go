package preproc

import "encoding/binary"

// delta2 implements the Delta2 filter (spec.md §4.5): locate arithmetic
// progressions with strides 2..8 (stride 1 — "every byte increases by a
// constant" — is also tried, matching the worked example in spec.md §8
// scenario 6) and replace each run with either a literal-run header
// [0 | len64] + raw bytes, or a delta-run header
// [stride | len64 | start_val64 | delta_val64]. Runs are found inside
// 4 KiB internal sub-blocks for cache locality.
type delta2 struct{}

func NewDelta2() Filter { return &delta2{} }

func (d *delta2) Name() string { return "delta2" }
func (d *delta2) Flag() Kind   { return FlagDelta2 }

const (
	delta2SubBlock = 4096
	delta2MinRun   = 16
)

var delta2Strides = []int{1, 2, 3, 4, 5, 6, 7, 8}

func (d *delta2) Forward(in []byte) ([]byte, bool) {
	out := make([]byte, 0, len(in))
	for start := 0; start < len(in); start += delta2SubBlock {
		end := start + delta2SubBlock
		if end > len(in) {
			end = len(in)
		}
		encodeSubBlock(in[start:end], &out)
	}
	if len(out) >= len(in) {
		return nil, false
	}
	return out, true
}

// encodeSubBlock greedily finds the best arithmetic run starting at each
// position among the tried strides, falling back to literal runs for
// everything else.
func encodeSubBlock(buf []byte, out *[]byte) {
	i := 0
	var literalStart = -1

	flushLiteral := func(end int) {
		if literalStart < 0 {
			return
		}
		n := end - literalStart
		*out = append(*out, 0)
		*out = appendU64(*out, uint64(n))
		*out = append(*out, buf[literalStart:end]...)
		literalStart = -1
	}

	for i < len(buf) {
		stride, runLen, deltaVal, startVal := bestRun(buf, i)
		if runLen >= delta2MinRun {
			flushLiteral(i)
			*out = append(*out, byte(stride))
			*out = appendU64(*out, uint64(runLen))
			*out = appendU64(*out, startVal)
			*out = appendU64(*out, deltaVal)
			i += runLen
			continue
		}
		if literalStart < 0 {
			literalStart = i
		}
		i++
	}
	flushLiteral(len(buf))
}

// bestRun finds the longest arithmetic progression starting at i across
// the tried strides, returning the stride, run length (in bytes), and the
// delta/start values needed to reconstruct it. A stride-s run is the shape
// Inverse rebuilds: s copies of the start value, then s copies of
// start+delta, and so on.
func bestRun(buf []byte, i int) (stride, runLen int, deltaVal, startVal uint64) {
	bestLen := 0
	var bestStride int
	var bestDelta uint64
	for _, s := range delta2Strides {
		if i+s >= len(buf) {
			continue
		}
		delta := buf[i+s] - buf[i]
		n := 0
		for i+n < len(buf) && buf[i+n] == buf[i]+byte(n/s)*delta {
			n++
		}
		if n > bestLen {
			bestLen = n
			bestStride = s
			bestDelta = uint64(delta)
		}
	}
	if bestLen < delta2MinRun {
		return 0, 0, 0, 0
	}
	return bestStride, bestLen, bestDelta, uint64(buf[i])
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func readU64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func (d *delta2) Inverse(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in)*2)
	i := 0
	for i < len(in) {
		stride := int(in[i])
		i++
		n := int(readU64(in[i : i+8]))
		i += 8
		if stride == 0 {
			out = append(out, in[i:i+n]...)
			i += n
			continue
		}
		startVal := byte(readU64(in[i : i+8]))
		i += 8
		deltaVal := int8(byte(readU64(in[i : i+8])))
		i += 8

		v := startVal
		for k := 0; k < n; k++ {
			out = append(out, v)
			if (k+1)%stride == 0 {
				v = byte(int8(v) + deltaVal)
			}
		}
	}
	return out, nil
}
