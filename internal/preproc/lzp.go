package preproc

import "encoding/binary"

// lzp implements the LZP filter (spec.md §4.5): a literal-predictor
// pre-pass. A hash table maps a context hash (of the preceding
// lzpContextLen bytes) to the offset where that context was last seen; if
// the bytes following the predicted offset match the bytes at the
// current position, a run-length token replaces the matched bytes
// instead of literal bytes. hashsize scales 16..21 bits with level,
// larger (more memory, fewer collisions) at *lower* compression levels so
// LZP can compensate for a weaker downstream backend (spec.md §4.5).
type lzp struct {
	hashBits int
}

const (
	lzpContextLen = 4
	lzpMinMatch   = 8
	lzpEscape     = 0xFE
	lzpLiteralEsc = 0xFD
)

func NewLZP(level int) Filter {
	return &lzp{hashBits: hashBitsForLevel(level)}
}

// hashBitsForLevel implements the spec's counterintuitive scaling:
// larger hash table for lower global compression levels.
func hashBitsForLevel(level int) int {
	switch {
	case level <= 2:
		return 21
	case level <= 5:
		return 19
	case level <= 9:
		return 17
	default:
		return 16
	}
}

func (l *lzp) Name() string { return "lzp" }
func (l *lzp) Flag() Kind   { return FlagLZP }

func lzpHash(ctx uint32, bits int) uint32 {
	h := ctx * 2654435761
	return h >> (32 - uint32(bits))
}

func ctx4(b []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(b[i-4 : i])
}

func (l *lzp) Forward(in []byte) ([]byte, bool) {
	if len(in) < lzpContextLen+lzpMinMatch {
		return nil, false
	}
	tableSize := 1 << l.hashBits
	table := make([]int32, tableSize)
	for i := range table {
		table[i] = -1
	}

	out := make([]byte, 0, len(in))
	i := lzpContextLen
	out = append(out, in[:lzpContextLen]...)

	for i < len(in) {
		h := lzpHash(ctx4(in, i), l.hashBits)
		predicted := table[h]
		table[h] = int32(i)

		matched := 0
		if predicted >= 0 {
			p := int(predicted)
			max := len(in) - i
			if m := len(in) - p; m < max {
				max = m
			}
			if max > 65535 {
				max = 65535
			}
			for matched < max && in[p+matched] == in[i+matched] {
				matched++
			}
		}

		if matched >= lzpMinMatch {
			out = append(out, lzpEscape, byte(matched), byte(matched>>8))
			i += matched
			continue
		}

		b := in[i]
		if b == lzpEscape || b == lzpLiteralEsc {
			out = append(out, lzpLiteralEsc, b)
		} else {
			out = append(out, b)
		}
		i++
	}

	if len(out) >= len(in) {
		return nil, false
	}
	return out, true
}

func (l *lzp) Inverse(in []byte) ([]byte, error) {
	tableSize := 1 << l.hashBits
	table := make([]int32, tableSize)
	for i := range table {
		table[i] = -1
	}

	out := make([]byte, 0, len(in)*2)
	if len(in) < lzpContextLen {
		return append(out, in...), nil
	}
	out = append(out, in[:lzpContextLen]...)

	i := lzpContextLen
	for i < len(in) {
		outPos := len(out)
		h := lzpHash(ctx4(out, outPos), l.hashBits)
		predicted := table[h]
		table[h] = int32(outPos)

		b := in[i]
		switch b {
		case lzpEscape:
			matched := int(in[i+1]) | int(in[i+2])<<8
			i += 3
			p := int(predicted)
			for k := 0; k < matched; k++ {
				out = append(out, out[p+k])
			}
		case lzpLiteralEsc:
			out = append(out, in[i+1])
			i += 2
		default:
			out = append(out, b)
			i++
		}
	}
	return out, nil
}
