package preproc

import (
	"bytes"
	"math/rand"
	"testing"
)

// filterInverseRoundTrip checks the universal preprocessor invariant:
// for any filter that actually commits on the given input, Inverse(Forward(x)) == x.
func filterInverseRoundTrip(t *testing.T, f Filter, in []byte) {
	t.Helper()
	out, ok := f.Forward(in)
	if !ok {
		t.Skipf("%s: declined to transform this input", f.Name())
	}
	back, err := f.Inverse(out)
	if err != nil {
		t.Fatalf("%s: Inverse error: %v", f.Name(), err)
	}
	if !bytes.Equal(back, in) {
		t.Fatalf("%s: round trip mismatch: got %d bytes, want %d bytes", f.Name(), len(back), len(in))
	}
}

func x86CallJumpCorpus() []byte {
	buf := make([]byte, 0, 4096)
	for i := 0; i < 40; i++ {
		buf = append(buf, 0xE8, byte(i), byte(i*3), 0x00, 0x00)
		buf = append(buf, 0x90, 0x90, 0x55, 0x8B, 0xEC)
	}
	return buf
}

func englishTextCorpus() []byte {
	const sample = "the quick brown fox jumps over the lazy dog and the dog is " +
		"not amused with this situation because the fox is there and " +
		"there is nothing the dog can do about the fox in this instant"
	var buf bytes.Buffer
	for i := 0; i < 20; i++ {
		buf.WriteString(sample)
	}
	return buf.Bytes()
}

func repetitiveBinaryCorpus() []byte {
	r := rand.New(rand.NewSource(42))
	base := make([]byte, 64)
	r.Read(base)
	var buf bytes.Buffer
	for i := 0; i < 200; i++ {
		buf.Write(base)
	}
	return buf.Bytes()
}

func arithmeticProgressionCorpus() []byte {
	buf := make([]byte, 0, 4096)
	for block := 0; block < 8; block++ {
		v := byte(block * 7)
		for i := 0; i < 64; i++ {
			buf = append(buf, v)
			v += 3
		}
	}
	return buf
}

func pointerLikeWordCorpus() []byte {
	buf := make([]byte, 0, 4096)
	for i := 0; i < 64; i++ {
		buf = append(buf, byte(i), byte(i*2), byte(i*5), 0x00)
	}
	buf = append(buf, []byte("trailing literal tail that is not word-aligned data")...)
	return buf
}

func TestE8E9InverseRoundTrip(t *testing.T) {
	filterInverseRoundTrip(t, NewE8E9(), x86CallJumpCorpus())
}

func TestDICTInverseRoundTrip(t *testing.T) {
	filterInverseRoundTrip(t, NewDICT(), englishTextCorpus())
}

func TestLZPInverseRoundTrip(t *testing.T) {
	filterInverseRoundTrip(t, NewLZP(5), repetitiveBinaryCorpus())
}

func TestDelta2InverseRoundTrip(t *testing.T) {
	filterInverseRoundTrip(t, NewDelta2(), arithmeticProgressionCorpus())
}

func TestDispackInverseRoundTrip(t *testing.T) {
	filterInverseRoundTrip(t, NewDispack(), pointerLikeWordCorpus())
}

func TestFilterDeclinesOnRandomData(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	random := make([]byte, 2048)
	r.Read(random)

	for _, f := range []Filter{NewE8E9(), NewDICT(), NewDelta2(), NewDispack()} {
		if _, ok := f.Forward(random); ok {
			t.Logf("%s: committed on random data (not necessarily wrong, just noting)", f.Name())
		}
	}
}

func TestPipelineRunAndInvert(t *testing.T) {
	p := NewPipeline(true, true, true, true, true, 5)
	original := x86CallJumpCorpus()

	out, applied := p.Run(original)

	var flags Kind
	for _, a := range applied {
		flags |= a.Filter.Flag()
	}

	back, err := Invert(flags, out, 5)
	if err != nil {
		t.Fatalf("Invert error: %v", err)
	}
	if !bytes.Equal(back, original) {
		t.Fatalf("pipeline round trip mismatch: got %d bytes, want %d bytes", len(back), len(original))
	}
}

func TestPipelineNoFiltersIsIdentity(t *testing.T) {
	p := NewPipeline(false, false, false, false, false, 5)
	original := englishTextCorpus()

	out, applied := p.Run(original)
	if len(applied) != 0 {
		t.Fatalf("expected no filters applied, got %d", len(applied))
	}
	if !bytes.Equal(out, original) {
		t.Fatalf("expected identity output when no filters configured")
	}
}
