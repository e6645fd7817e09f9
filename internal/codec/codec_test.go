package codec

import (
	"bytes"
	"math/rand"
	"testing"
)

func roundTrip(t *testing.T, id ID, level int, src []byte) {
	t.Helper()
	c, err := New(id, level, 1, len(src), OpCompress)
	if err != nil {
		t.Fatalf("New(%s): %v", Name(id), err)
	}
	dst := make([]byte, len(src)+4096)
	n, sub, err := c.Compress(dst, src, level)
	if err != nil {
		if err == ErrIncompressible {
			t.Skipf("%s: declined to compress this input", Name(id))
		}
		t.Fatalf("%s: Compress: %v", Name(id), err)
	}

	out := make([]byte, len(src))
	dn, err := c.Decompress(out, dst[:n], level, sub)
	if err != nil {
		t.Fatalf("%s: Decompress: %v", Name(id), err)
	}
	if dn != len(src) || !bytes.Equal(out[:dn], src) {
		t.Fatalf("%s: round trip mismatch (got %d bytes)", Name(id), dn)
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	repetitive := bytes.Repeat([]byte("abcdefgh"), 8192)
	randomish := make([]byte, 64*1024)
	rnd.Read(randomish)

	for _, id := range []ID{Zlib, Lz4, Bzip2, Lzma, Adapt, Adapt2} {
		id := id
		t.Run(Name(id)+"/repetitive", func(t *testing.T) {
			roundTrip(t, id, 6, repetitive)
		})
	}
}

func TestNoneCodecDeclines(t *testing.T) {
	c, err := New(None, 1, 1, 1024, OpCompress)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = c.Compress(make([]byte, 10), []byte("hello"), 1)
	if err != ErrIncompressible {
		t.Fatalf("expected ErrIncompressible, got %v", err)
	}
}

func TestUnavailableCodecs(t *testing.T) {
	for _, id := range []ID{Ppmd, Libbsc} {
		c, err := New(id, 1, 1, 1024, OpCompress)
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := c.Compress(make([]byte, 10), []byte("hello"), 1); err == nil {
			t.Fatalf("%s: expected unavailable error", Name(id))
		}
	}
}
