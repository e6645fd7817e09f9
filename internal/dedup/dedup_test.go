package dedup

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestChunkerCoversAllBytes(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	data := make([]byte, 2<<20)
	r.Read(data)

	blocks := NewChunker(0).Split(data)
	if len(blocks) == 0 {
		t.Fatal("expected at least one block")
	}
	pos := 0
	for _, b := range blocks {
		if b.Offset != pos {
			t.Fatalf("gap or overlap: expected offset %d, got %d", pos, b.Offset)
		}
		pos += b.Length
	}
	if pos != len(data) {
		t.Fatalf("blocks cover %d bytes, want %d", pos, len(data))
	}
}

func TestEncodeDecodeChunkExactDuplicate(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	half := make([]byte, 1<<20)
	r.Read(half)
	data := append(append([]byte{}, half...), half...)

	cfg := Config{Enabled: true, AvgBlockIndex: 2}
	out, ok := EncodeChunk(data, cfg)
	if !ok {
		t.Fatal("expected dedup to succeed on a doubled buffer")
	}
	if len(out) >= len(data) {
		t.Fatalf("encoded size %d should be smaller than original %d", len(out), len(data))
	}

	back, err := DecodeChunk(out)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if !bytes.Equal(back, data) {
		t.Fatal("round trip mismatch")
	}
}

func TestEncodeDecodeChunkWithDeltaSimilarBlocks(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	block := make([]byte, 1<<17)
	r.Read(block)

	similar := append([]byte{}, block...)
	for i := 0; i < 20; i++ {
		similar[i*100] ^= 0x01
	}

	filler := make([]byte, 1<<20)
	r.Read(filler)

	data := append(append(append([]byte{}, filler...), block...), similar...)

	cfg := Config{Enabled: true, AvgBlockIndex: 2, DeltaEncoding: true, DeltaIntensity: 1, MinDistance: 1024}
	out, ok := EncodeChunk(data, cfg)
	if !ok {
		t.Skip("dedup declined to shrink this input (sketch/layout dependent), skipping")
	}

	back, err := DecodeChunk(out)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if !bytes.Equal(back, data) {
		t.Fatal("round trip mismatch")
	}
}

func TestEncodeChunkDeclinesBelowMinSize(t *testing.T) {
	data := make([]byte, 1024)
	cfg := Config{Enabled: true}
	if _, ok := EncodeChunk(data, cfg); ok {
		t.Fatal("expected dedup to decline on input below the minimum dedup chunk size")
	}
}

func TestEncodeChunkDeclinesOnIncompressibleRandom(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	data := make([]byte, 2<<20)
	r.Read(data)

	cfg := Config{Enabled: true, AvgBlockIndex: 2}
	if _, ok := EncodeChunk(data, cfg); ok {
		t.Fatal("expected dedup to decline on fully random data with no duplicate blocks")
	}
}

func TestDeltaEncodeDecodeRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	old := make([]byte, 4096)
	r.Read(old)
	updated := append([]byte{}, old...)
	updated[10] ^= 0xFF
	updated[2000] ^= 0x0F

	patch := DeltaEncode(old, updated)
	back, err := DeltaDecode(old, patch)
	if err != nil {
		t.Fatalf("DeltaDecode: %v", err)
	}
	if !bytes.Equal(back, updated) {
		t.Fatal("delta round trip mismatch")
	}
}

func TestGlobalIndexSimpleLookup(t *testing.T) {
	g := NewGlobalIndex(GlobalSimple, 0)
	block := []byte("a repeated block of bytes used for global dedup lookup tests")

	if _, found := g.Lookup(block, 4096); found {
		t.Fatal("unexpected hit before Insert")
	}
	g.Insert(block, 1024)

	entry, found := g.Lookup(block, 4096)
	if !found {
		t.Fatal("expected hit after Insert")
	}
	if entry.Offset != 1024 || entry.Length != uint32(len(block)) {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestGlobalIndexSegmentedRequiresSketchOverlap(t *testing.T) {
	g := NewGlobalIndex(GlobalSegmented, 4096)
	block := make([]byte, 256)
	for i := range block {
		block[i] = byte(i)
	}
	g.Insert(block, 10)

	if _, found := g.Lookup(block, 10+4096); !found {
		t.Fatal("expected cross-segment hit for an identical block (same sketch)")
	}
}
