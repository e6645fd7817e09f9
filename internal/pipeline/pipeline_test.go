package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/codec"
	"github.com/moinakg/pcompress-go/internal/dedup"
	"github.com/moinakg/pcompress-go/internal/digest"
)

func roundTrip(t *testing.T, opts Options, data []byte) []byte {
	t.Helper()
	var compressed bytes.Buffer
	if _, err := Compress(context.Background(), bytes.NewReader(data), &compressed, opts); err != nil {
		t.Fatalf("Compress: %v", err)
	}

	var out bytes.Buffer
	if _, err := Decompress(context.Background(), bytes.NewReader(compressed.Bytes()), &out, opts); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	return out.Bytes()
}

func TestCompressDecompressRoundTripNoCipherNoDedup(t *testing.T) {
	opts := Options{
		ChunkSize: 64 * 1024,
		Level:     6,
		NWorkers:  2,
		Algo:      codec.Zlib,
		Cksum:     digest.SHA256,
	}
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 5000)
	got := roundTrip(t, opts, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestCompressDecompressRoundTripNoneCodecSmallInput(t *testing.T) {
	opts := Options{
		ChunkSize: 1 << 20,
		Level:     1,
		NWorkers:  1,
		Algo:      codec.None,
		Cksum:     digest.CRC64,
	}
	data := []byte("hello, pcompress")
	got := roundTrip(t, opts, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, data)
	}
}

func TestCompressDecompressRoundTripMultiChunk(t *testing.T) {
	opts := Options{
		ChunkSize: 16 * 1024,
		Level:     3,
		NWorkers:  4,
		Algo:      codec.Lz4,
		Cksum:     digest.SHA256,
	}
	data := make([]byte, 300*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}
	got := roundTrip(t, opts, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestCompressDecompressRoundTripWithCipher(t *testing.T) {
	key := bytes.Repeat([]byte("k"), 32)
	opts := Options{
		ChunkSize: 32 * 1024,
		Level:     6,
		NWorkers:  3,
		Algo:      codec.Zlib,
		Cksum:     digest.SHA256,
		CipherID:  cipher.AES,
		Key:       key,
	}
	data := bytes.Repeat([]byte("secret payload, chunked and encrypted per-chunk. "), 4000)
	got := roundTrip(t, opts, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestCompressDecompressRoundTripWithSalsa20Cipher(t *testing.T) {
	key := bytes.Repeat([]byte("s"), 32)
	opts := Options{
		ChunkSize: 32 * 1024,
		Level:     6,
		NWorkers:  3,
		Algo:      codec.Zlib,
		Cksum:     digest.SHA256,
		CipherID:  cipher.SALSA20,
		Key:       key,
	}
	data := bytes.Repeat([]byte("xsalsa20 secret payload, chunked and encrypted per-chunk. "), 4000)
	got := roundTrip(t, opts, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestCompressDecompressRoundTripWithDedup(t *testing.T) {
	opts := Options{
		ChunkSize: 4 << 20,
		Level:     6,
		NWorkers:  2,
		Algo:      codec.Zlib,
		Cksum:     digest.SHA256,
		Dedup: dedup.Config{
			Enabled:       true,
			FixedBlock:    true,
			DeltaEncoding: false,
			AvgBlockIndex: 2,
		},
	}
	half := bytes.Repeat([]byte("ABCDEFGH"), 150000)
	data := append(append([]byte{}, half...), half...)
	got := roundTrip(t, opts, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}
