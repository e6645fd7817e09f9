package frame

import (
	"bytes"
	"testing"

	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/digest"
)

func TestPlainHeaderRoundTrip(t *testing.T) {
	h := Header{
		AlgoName:  "zlib",
		Version:   CurrentVersion,
		Flags:     MakeFlags(true, false, false, false, true, digest.SHA256, cipher.None),
		ChunkSize: 8 << 20,
		Level:     6,
	}

	var buf bytes.Buffer
	if err := h.WriteTo(&buf, nil); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	back, err := ReadHeader(&buf, nil)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if back.AlgoName != h.AlgoName || back.Flags != h.Flags || back.ChunkSize != h.ChunkSize || back.Level != h.Level {
		t.Fatalf("round trip mismatch: got %+v, want %+v", back, h)
	}
	if back.Flags.Cksum() != digest.SHA256 {
		t.Fatalf("cksum id mismatch: got %v", back.Flags.Cksum())
	}
}

func TestEncryptedHeaderRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	hmacFn, err := cipher.NewHMAC(key, 32)
	if err != nil {
		t.Fatalf("NewHMAC: %v", err)
	}

	h := Header{
		AlgoName:  "lzma",
		Version:   CurrentVersion,
		Flags:     MakeFlags(false, false, true, false, false, digest.SHA256, cipher.AES),
		ChunkSize: 4 << 20,
		Level:     9,
		Salt:      []byte("saltsaltsalt"),
		Nonce:     make([]byte, 8),
		KeyLength: 32,
	}

	var buf bytes.Buffer
	if err := h.WriteTo(&buf, hmacFn); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	back, err := ReadHeader(&buf, hmacFn)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if back.Flags.CipherID() != cipher.AES {
		t.Fatalf("cipher id mismatch: got %v", back.Flags.CipherID())
	}
	if !bytes.Equal(back.Salt, h.Salt) || back.KeyLength != h.KeyLength {
		t.Fatalf("round trip mismatch: got %+v", back)
	}
}

func TestEncryptedHeaderRejectsTamperedMAC(t *testing.T) {
	key := []byte("key-for-hmac-test-purposes-only!")
	hmacFn, _ := cipher.NewHMAC(key, 32)

	h := Header{
		AlgoName:  "adapt",
		Version:   CurrentVersion,
		Flags:     MakeFlags(false, false, false, false, false, digest.SHA256, cipher.SALSA20),
		ChunkSize: 1 << 20,
		Level:     5,
		Salt:      []byte("abcd"),
		Nonce:     make([]byte, cipher.NonceSize(cipher.SALSA20)),
		KeyLength: 32,
	}

	var buf bytes.Buffer
	if err := h.WriteTo(&buf, hmacFn); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	tampered := buf.Bytes()
	tampered[len(tampered)-1] ^= 0xFF

	if _, err := ReadHeader(bytes.NewReader(tampered), hmacFn); err == nil {
		t.Fatal("expected MAC verification to fail on tampered header")
	}
}

func TestChunkFrameRoundTripWithCRC(t *testing.T) {
	h := ChunkHeader{
		Length: 5,
		Digest: bytes.Repeat([]byte{0xAB}, 32),
		Flags:  ChunkCompressed | ChunkPreprocessed,
	}
	payload := []byte("hello")

	var buf bytes.Buffer
	if err := WriteChunk(&buf, h, payload, nil); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	back, gotPayload, isEOS, isMeta, err := ReadChunk(&buf, 32, 4, 1<<20, nil)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if isEOS || isMeta {
		t.Fatal("unexpected EOS/metadata sentinel")
	}
	if back.Flags != h.Flags || !bytes.Equal(gotPayload, payload) {
		t.Fatalf("round trip mismatch: got %+v %q", back, gotPayload)
	}
}

func TestChunkFrameWithVarSizeTrailer(t *testing.T) {
	h := ChunkHeader{
		Length:       3,
		Digest:       bytes.Repeat([]byte{0x01}, 32),
		Flags:        ChunkCompressed | ChunkVarSize,
		OriginalSize: 9000,
	}
	payload := []byte("abc")

	var buf bytes.Buffer
	if err := WriteChunk(&buf, h, payload, nil); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	back, _, _, _, err := ReadChunk(&buf, 32, 4, 1<<20, nil)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if back.OriginalSize != 9000 {
		t.Fatalf("original size mismatch: got %d", back.OriginalSize)
	}
}

func TestChunkFrameEndOfStream(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEndOfStream(&buf); err != nil {
		t.Fatalf("WriteEndOfStream: %v", err)
	}
	_, _, isEOS, _, err := ReadChunk(&buf, 32, 4, 1<<20, nil)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if !isEOS {
		t.Fatal("expected end-of-stream sentinel to be recognised")
	}
}

func TestChunkFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [8]byte
	for i := range lenBuf {
		lenBuf[i] = 0x00
	}
	lenBuf[6] = 0xFF
	lenBuf[7] = 0xFF
	buf.Write(lenBuf[:])

	_, _, _, _, err := ReadChunk(&buf, 32, 4, 1024, nil)
	if err == nil {
		t.Fatal("expected a declared length far beyond chunksize to be rejected as corruption")
	}
}

func TestSubAlgoRoundTrip(t *testing.T) {
	f := WithSubAlgo(ChunkCompressed, 7)
	if f.SubAlgo() != 7 {
		t.Fatalf("sub-algo mismatch: got %d", f.SubAlgo())
	}
	if f&ChunkCompressed == 0 {
		t.Fatal("expected ChunkCompressed bit to survive WithSubAlgo")
	}
}
