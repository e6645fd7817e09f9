package cipher

import (
	"bytes"
	"testing"
)

func TestAESCTRRoundTrip(t *testing.T) {
	rng := NewSecureRng()
	key := DeriveKey([]byte("correct password"), []byte("salt1234salt5678salt9012"), 32)

	enc, err := New(AES, Encrypt, key, nil, rng)
	if err != nil {
		t.Fatal(err)
	}
	nonce := enc.Nonce()

	plain := []byte("the quick brown fox jumps over the lazy dog, chunk payload bytes")
	cipherText := make([]byte, len(plain))
	enc.Transform(cipherText, plain, 42)

	dec, err := New(AES, Decrypt, key, nonce, rng)
	if err != nil {
		t.Fatal(err)
	}
	recovered := make([]byte, len(cipherText))
	dec.Transform(recovered, cipherText, 42)

	if !bytes.Equal(plain, recovered) {
		t.Fatalf("AES-CTR round trip mismatch: got %q want %q", recovered, plain)
	}

	// A different chunk id must produce a different keystream.
	other := make([]byte, len(plain))
	enc2, _ := New(AES, Encrypt, key, nonce, rng)
	enc2.Transform(other, plain, 43)
	if bytes.Equal(other, cipherText) {
		t.Fatal("different chunk ids produced identical ciphertext")
	}
}

func TestXSalsa20RoundTrip(t *testing.T) {
	rng := NewSecureRng()
	key := DeriveKey([]byte("correct password"), []byte("salt1234salt5678salt9012"), 32)

	enc, err := New(SALSA20, Encrypt, key, nil, rng)
	if err != nil {
		t.Fatal(err)
	}
	nonce := enc.Nonce()

	plain := []byte("the quick brown fox jumps over the lazy dog, chunk payload bytes")
	cipherText := make([]byte, len(plain))
	enc.Transform(cipherText, plain, 7)

	dec, err := New(SALSA20, Decrypt, key, nonce, rng)
	if err != nil {
		t.Fatal(err)
	}
	recovered := make([]byte, len(cipherText))
	dec.Transform(recovered, cipherText, 7)

	if !bytes.Equal(plain, recovered) {
		t.Fatalf("XSalsa20 round trip mismatch: got %q want %q", recovered, plain)
	}
}

func TestWrongPasswordFailsToReproduceKeystream(t *testing.T) {
	rng := NewSecureRng()
	salt := []byte("salt1234salt5678salt9012")
	key1 := DeriveKey([]byte("right"), salt, 32)
	key2 := DeriveKey([]byte("wrong"), salt, 32)

	enc, _ := New(AES, Encrypt, key1, nil, rng)
	nonce := enc.Nonce()
	plain := []byte("0123456789abcdef0123456789abcdef")
	ct := make([]byte, len(plain))
	enc.Transform(ct, plain, 1)

	dec, _ := New(AES, Decrypt, key2, nonce, rng)
	got := make([]byte, len(ct))
	dec.Transform(got, ct, 1)

	if bytes.Equal(got, plain) {
		t.Fatal("decrypting with the wrong password reproduced the plaintext")
	}
}
