package digest

import (
	"bytes"
	"testing"
)

func TestDigestRoundTripConsistency(t *testing.T) {
	ids := []ID{CRC64, SHA256, SHA512, KECCAK256, KECCAK512, BLAKE256, BLAKE512}
	data := []byte("the quick brown fox jumps over the lazy dog")

	for _, id := range ids {
		d, err := New(id)
		if err != nil {
			t.Fatalf("New(%s): %v", Name(id), err)
		}
		d.Update(data)
		sum1 := d.Final()

		if len(sum1) != Size(id) {
			t.Errorf("%s: Size()=%d but Final() returned %d bytes", Name(id), Size(id), len(sum1))
		}

		d.Reinit()
		d.Update(data)
		sum2 := d.Final()
		if !bytes.Equal(sum1, sum2) {
			t.Errorf("%s: Reinit+Update did not reproduce the same digest", Name(id))
		}

		clone := d.Clone()
		clone.Update(data)
		sum3 := clone.Final()
		if !bytes.Equal(sum1, sum3) {
			t.Errorf("%s: Clone did not reproduce the same digest", Name(id))
		}
	}
}

func TestDigestSkeinUnavailable(t *testing.T) {
	for _, id := range []ID{SKEIN256, SKEIN512} {
		if _, err := New(id); err == nil {
			t.Errorf("New(%s): expected unavailable error, got nil", Name(id))
		}
	}
}

func TestParseName(t *testing.T) {
	id, err := ParseName("SHA256")
	if err != nil || id != SHA256 {
		t.Fatalf("ParseName(SHA256) = %v, %v", id, err)
	}
	if _, err := ParseName("BOGUS"); err == nil {
		t.Fatal("expected error for unknown name")
	}
}
