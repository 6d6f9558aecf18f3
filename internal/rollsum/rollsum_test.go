package rollsum

import "testing"

func TestDeterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeatedly, to fill the window")

	r1 := New()
	r2 := New()
	for _, b := range data {
		r1.RollByte(b)
		r2.RollByte(b)
	}
	if r1.Digest() != r2.Digest() {
		t.Fatalf("two identical byte sequences produced different digests: %x vs %x", r1.Digest(), r2.Digest())
	}
}

func TestDigestChangesWithInput(t *testing.T) {
	r := New()
	seen := map[uint32]bool{}
	for i := 0; i < 256; i++ {
		r.RollByte(byte(i))
		seen[r.Digest()] = true
	}
	if len(seen) < 200 {
		t.Fatalf("digest only took %d distinct values over 256 distinct inputs, rolling hash looks broken", len(seen))
	}
}

func TestWindowForgetsOldBytes(t *testing.T) {
	// Once windowSize bytes of 'a' have been rolled in, the checksum should
	// match a RollSum that only ever saw 'a' for the last windowSize bytes.
	r1 := New()
	for i := 0; i < windowSize; i++ {
		r1.RollByte('x')
	}
	for i := 0; i < windowSize; i++ {
		r1.RollByte('a')
	}

	r2 := New()
	for i := 0; i < windowSize; i++ {
		r2.RollByte('a')
	}

	if r1.Digest() != r2.Digest() {
		t.Fatalf("digest depends on bytes outside the window: %x vs %x", r1.Digest(), r2.Digest())
	}
}
