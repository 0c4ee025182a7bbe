package modem

import (
	"bytes"
	"testing"
)

func TestBytesToBitsToBytesRoundTrip(t *testing.T) {
	data := []byte("roundtrip")
	bits := BytesToBits(data)
	if len(bits) != len(data)*8 {
		t.Fatalf("len(bits) = %d, want %d", len(bits), len(data)*8)
	}
	back := BitsToBytes(bits)
	if !bytes.Equal(back, data) {
		t.Fatalf("BitsToBytes(BytesToBits(%q)) = %q", data, back)
	}
}

func TestBytesToBitsMSBFirst(t *testing.T) {
	bits := BytesToBits([]byte{0b10110010})
	want := []byte{1, 0, 1, 1, 0, 0, 1, 0}
	if !bytes.Equal(bits, want) {
		t.Fatalf("bits = %v, want %v", bits, want)
	}
}
