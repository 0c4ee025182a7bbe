package fec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDataHandlerRoundTrip(t *testing.T) {
	h := NewDataHandler(16)
	for _, payload := range [][]byte{
		[]byte("Hi"),
		bytes.Repeat([]byte{0}, 233),
		[]byte("Hello, World!"),
		{},
	} {
		t.Run("", func(t *testing.T) {
			if len(payload) > h.MaxPayload() {
				t.Skip("payload exceeds MaxPayload for this run")
			}
			packet, err := h.Encode(payload)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := h.Decode(packet)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(decoded, payload) {
				t.Fatalf("decoded = %v, want %v", decoded, payload)
			}
		})
	}
}

func TestDataHandlerMaxPayload(t *testing.T) {
	h := NewDataHandler(16)
	if got, want := h.MaxPayload(), 233; got != want {
		t.Fatalf("MaxPayload() = %d, want %d", got, want)
	}
	_, err := h.Encode(make([]byte, want+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("Encode over max: err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestDataHandlerCorrectionBound(t *testing.T) {
	h := NewDataHandler(16)
	payload := []byte("corruption bound test payload")
	packet, err := h.Encode(payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	rng := rand.New(rand.NewSource(3))

	// Corrupting 8 bytes (nsym/2) must still recover.
	corrupted := append([]byte{}, packet...)
	for _, p := range rng.Perm(len(corrupted))[:8] {
		corrupted[p] ^= byte(1 + rng.Intn(255))
	}
	decoded, err := h.Decode(corrupted)
	if err != nil {
		t.Fatalf("Decode with 8 byte errors: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatalf("decoded = %q, want %q", decoded, payload)
	}

	// Corrupting 9 bytes must not silently succeed with wrong data.
	for trial := 0; trial < 10; trial++ {
		corrupted := append([]byte{}, packet...)
		for _, p := range rng.Perm(len(corrupted))[:9] {
			corrupted[p] ^= byte(1 + rng.Intn(255))
		}
		decoded, err := h.Decode(corrupted)
		if err == nil && bytes.Equal(decoded, payload) {
			t.Fatalf("trial %d: decoder corrected 9 byte errors beyond its nsym/2=8 bound", trial)
		}
	}
}

func TestDataHandlerNeverReturnsCorruptedPayloadAsSuccess(t *testing.T) {
	h := NewDataHandler(16)
	payload := []byte("integrity")
	packet, err := h.Encode(payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	rng := rand.New(rand.NewSource(4))
	for trial := 0; trial < 2000; trial++ {
		corrupted := append([]byte{}, packet...)
		n := 1 + rng.Intn(len(corrupted)-1)
		for _, p := range rng.Perm(len(corrupted))[:n] {
			corrupted[p] = byte(rng.Intn(256))
		}
		decoded, err := h.Decode(corrupted)
		if err == nil && !bytes.Equal(decoded, payload) {
			t.Fatalf("trial %d: Decode returned a wrong payload as success instead of failing CRC: %q", trial, decoded)
		}
	}
}

func TestDataHandlerRoundTripProperty(t *testing.T) {
	h := NewDataHandler(16)
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, h.MaxPayload()).Draw(rt, "payloadLen")
		payload := rapid.SliceOfN(rapid.Byte(), n, n).Draw(rt, "payload")

		packet, err := h.Encode(payload)
		require.NoError(rt, err)

		decoded, err := h.Decode(packet)
		require.NoError(rt, err)
		require.Equal(rt, payload, decoded)
	})
}
