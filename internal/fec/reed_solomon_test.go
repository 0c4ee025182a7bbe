package fec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRSCodecEncodeLength(t *testing.T) {
	rs := NewRSCodec(16)
	parity, err := rs.Encode(make([]byte, 50))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(parity) != 16 {
		t.Fatalf("parity length = %d, want 16", len(parity))
	}
}

func TestRSCodecRoundTripNoErrors(t *testing.T) {
	rs := NewRSCodec(16)
	data := []byte("the quick brown fox jumps over the lazy dog")
	parity, err := rs.Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	codeword := append(append([]byte{}, data...), parity...)

	decoded, numErrors, err := rs.Decode(codeword)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if numErrors != 0 {
		t.Fatalf("numErrors = %d, want 0", numErrors)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatalf("decoded = %q, want %q", decoded, data)
	}
}

func TestRSCodecCorrectsUpToHalfParity(t *testing.T) {
	nsym := 16
	rs := NewRSCodec(nsym)
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i * 7)
	}
	parity, err := rs.Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		codeword := append(append([]byte{}, data...), parity...)
		positions := rng.Perm(len(codeword))[:nsym/2]
		for _, p := range positions {
			codeword[p] ^= byte(1 + rng.Intn(255))
		}
		decoded, numErrors, err := rs.Decode(codeword)
		if err != nil {
			t.Fatalf("trial %d: Decode with %d errors: %v", trial, nsym/2, err)
		}
		if numErrors != nsym/2 {
			t.Fatalf("trial %d: numErrors = %d, want %d", trial, numErrors, nsym/2)
		}
		if !bytes.Equal(decoded, data) {
			t.Fatalf("trial %d: decoded mismatch after correcting %d errors", trial, nsym/2)
		}
	}
}

func TestRSCodecFailsBeyondHalfParity(t *testing.T) {
	nsym := 16
	rs := NewRSCodec(nsym)
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i * 13)
	}
	parity, err := rs.Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	rng := rand.New(rand.NewSource(2))
	failures, successes := 0, 0
	for trial := 0; trial < 30; trial++ {
		codeword := append(append([]byte{}, data...), parity...)
		positions := rng.Perm(len(codeword))[:nsym/2+1]
		for _, p := range positions {
			codeword[p] ^= byte(1 + rng.Intn(255))
		}
		decoded, _, err := rs.Decode(codeword)
		if err != nil {
			if !errors.Is(err, ErrUncorrectableErrors) {
				t.Fatalf("trial %d: wrong error kind: %v", trial, err)
			}
			failures++
			continue
		}
		// The decoder is allowed to either fail outright or detect a
		// different (wrong) codeword; it must never silently return the
		// original data when asked to overcorrect more errors than its
		// distance allows, except for the rare case an error pattern
		// happens to land on another valid codeword.
		if bytes.Equal(decoded, data) {
			t.Fatalf("trial %d: decoder corrected %d errors, exceeding nsym/2=%d", trial, nsym/2+1, nsym/2)
		}
		successes++
	}
	if failures == 0 {
		t.Fatalf("expected at least some trials to report uncorrectable errors, got %d successes / %d failures", successes, failures)
	}
}

func TestRSCodecRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		nsym := rapid.SampledFrom([]int{2, 4, 8, 16, 32}).Draw(rt, "nsym")
		maxData := 255 - nsym
		dataLen := rapid.IntRange(1, maxData).Draw(rt, "dataLen")
		data := rapid.SliceOfN(rapid.Byte(), dataLen, dataLen).Draw(rt, "data")

		rs := NewRSCodec(nsym)
		parity, err := rs.Encode(data)
		require.NoError(rt, err)

		codeword := append(append([]byte{}, data...), parity...)
		decoded, numErrors, err := rs.Decode(codeword)
		require.NoError(rt, err)
		require.Equal(rt, 0, numErrors)
		require.Equal(rt, data, decoded)
	})
}
