package modem

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Jillou35/SonicTag/internal/config"
)

func TestHeaderSymbolRoundTrip(t *testing.T) {
	cfg := config.Default()
	for _, count := range []int{0, 1, 17, 4096, 65535} {
		samples, wantBits, err := EncodeHeaderSymbol(cfg, count)
		if err != nil {
			t.Fatalf("EncodeHeaderSymbol(%d): %v", count, err)
		}
		if len(samples) != cfg.SymbolLen() {
			t.Fatalf("header symbol length = %d, want %d", len(samples), cfg.SymbolLen())
		}
		got, _, gotBits, err := DecodeHeaderSymbol(cfg, samples)
		if err != nil {
			t.Fatalf("DecodeHeaderSymbol(%d): %v", count, err)
		}
		if got != count {
			t.Fatalf("decoded payloadLen = %d, want %d", got, count)
		}
		require.Equal(t, wantBits, gotBits)
	}
}

func TestHeaderSymbolRejectsOutOfRangeCount(t *testing.T) {
	cfg := config.Default()
	if _, _, err := EncodeHeaderSymbol(cfg, -1); err == nil {
		t.Fatal("expected error for negative count")
	}
	if _, _, err := EncodeHeaderSymbol(cfg, 70000); err == nil {
		t.Fatal("expected error for count exceeding 16 bits")
	}
}

func TestModulatorDemodulatorRoundTripOneSymbol(t *testing.T) {
	cfg := config.Default()
	headerSamples, headerBits, err := EncodeHeaderSymbol(cfg, 1)
	require.NoError(t, err)
	_, headerSpectrum, _, err := DecodeHeaderSymbol(cfg, headerSamples)
	require.NoError(t, err)

	bits := make([]byte, cfg.BitsPerSymbol())
	for i := range bits {
		bits[i] = byte(i % 2)
	}

	mod := NewModulator(cfg, headerBits)
	samples, err := mod.ModulateSymbol(bits)
	require.NoError(t, err)
	require.Len(t, samples, cfg.SymbolLen())

	demod := NewDemodulator(cfg, headerSpectrum)
	decoded, err := demod.DemodulateSymbol(samples)
	require.NoError(t, err)
	require.Equal(t, bits, decoded)
}

func TestModulatorDemodulatorRoundTripManySymbols(t *testing.T) {
	cfg := config.Default()
	headerSamples, headerBits, err := EncodeHeaderSymbol(cfg, 5)
	require.NoError(t, err)
	_, headerSpectrum, _, err := DecodeHeaderSymbol(cfg, headerSamples)
	require.NoError(t, err)

	mod := NewModulator(cfg, headerBits)
	demod := NewDemodulator(cfg, headerSpectrum)

	bitsPerSymbol := cfg.BitsPerSymbol()
	for s := 0; s < 5; s++ {
		bits := make([]byte, bitsPerSymbol)
		for i := range bits {
			bits[i] = byte((i + s) % 2)
		}
		samples, err := mod.ModulateSymbol(bits)
		require.NoError(t, err)
		decoded, err := demod.DemodulateSymbol(samples)
		require.NoError(t, err)
		require.Equalf(t, bits, decoded, "symbol %d mismatch", s)
	}
}

func TestSymbolSpectrumConfinedToActiveBand(t *testing.T) {
	cfg := config.Default()
	headerBits := make([]byte, cfg.BitsPerSymbol())
	mod := NewModulator(cfg, headerBits)

	bits := make([]byte, cfg.BitsPerSymbol())
	for i := range bits {
		bits[i] = byte(i % 2)
	}
	samples, err := mod.ModulateSymbol(bits)
	require.NoError(t, err)

	withoutCP := samples[cfg.CPLen:]
	spectrum := ForwardFFT(withoutCP)

	active := make(map[int]bool, len(cfg.ActiveBins())*2)
	for _, k := range cfg.ActiveBins() {
		active[k] = true
		active[cfg.FFTSize-k] = true
	}

	const epsilon = 1e-6
	for k, v := range spectrum {
		if active[k] {
			continue
		}
		if mag := cmplx.Abs(v); mag > epsilon {
			t.Fatalf("bin %d outside active band has magnitude %v, want ~0", k, mag)
		}
	}
}

func TestModulatorDemodulatorRoundTripProperty(t *testing.T) {
	cfg := config.Default()
	rapid.Check(t, func(rt *rapid.T) {
		numSymbols := rapid.IntRange(1, 6).Draw(rt, "numSymbols")

		headerSamples, headerBits, err := EncodeHeaderSymbol(cfg, numSymbols)
		require.NoError(rt, err)
		_, headerSpectrum, _, err := DecodeHeaderSymbol(cfg, headerSamples)
		require.NoError(rt, err)

		mod := NewModulator(cfg, headerBits)
		demod := NewDemodulator(cfg, headerSpectrum)
		bitsPerSymbol := cfg.BitsPerSymbol()

		for s := 0; s < numSymbols; s++ {
			bits := rapid.SliceOfN(rapid.SampledFrom([]byte{0, 1}), bitsPerSymbol, bitsPerSymbol).Draw(rt, "bits")
			samples, err := mod.ModulateSymbol(bits)
			require.NoError(rt, err)
			decoded, err := demod.DemodulateSymbol(samples)
			require.NoError(rt, err)
			require.Equal(rt, bits, decoded)
		}
	})
}
