package modem

import (
	"math/rand"
	"testing"

	"github.com/Jillou35/SonicTag/internal/config"
)

func buildSyncTestBuffer(cfg *config.Config, chirp []float64, chirpStart, totalLen int) []float64 {
	buf := make([]float64, totalLen)
	copy(buf[chirpStart:], chirp)
	return buf
}

func TestSyncDetectsChirpDirectCorrelation(t *testing.T) {
	cfg := config.Default()
	s := NewSync(cfg)
	chirpStart := 1000
	buf := buildSyncTestBuffer(cfg, s.chirp, chirpStart, chirpStart+s.ChirpLen()+2000)

	frameStart, ok := s.Detect(buf)
	if !ok {
		t.Fatal("expected chirp detection")
	}
	want := chirpStart + s.ChirpLen() + cfg.GuardSamples()
	if frameStart != want {
		t.Fatalf("frameStart = %d, want %d", frameStart, want)
	}
}

func TestSyncDetectsChirpFFTPath(t *testing.T) {
	cfg := config.Default()
	s := NewSync(cfg)
	chirpStart := 2000
	// Buffer well over 4x chirp length forces the FFT correlation path.
	buf := buildSyncTestBuffer(cfg, s.chirp, chirpStart, chirpStart+s.ChirpLen()*6)

	frameStart, ok := s.Detect(buf)
	if !ok {
		t.Fatal("expected chirp detection on long buffer")
	}
	want := chirpStart + s.ChirpLen() + cfg.GuardSamples()
	if frameStart != want {
		t.Fatalf("frameStart = %d, want %d", frameStart, want)
	}
}

func TestSyncDirectAndFFTPathsAgree(t *testing.T) {
	cfg := config.Default()
	s := NewSync(cfg)
	chirpStart := 500
	buf := buildSyncTestBuffer(cfg, s.chirp, chirpStart, chirpStart+s.ChirpLen()*8)

	direct := s.directCorrelate(buf)
	viaFFT := s.fftCorrelate(buf)
	if len(direct) != len(viaFFT) {
		t.Fatalf("correlation length mismatch: direct=%d fft=%d", len(direct), len(viaFFT))
	}
	for i := range direct {
		if diff := direct[i] - viaFFT[i]; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("correlation[%d]: direct=%v fft=%v", i, direct[i], viaFFT[i])
		}
	}
}

func TestSyncNoDetectionOnSilence(t *testing.T) {
	cfg := config.Default()
	s := NewSync(cfg)
	buf := make([]float64, s.ChirpLen()*3)
	if _, ok := s.Detect(buf); ok {
		t.Fatal("expected no detection on silence")
	}
}

func TestSyncTolerantOfModerateNoise(t *testing.T) {
	cfg := config.Default()
	s := NewSync(cfg)
	chirpStart := 800
	buf := buildSyncTestBuffer(cfg, s.chirp, chirpStart, chirpStart+s.ChirpLen()+3000)

	rng := rand.New(rand.NewSource(7))
	for i := range buf {
		buf[i] += 0.05 * (rng.Float64()*2 - 1)
	}

	frameStart, ok := s.Detect(buf)
	if !ok {
		t.Fatal("expected detection despite moderate noise")
	}
	want := chirpStart + s.ChirpLen() + cfg.GuardSamples()
	if diff := frameStart - want; diff > 2 || diff < -2 {
		t.Fatalf("frameStart = %d, want within 2 samples of %d", frameStart, want)
	}
}
