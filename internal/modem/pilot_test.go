package modem

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/Jillou35/SonicTag/internal/config"
)

func TestPilotPhaseOffsetZeroWhenUnchanged(t *testing.T) {
	cfg := config.Default()
	spectrum := make([]complex128, cfg.FFTSize)
	for _, k := range cfg.ActiveBins() {
		spectrum[k] = complex(1, 0)
	}
	offset := PilotPhaseOffset(cfg, spectrum, spectrum)
	if math.Abs(offset) > 1e-9 {
		t.Fatalf("PilotPhaseOffset on identical spectra = %v, want ~0", offset)
	}
}

func TestPilotPhaseOffsetTracksRotation(t *testing.T) {
	cfg := config.Default()
	prev := make([]complex128, cfg.FFTSize)
	curr := make([]complex128, cfg.FFTSize)
	rotation := 0.3
	for _, k := range cfg.ActiveBins() {
		prev[k] = complex(1, 0)
		curr[k] = cmplx.Rect(1, rotation)
	}
	offset := PilotPhaseOffset(cfg, curr, prev)
	if math.Abs(offset-rotation) > 1e-6 {
		t.Fatalf("PilotPhaseOffset = %v, want ~%v", offset, rotation)
	}
}
