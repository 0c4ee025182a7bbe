package modem

import (
	"gonum.org/v1/gonum/floats"

	"github.com/Jillou35/SonicTag/internal/config"
)

// PilotPhaseOffset estimates the common phase rotation carried by one
// OFDM symbol, by averaging the differential phase of every pilot bin
// between curr and prev (both full-length FFT spectra). It is the
// receiver's residual correction for the frequency and clock drift
// that accumulates between a chirp-aligned start and any given symbol.
func PilotPhaseOffset(cfg *config.Config, curr, prev []complex128) float64 {
	pilots := cfg.PilotBins()
	if len(pilots) == 0 {
		return 0
	}
	deltas := make([]float64, len(pilots))
	for i, k := range pilots {
		deltas[i] = deltaPhase(curr[k], prev[k])
	}
	return floats.Sum(deltas) / float64(len(deltas))
}
