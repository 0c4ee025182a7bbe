// Package modem implements the OFDM/differential-BPSK physical layer:
// spectrum construction, the cyclic-prefixed IFFT/FFT pair, pilot-based
// phase tracking, and the chirp preamble used for frame synchronization.
package modem

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/Jillou35/SonicTag/internal/config"
)

// symbolAmplitude is the peak absolute sample value normalizeAmplitude
// rescales every modulated symbol (cyclic prefix included) to.
const symbolAmplitude = 0.9

// Modulator turns payload bits into OFDM symbol waveforms using
// differential BPSK: each data bin's phase advances by pi on a 1 bit
// and holds on a 0 bit, relative to the same bin in the previous
// symbol. A Modulator is stateful across a frame's symbols and must be
// re-created per frame.
type Modulator struct {
	cfg   *config.Config
	state []complex128 // per-data-bin carrier value, indexed like cfg.DataBins()
}

// NewModulator creates a Modulator for one frame. headerBits are the
// absolute-BPSK bits the header symbol carries on each data bin (see
// EncodeHeaderSymbol); the first payload symbol's differential phase is
// measured relative to them, so they seed the carrier state here too.
func NewModulator(cfg *config.Config, headerBits []byte) *Modulator {
	state := make([]complex128, cfg.BitsPerSymbol())
	for i := range state {
		bit := byte(0)
		if i < len(headerBits) {
			bit = headerBits[i]
		}
		state[i] = bitComplex(bit)
	}
	return &Modulator{cfg: cfg, state: state}
}

// ModulateSymbol encodes one OFDM symbol's worth of bits
// (len(bits) == cfg.BitsPerSymbol()) and returns its time-domain
// samples, cyclic prefix included.
func (m *Modulator) ModulateSymbol(bits []byte) ([]float64, error) {
	if len(bits) != len(m.state) {
		return nil, fmt.Errorf("modem: got %d bits, want %d", len(bits), len(m.state))
	}
	spectrum := make([]complex128, m.cfg.FFTSize)
	for _, k := range m.cfg.PilotBins() {
		spectrum[k] = complex(1, 0)
	}
	for i, k := range m.cfg.DataBins() {
		if bits[i] != 0 {
			m.state[i] = -m.state[i]
		}
		spectrum[k] = m.state[i]
	}
	applyHermitianSymmetry(spectrum)
	timeDomain := RealIFFT(spectrum)
	withCP := addCyclicPrefix(timeDomain, m.cfg.CPLen)
	normalizeAmplitude(withCP, symbolAmplitude)
	return withCP, nil
}

// Demodulator recovers bits from OFDM symbol waveforms. Like Modulator,
// it carries state (the previous symbol's spectrum) across a frame.
type Demodulator struct {
	cfg  *config.Config
	prev []complex128

	// LastLowMagnitudeBins counts data bins in the most recently
	// demodulated symbol whose magnitude fell below the erasure floor
	// relative to the symbol's RMS. The bit value is still returned;
	// nothing downstream currently treats this as an erasure.
	LastLowMagnitudeBins int
}

// NewDemodulator creates a Demodulator for one frame. headerSpectrum is
// the FFT of the received (cyclic-prefix-stripped) header symbol, used
// as the differential reference for the first payload symbol.
func NewDemodulator(cfg *config.Config, headerSpectrum []complex128) *Demodulator {
	prev := make([]complex128, len(headerSpectrum))
	copy(prev, headerSpectrum)
	return &Demodulator{cfg: cfg, prev: prev}
}

// DemodulateSymbol recovers one symbol's data bits from its time-domain
// samples (cyclic prefix included).
func (d *Demodulator) DemodulateSymbol(samples []float64) ([]byte, error) {
	if len(samples) != d.cfg.SymbolLen() {
		return nil, fmt.Errorf("modem: got %d samples, want %d", len(samples), d.cfg.SymbolLen())
	}
	withoutCP := removeCyclicPrefix(samples, d.cfg.CPLen)
	spectrum := ForwardFFT(withoutCP)

	offset := PilotPhaseOffset(d.cfg, spectrum, d.prev)

	activeMags := make([]float64, 0, len(d.cfg.ActiveBins()))
	for _, k := range d.cfg.ActiveBins() {
		activeMags = append(activeMags, cmplx.Abs(spectrum[k]))
	}
	rms := math.Sqrt(floats.Sum(squareAll(activeMags)) / float64(len(activeMags)))

	dataBins := d.cfg.DataBins()
	bits := make([]byte, len(dataBins))
	d.LastLowMagnitudeBins = 0
	for i, k := range dataBins {
		if rms > 0 && cmplx.Abs(spectrum[k]) < 0.1*rms {
			d.LastLowMagnitudeBins++
		}
		delta := wrapPhase(deltaPhase(spectrum[k], d.prev[k]) - offset)
		bits[i] = sliceBit(delta)
	}

	d.prev = spectrum
	return bits, nil
}

func squareAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * x
	}
	return out
}

func removeCyclicPrefix(samples []float64, cpLen int) []float64 {
	if len(samples) <= cpLen {
		return samples
	}
	return samples[cpLen:]
}

func addCyclicPrefix(samples []float64, cpLen int) []float64 {
	n := len(samples)
	out := make([]float64, cpLen+n)
	copy(out, samples[n-cpLen:])
	copy(out[cpLen:], samples)
	return out
}

// applyHermitianSymmetry mirrors bins [1, n/2) into (n/2, n) as complex
// conjugates and zeroes DC and Nyquist, so the inverse FFT is real.
func applyHermitianSymmetry(spectrum []complex128) {
	n := len(spectrum)
	for k := 1; k < n/2; k++ {
		spectrum[n-k] = cmplx.Conj(spectrum[k])
	}
	spectrum[0] = 0
	spectrum[n/2] = 0
}

// normalizeAmplitude rescales samples in place so their peak absolute
// value equals target, leaving a silent signal untouched.
func normalizeAmplitude(samples []float64, target float64) {
	maxAbs := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return
	}
	scale := target / maxAbs
	for i := range samples {
		samples[i] *= scale
	}
}
