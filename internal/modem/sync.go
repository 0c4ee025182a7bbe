package modem

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/Jillou35/SonicTag/internal/config"
)

// overlapSaveThreshold is the buffer-length multiple of the chirp past
// which detection switches from direct time-domain correlation to FFT
// convolution.
const overlapSaveThreshold = 4

// GenerateChirp synthesizes the Hann-windowed linear-frequency sync
// chirp sweeping cfg.BandLow to cfg.BandHigh over cfg.ChirpDuration
// seconds.
func GenerateChirp(cfg *config.Config) []float64 {
	n := cfg.ChirpSamples()
	win := window.Hann(n)
	sweepRate := (cfg.BandHigh - cfg.BandLow) / cfg.ChirpDuration

	out := make([]float64, n)
	for s := 0; s < n; s++ {
		t := float64(s) / float64(cfg.SampleRate)
		phase := 2 * math.Pi * (cfg.BandLow*t + 0.5*sweepRate*t*t)
		out[s] = win[s] * math.Cos(phase)
	}
	return out
}

// Sync detects the chirp preamble in a rolling sample buffer via
// normalized matched-filter cross-correlation. A Sync is built once per
// Config and reused across every Detect call.
type Sync struct {
	cfg         *config.Config
	chirp       []float64
	kernel      []float64 // time-reversed chirp, the matched filter response
	chirpEnergy float64
}

// NewSync builds a Sync for cfg, generating and caching its chirp.
func NewSync(cfg *config.Config) *Sync {
	chirp := GenerateChirp(cfg)
	kernel := make([]float64, len(chirp))
	for i, v := range chirp {
		kernel[len(chirp)-1-i] = v
	}
	energy := 0.0
	for _, v := range chirp {
		energy += v * v
	}
	return &Sync{cfg: cfg, chirp: chirp, kernel: kernel, chirpEnergy: energy}
}

// ChirpLen returns the chirp length in samples.
func (s *Sync) ChirpLen() int { return len(s.chirp) }

// Detect searches buf for the sync chirp. On success it returns the
// sample index of the first header symbol sample (the chirp start plus
// the chirp and guard lengths) and true; otherwise (0, false).
func (s *Sync) Detect(buf []float64) (frameStart int, ok bool) {
	n := len(s.chirp)
	if len(buf) < n {
		return 0, false
	}

	var corr []float64
	if len(buf) > overlapSaveThreshold*n {
		corr = s.fftCorrelate(buf)
	} else {
		corr = s.directCorrelate(buf)
	}

	bestIdx, bestVal := -1, 0.0
	for i, c := range corr {
		if c > bestVal {
			bestVal, bestIdx = c, i
		}
	}
	if bestIdx < 0 || bestVal <= s.cfg.CorrThreshold {
		return 0, false
	}
	return bestIdx + n + s.cfg.GuardSamples(), true
}

// directCorrelate computes the normalized matched-filter correlation by
// direct time-domain dot products, with the local energy term tracked
// incrementally across the sliding window.
func (s *Sync) directCorrelate(buf []float64) []float64 {
	n := len(s.chirp)
	m := len(buf) - n + 1
	if m <= 0 {
		return nil
	}

	localEnergy := 0.0
	for i := 0; i < n; i++ {
		localEnergy += buf[i] * buf[i]
	}

	corr := make([]float64, m)
	for start := 0; start < m; start++ {
		if start > 0 {
			leaving := buf[start-1]
			entering := buf[start+n-1]
			localEnergy += entering*entering - leaving*leaving
		}
		var dot float64
		for i := 0; i < n; i++ {
			dot += buf[start+i] * s.chirp[i]
		}
		denom := math.Sqrt(localEnergy * s.chirpEnergy)
		if denom > 0 {
			corr[start] = math.Abs(dot) / denom
		}
	}
	return corr
}

// fftCorrelate computes the same normalized correlation as
// directCorrelate via one FFT-domain convolution of the whole buffer
// against the time-reversed chirp kernel, the way ausocean-style
// fastConvolve multiplies zero-padded spectra and takes the real part
// of the inverse transform. The receiver's buffer is bounded, so one
// whole-buffer transform here plays the role overlap-save block
// processing would play on an unbounded stream.
func (s *Sync) fftCorrelate(buf []float64) []float64 {
	n := len(s.chirp)
	m := len(buf) - n + 1
	if m <= 0 {
		return nil
	}
	convLen := len(buf) + n - 1
	padLen := nextPow2(convLen)

	xPad := make([]float64, padLen)
	copy(xPad, buf)
	hPad := make([]float64, padLen)
	copy(hPad, s.kernel)

	xFFT := fft.FFTReal(xPad)
	hFFT := fft.FFTReal(hPad)
	yFFT := make([]complex128, padLen)
	for i := range xFFT {
		yFFT[i] = xFFT[i] * hFFT[i]
	}
	y := fft.IFFT(yFFT)

	localEnergy := slidingEnergy(buf, n)
	corr := make([]float64, m)
	for start := 0; start < m; start++ {
		dot := real(y[start+n-1])
		denom := math.Sqrt(localEnergy[start] * s.chirpEnergy)
		if denom > 0 {
			corr[start] = math.Abs(dot) / denom
		}
	}
	return corr
}

// slidingEnergy returns the moving sum of squares of buf over windows
// of length n, one value per valid window start.
func slidingEnergy(buf []float64, n int) []float64 {
	m := len(buf) - n + 1
	out := make([]float64, m)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += buf[i] * buf[i]
	}
	out[0] = sum
	for start := 1; start < m; start++ {
		leaving := buf[start-1]
		entering := buf[start+n-1]
		sum += entering*entering - leaving*leaving
		out[start] = sum
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
