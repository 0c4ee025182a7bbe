package modem

import (
	"github.com/mjibson/go-dsp/fft"
)

// RealIFFT inverse-transforms a complex spectrum (length a power of two)
// and returns the real part of the time-domain result. The imaginary
// residual is discarded by construction: callers are expected to have
// enforced Hermitian symmetry on spectrum beforehand, so it is
// negligible floating-point noise.
func RealIFFT(spectrum []complex128) []float64 {
	td := fft.IFFT(spectrum)
	out := make([]float64, len(td))
	for i, v := range td {
		out[i] = real(v)
	}
	return out
}

// ForwardFFT transforms real time-domain samples into the frequency
// domain.
func ForwardFFT(samples []float64) []complex128 {
	return fft.FFTReal(samples)
}
