package modem

import (
	"math"
	"math/cmplx"
)

// deltaPhase returns the phase of curr relative to prev, wrapped to
// (-pi, pi]. This is the raw differential-BPSK observable: a receiver
// compares one OFDM symbol's bin against the same bin in the previous
// symbol rather than against an absolute reference.
func deltaPhase(curr, prev complex128) float64 {
	return wrapPhase(cmplx.Phase(curr * cmplx.Conj(prev)))
}

// wrapPhase normalizes an angle in radians to (-pi, pi].
func wrapPhase(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// sliceBit recovers a differential-BPSK bit from a (phase-corrected)
// delta phase: close to 0 is a 0 bit, close to +-pi is a 1 bit.
func sliceBit(delta float64) byte {
	if math.Abs(delta) < math.Pi/2 {
		return 0
	}
	return 1
}

// bitComplex maps a bit to the carrier value differential and absolute
// BPSK alike place on a bin: +1 for a 0 bit, -1 for a 1 bit.
func bitComplex(bit byte) complex128 {
	if bit != 0 {
		return complex(-1, 0)
	}
	return complex(1, 0)
}
