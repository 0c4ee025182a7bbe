package modem

import "math"

// targetRMS is the RMS level Conditioner's AGC stage drives the stream
// toward.
const targetRMS = 0.3

const (
	dcAlpha  = 0.999
	rmsAlpha = 0.999

	// maxGain caps AGC makeup gain during near-silence (leading guard,
	// inter-frame gaps), where an unclamped targetRMS/rms would otherwise
	// spike toward infinity as rms approaches zero.
	maxGain = 20.0
)

// Conditioner removes DC bias and normalizes gain on a continuously
// appended sample stream before it ever reaches Sync.Detect, the way a
// live microphone feed needs conditioning a synthetic test buffer
// doesn't. Its high-pass and RMS estimators are exponential moving
// averages carried across calls, so a stream fed through Process in
// arbitrarily small chunks conditions identically to one fed whole;
// DC removal and AGC don't change any phase relationship the
// differential-BPSK demodulator relies on, since both stages scale or
// shift all active-band samples uniformly.
type Conditioner struct {
	dc          float64
	rmsEstimate float64
	started     bool
}

// NewConditioner returns a Conditioner ready to process a fresh stream.
func NewConditioner() *Conditioner {
	return &Conditioner{rmsEstimate: targetRMS * targetRMS}
}

// Process high-pass filters then gain-normalizes samples, in order,
// returning a new slice the same length as samples.
func (c *Conditioner) Process(samples []float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		if !c.started {
			c.dc = s
			c.started = true
		}
		c.dc = dcAlpha*c.dc + (1-dcAlpha)*s
		filtered := s - c.dc

		c.rmsEstimate = rmsAlpha*c.rmsEstimate + (1-rmsAlpha)*filtered*filtered
		gain := maxGain
		if rms := math.Sqrt(c.rmsEstimate); rms > targetRMS/maxGain {
			gain = targetRMS / rms
		}
		out[i] = filtered * gain
	}
	return out
}
