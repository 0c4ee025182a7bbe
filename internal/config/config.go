// Package config holds the immutable, read-only-after-construction
// parameters that size every other package: FFT/OFDM geometry, the
// active ultrasonic band, pilot density, Reed-Solomon parity and the
// sync chirp. A Config is built once via New and never mutated; the
// same value can be shared by a Transmitter and any number of independent
// Receivers.
package config

import "fmt"

// Config is the immutable configuration for one SonicTag link. Build it
// with New or Default; there is no way to mutate a Config after
// construction, so a Transmitter and any number of independent Receivers
// can safely share one value with no locking.
type Config struct {
	SampleRate    int     // Hz
	FFTSize       int     // N, power of two
	CPLen         int     // cyclic prefix length in samples
	BandLow       float64 // Hz
	BandHigh      float64 // Hz
	PilotSpacing  int     // every P-th active bin is a pilot
	RSNsym        int     // Reed-Solomon parity bytes
	ChirpDuration float64 // seconds
	CorrThreshold float64 // normalized matched-filter peak threshold

	// Derived, computed once in New.
	activeBinLow  int
	activeBinHigh int
	activeBins    []int
	pilotBins     map[int]bool
	dataBins      []int
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithSampleRate overrides the sample rate (Hz).
func WithSampleRate(hz int) Option { return func(c *Config) { c.SampleRate = hz } }

// WithFFTSize overrides the FFT size (must be a power of two).
func WithFFTSize(n int) Option { return func(c *Config) { c.FFTSize = n } }

// WithCPLen overrides the cyclic prefix length in samples.
func WithCPLen(n int) Option { return func(c *Config) { c.CPLen = n } }

// WithBand overrides the active ultrasonic band, in Hz.
func WithBand(low, high float64) Option {
	return func(c *Config) { c.BandLow, c.BandHigh = low, high }
}

// WithPilotSpacing overrides the pilot density (every P-th active bin).
func WithPilotSpacing(p int) Option { return func(c *Config) { c.PilotSpacing = p } }

// WithRSNsym overrides the Reed-Solomon parity byte count.
func WithRSNsym(n int) Option { return func(c *Config) { c.RSNsym = n } }

// WithChirpDuration overrides the sync chirp duration in seconds.
func WithChirpDuration(s float64) Option { return func(c *Config) { c.ChirpDuration = s } }

// WithCorrThreshold overrides the matched-filter detection threshold.
func WithCorrThreshold(t float64) Option { return func(c *Config) { c.CorrThreshold = t } }

// Default returns the spec's default configuration.
func Default() *Config {
	c, err := New()
	if err != nil {
		// Defaults are constants chosen to be internally consistent;
		// a construction failure here is a programming error.
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return c
}

// New builds a Config from the spec defaults plus any Options, validates
// it, and precomputes the active/pilot/data bin layout.
func New(opts ...Option) (*Config, error) {
	c := &Config{
		SampleRate:    48000,
		FFTSize:       1024,
		CPLen:         256,
		BandLow:       17500,
		BandHigh:      20500,
		PilotSpacing:  4,
		RSNsym:        16,
		ChirpDuration: 0.05,
		CorrThreshold: 0.5,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.deriveLayout()
	return c, nil
}

func (c *Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("config: sample rate must be positive, got %d", c.SampleRate)
	}
	if c.FFTSize <= 0 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("config: fft size must be a power of two, got %d", c.FFTSize)
	}
	if c.CPLen < 0 || c.CPLen >= c.FFTSize {
		return fmt.Errorf("config: cp_len must be in [0, fft_size), got %d", c.CPLen)
	}
	if c.BandLow <= 0 || c.BandHigh <= c.BandLow {
		return fmt.Errorf("config: invalid band [%v, %v]", c.BandLow, c.BandHigh)
	}
	if c.BandHigh > float64(c.SampleRate)/2 {
		return fmt.Errorf("config: band_high %v exceeds Nyquist %v", c.BandHigh, float64(c.SampleRate)/2)
	}
	if c.PilotSpacing < 2 {
		return fmt.Errorf("config: pilot_spacing must be >= 2, got %d", c.PilotSpacing)
	}
	if c.RSNsym <= 0 || c.RSNsym%2 != 0 {
		return fmt.Errorf("config: rs_nsym must be a positive even number, got %d", c.RSNsym)
	}
	if c.ChirpDuration <= 0 {
		return fmt.Errorf("config: chirp_duration must be positive, got %v", c.ChirpDuration)
	}
	if c.CorrThreshold <= 0 || c.CorrThreshold >= 1 {
		return fmt.Errorf("config: corr_threshold must be in (0, 1), got %v", c.CorrThreshold)
	}
	maxPayload := 255 - 2 - 4 - c.RSNsym
	if maxPayload < 1 {
		return fmt.Errorf("config: rs_nsym %d leaves no room for any payload", c.RSNsym)
	}
	return nil
}

func (c *Config) deriveLayout() {
	binHz := float64(c.SampleRate) / float64(c.FFTSize)

	low, high := -1, -1
	for k := 1; k < c.FFTSize/2; k++ {
		f := float64(k) * binHz
		if f >= c.BandLow && f <= c.BandHigh {
			if low == -1 {
				low = k
			}
			high = k
		}
	}
	c.activeBinLow, c.activeBinHigh = low, high

	c.pilotBins = make(map[int]bool)
	c.activeBins = make([]int, 0, high-low+1)
	c.dataBins = make([]int, 0, high-low+1)
	for i, k := 0, low; k <= high; i, k = i+1, k+1 {
		c.activeBins = append(c.activeBins, k)
		if i%c.PilotSpacing == 0 {
			c.pilotBins[k] = true
		} else {
			c.dataBins = append(c.dataBins, k)
		}
	}
}

// BinHz returns the frequency spacing between adjacent FFT bins (Hz).
func (c *Config) BinHz() float64 { return float64(c.SampleRate) / float64(c.FFTSize) }

// ActiveBinRange returns the inclusive [low, high] FFT bin indices whose
// center frequency falls in [BandLow, BandHigh].
func (c *Config) ActiveBinRange() (low, high int) { return c.activeBinLow, c.activeBinHigh }

// ActiveBins returns the ordered set of active FFT bins (data + pilot).
func (c *Config) ActiveBins() []int {
	out := make([]int, len(c.activeBins))
	copy(out, c.activeBins)
	return out
}

// DataBins returns the ordered set of active bins carrying data (pilots
// excluded), in increasing bin order — this fixes the bit-to-bin mapping
// both the modulator and demodulator must agree on.
func (c *Config) DataBins() []int {
	out := make([]int, len(c.dataBins))
	copy(out, c.dataBins)
	return out
}

// IsPilot reports whether FFT bin k is a pilot bin.
func (c *Config) IsPilot(k int) bool { return c.pilotBins[k] }

// PilotBins returns the ordered set of active bins used as pilots.
func (c *Config) PilotBins() []int {
	out := make([]int, 0, len(c.pilotBins))
	for _, k := range c.activeBins {
		if c.pilotBins[k] {
			out = append(out, k)
		}
	}
	return out
}

// BitsPerSymbol returns the data bits carried per OFDM symbol (one
// differential-BPSK bit per data bin).
func (c *Config) BitsPerSymbol() int { return len(c.dataBins) }

// SymbolLen returns the time-domain length of one OFDM symbol, including
// its cyclic prefix.
func (c *Config) SymbolLen() int { return c.FFTSize + c.CPLen }

// ChirpSamples returns the chirp length in samples.
func (c *Config) ChirpSamples() int { return int(c.ChirpDuration * float64(c.SampleRate)) }

// GuardSamples returns the silence guard length in samples (0.01s).
func (c *Config) GuardSamples() int { return int(0.01 * float64(c.SampleRate)) }

// MaxPayload returns the largest payload, in bytes, that fits in one RS
// block (the RS block itself must not exceed 255 bytes).
func (c *Config) MaxPayload() int { return 255 - 2 - 4 - c.RSNsym }

// MaxRSBlockLen returns the RS block length (2 + payload + 4 + RSNsym)
// for the largest payload this Config accepts.
func (c *Config) MaxRSBlockLen() int { return 2 + c.MaxPayload() + 4 + c.RSNsym }

// RSBlockLen returns the total RS-protected block length, in bytes, for
// a payload of payloadLen bytes: 2-byte LEN, the payload itself, a
// 4-byte CRC32, and RSNsym parity bytes.
func (c *Config) RSBlockLen(payloadLen int) int { return 2 + payloadLen + 4 + c.RSNsym }

// SymbolsForBytes returns the number of OFDM data symbols needed to
// carry n bytes, rounding up to a whole symbol.
func (c *Config) SymbolsForBytes(n int) int {
	bitsPerSymbol := c.BitsPerSymbol()
	return (n*8 + bitsPerSymbol - 1) / bitsPerSymbol
}
