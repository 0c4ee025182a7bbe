package modem

import (
	"encoding/binary"
	"fmt"

	"github.com/Jillou35/SonicTag/internal/config"
	"github.com/Jillou35/SonicTag/internal/fec"
)

// headerRSNsym is the mini Reed-Solomon parity used to protect the
// header's 16-bit symbol count; small and fixed regardless of the
// payload's own RS parity.
const headerRSNsym = 4

// headerCodec protects the header's 2-byte payload against bit errors
// landing on the header symbol, independent of the data RS codec.
var headerCodec = fec.NewRSCodec(headerRSNsym)

// referenceSpectrum returns the virtual all-phase-zero spectrum used as
// the header symbol's implicit reference: every active bin (pilot and
// data alike) at phase 0, magnitude 1. The header is absolute BPSK, which
// is exactly differential BPSK measured against this constant reference.
func referenceSpectrum(cfg *config.Config) []complex128 {
	ref := make([]complex128, cfg.FFTSize)
	for _, k := range cfg.ActiveBins() {
		ref[k] = complex(1, 0)
	}
	return ref
}

// EncodeHeaderSymbol builds the time-domain header symbol (cyclic prefix
// included) announcing payloadLen (the payload's length in bytes, before
// the LEN field, CRC-32 and RS parity are added), and returns the per-data-bin absolute bits it
// carries (needed to seed the payload Modulator's differential phase
// state). payloadLen is carried here, independently RS-protected by
// headerCodec, rather than read back from the data symbols themselves:
// the data block's own LEN byte sits inside the payload RS codeword and
// is not trustworthy until after that codeword is fully decoded, so it
// cannot also be used to size the slice handed to that decode.
func EncodeHeaderSymbol(cfg *config.Config, payloadLen int) (samples []float64, headerBits []byte, err error) {
	if payloadLen < 0 || payloadLen > 0xFFFF {
		return nil, nil, fmt.Errorf("modem: payloadLen %d out of range", payloadLen)
	}
	count := make([]byte, 2)
	binary.BigEndian.PutUint16(count, uint16(payloadLen))

	parity, err := headerCodec.Encode(count)
	if err != nil {
		return nil, nil, fmt.Errorf("modem: header RS encode: %w", err)
	}
	raw := append(append([]byte{}, count...), parity...)
	bits := BytesToBits(raw)

	bitsPerSymbol := cfg.BitsPerSymbol()
	if len(bits) > bitsPerSymbol {
		return nil, nil, fmt.Errorf("modem: header needs %d bits, symbol carries only %d", len(bits), bitsPerSymbol)
	}
	headerBits = make([]byte, bitsPerSymbol)
	copy(headerBits, bits)

	spectrum := make([]complex128, cfg.FFTSize)
	for _, k := range cfg.PilotBins() {
		spectrum[k] = complex(1, 0)
	}
	for i, k := range cfg.DataBins() {
		spectrum[k] = bitComplex(headerBits[i])
	}
	applyHermitianSymmetry(spectrum)
	timeDomain := RealIFFT(spectrum)
	withCP := addCyclicPrefix(timeDomain, cfg.CPLen)
	normalizeAmplitude(withCP, symbolAmplitude)

	return withCP, headerBits, nil
}

// DecodeHeaderSymbol recovers payloadLen from a received header symbol's
// samples (cyclic prefix included), along with its FFT spectrum (the
// payload Demodulator's differential reference) and the raw per-data-bin
// bits (the payload Modulator's phase seed, for a loopback encoder that
// also wants to demodulate its own frame). payloadLen is corrected by
// headerCodec before it is ever used to size a slice, so it stays valid
// even when the data block downstream has corrupted bytes of its own.
func DecodeHeaderSymbol(cfg *config.Config, samples []float64) (payloadLen int, spectrum []complex128, headerBits []byte, err error) {
	if len(samples) != cfg.SymbolLen() {
		return 0, nil, nil, fmt.Errorf("modem: got %d samples, want %d", len(samples), cfg.SymbolLen())
	}
	withoutCP := removeCyclicPrefix(samples, cfg.CPLen)
	spectrum = ForwardFFT(withoutCP)

	ref := referenceSpectrum(cfg)
	offset := PilotPhaseOffset(cfg, spectrum, ref)

	dataBins := cfg.DataBins()
	bits := make([]byte, len(dataBins))
	for i, k := range dataBins {
		delta := wrapPhase(deltaPhase(spectrum[k], ref[k]) - offset)
		bits[i] = sliceBit(delta)
	}

	headerCodeword := 2 + headerRSNsym
	if len(bits) < headerCodeword*8 {
		return 0, spectrum, bits, fmt.Errorf("modem: %w", fec.ErrBadLength)
	}
	raw := BitsToBytes(bits[:headerCodeword*8])

	decoded, _, err := headerCodec.Decode(raw)
	if err != nil {
		return 0, spectrum, bits, fmt.Errorf("modem: header RS decode: %w", err)
	}
	payloadLen = int(binary.BigEndian.Uint16(decoded))
	return payloadLen, spectrum, bits, nil
}
