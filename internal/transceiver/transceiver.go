// Package transceiver implements the end-to-end SonicTag pipeline:
// encoding a payload into one audio frame, and decoding a continuous
// sample stream back into zero or more payloads.
package transceiver

import (
	"fmt"

	"github.com/Jillou35/SonicTag/internal/config"
	"github.com/Jillou35/SonicTag/internal/fec"
	"github.com/Jillou35/SonicTag/internal/modem"
)

// Transmitter is a stateless, pure function of (config, payload): it
// holds no state across calls to Encode and may be shared concurrently.
type Transmitter struct {
	cfg         *config.Config
	dataHandler *fec.DataHandler
	chirp       []float64
}

// NewTransmitter builds a Transmitter for cfg, generating its chirp
// once for reuse across every Encode call.
func NewTransmitter(cfg *config.Config) *Transmitter {
	return &Transmitter{
		cfg:         cfg,
		dataHandler: fec.NewDataHandler(cfg.RSNsym),
		chirp:       modem.GenerateChirp(cfg),
	}
}

// MaxPayload returns the largest payload this Transmitter accepts.
func (t *Transmitter) MaxPayload() int { return t.dataHandler.MaxPayload() }

// Encode produces one complete audio frame at cfg.SampleRate: chirp,
// silence guard, header symbol, then the data symbols carrying payload.
// Returned samples are in [-1, 1].
func (t *Transmitter) Encode(payload []byte) ([]float32, error) {
	packet, err := t.dataHandler.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("transceiver: %w", err)
	}

	bitsPerSymbol := t.cfg.BitsPerSymbol()
	numSymbols := t.cfg.SymbolsForBytes(len(packet))
	bits := modem.BytesToBits(packet)
	if pad := numSymbols*bitsPerSymbol - len(bits); pad > 0 {
		bits = append(bits, make([]byte, pad)...)
	}

	headerSamples, headerBits, err := modem.EncodeHeaderSymbol(t.cfg, len(payload))
	if err != nil {
		return nil, fmt.Errorf("transceiver: %w", err)
	}

	frameLen := t.cfg.ChirpSamples() + t.cfg.GuardSamples() + t.cfg.SymbolLen()*(1+numSymbols)
	frame := make([]float64, 0, frameLen)
	frame = append(frame, t.chirp...)
	frame = append(frame, make([]float64, t.cfg.GuardSamples())...)
	frame = append(frame, headerSamples...)

	mod := modem.NewModulator(t.cfg, headerBits)
	for s := 0; s < numSymbols; s++ {
		symBits := bits[s*bitsPerSymbol : (s+1)*bitsPerSymbol]
		samples, err := mod.ModulateSymbol(symBits)
		if err != nil {
			return nil, fmt.Errorf("transceiver: %w", err)
		}
		frame = append(frame, samples...)
	}

	out := make([]float32, len(frame))
	for i, v := range frame {
		out[i] = float32(v)
	}
	return out, nil
}
