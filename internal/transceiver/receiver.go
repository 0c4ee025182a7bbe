package transceiver

import (
	"errors"

	"github.com/Jillou35/SonicTag/internal/config"
	"github.com/Jillou35/SonicTag/internal/fec"
	"github.com/Jillou35/SonicTag/internal/modem"
)

type receiverState int

const (
	stateSearching receiverState = iota
	stateHeader
	statePayload
)

// Receiver is a stateful decoder over a continuously appended sample
// stream. All methods on one Receiver must be called from a single
// execution context; independent Receivers share no state.
type Receiver struct {
	cfg         *config.Config
	sync        *modem.Sync
	dataHandler *fec.DataHandler
	cond        *modem.Conditioner

	buf   []float64
	state receiverState

	payloadSymbols int
	symbolsDone    int
	blockLen       int // RS block length in bytes, from the header's protected LEN
	demod          *modem.Demodulator
	collectedBits  []byte

	maxFrameSamples int
	maxSymbols      int

	lastError ErrorKind
}

// NewReceiver builds a Receiver for cfg.
func NewReceiver(cfg *config.Config) *Receiver {
	maxSymbols := cfg.SymbolsForBytes(cfg.MaxRSBlockLen())

	r := &Receiver{
		cfg:             cfg,
		sync:            modem.NewSync(cfg),
		dataHandler:     fec.NewDataHandler(cfg.RSNsym),
		maxSymbols:      maxSymbols,
		maxFrameSamples: cfg.ChirpSamples() + cfg.GuardSamples() + cfg.SymbolLen()*(1+maxSymbols),
	}
	r.Reset()
	return r
}

// LastError returns the diagnostic reason the state machine most
// recently resynchronized, or ErrorNone if the last attempt succeeded
// or no frame has been attempted yet.
func (r *Receiver) LastError() ErrorKind { return r.lastError }

// Reset empties the rolling buffer, restarts DC/AGC conditioning, and
// returns to SEARCHING.
func (r *Receiver) Reset() {
	r.buf = r.buf[:0]
	r.state = stateSearching
	r.payloadSymbols = 0
	r.symbolsDone = 0
	r.demod = nil
	r.collectedBits = r.collectedBits[:0]
	r.cond = modem.NewConditioner()
}

// Push conditions (DC removal + AGC) and appends samples to the rolling
// buffer, then returns every payload completed within this call, in the
// order their chirps were detected. It never blocks; partial frames
// remain pending for the next Push.
func (r *Receiver) Push(samples []float32) [][]byte {
	chunk := make([]float64, len(samples))
	for i, s := range samples {
		chunk[i] = float64(s)
	}
	r.buf = append(r.buf, r.cond.Process(chunk)...)

	var out [][]byte
	for {
		progressed, payload := r.step()
		if payload != nil {
			out = append(out, payload)
		}
		if !progressed {
			break
		}
	}
	return out
}

// step attempts one state transition. progressed reports whether the
// buffer or state changed, so Push can keep draining complete frames
// without waiting for more samples.
func (r *Receiver) step() (progressed bool, payload []byte) {
	switch r.state {
	case stateSearching:
		return r.stepSearching()
	case stateHeader:
		return r.stepHeader()
	case statePayload:
		return r.stepPayload()
	default:
		return false, nil
	}
}

func (r *Receiver) stepSearching() (bool, []byte) {
	start, ok := r.sync.Detect(r.buf)
	if ok {
		if start > len(r.buf) {
			// The chirp is in, but the guard that follows it is not:
			// keep everything and wait for more samples.
			return false, nil
		}
		r.buf = r.buf[start:]
		r.state = stateHeader
		return true, nil
	}

	if len(r.buf) > r.maxFrameSamples+r.sync.ChirpLen() {
		drop := r.sync.ChirpLen()
		if drop > len(r.buf) {
			drop = len(r.buf)
		}
		r.buf = r.buf[drop:]
		return true, nil
	}
	return false, nil
}

func (r *Receiver) stepHeader() (bool, []byte) {
	need := r.cfg.SymbolLen()
	if len(r.buf) < need {
		return false, nil
	}

	payloadLen, spectrum, _, err := modem.DecodeHeaderSymbol(r.cfg, r.buf[:need])
	r.buf = r.buf[need:]
	if err != nil || payloadLen > r.cfg.MaxPayload() {
		r.lastError = ErrorHeaderInvalid
		r.state = stateSearching
		return true, nil
	}

	blockLen := r.cfg.RSBlockLen(payloadLen)
	numSymbols := r.cfg.SymbolsForBytes(blockLen)
	if numSymbols > r.maxSymbols {
		r.lastError = ErrorHeaderInvalid
		r.state = stateSearching
		return true, nil
	}

	r.demod = modem.NewDemodulator(r.cfg, spectrum)
	r.payloadSymbols = numSymbols
	r.symbolsDone = 0
	r.blockLen = blockLen
	r.collectedBits = r.collectedBits[:0]
	r.state = statePayload
	return true, nil
}

func (r *Receiver) stepPayload() (bool, []byte) {
	if r.symbolsDone >= r.payloadSymbols {
		return r.finishPayload()
	}

	need := r.cfg.SymbolLen()
	if len(r.buf) < need {
		return false, nil
	}

	bits, err := r.demod.DemodulateSymbol(r.buf[:need])
	r.buf = r.buf[need:]
	if err != nil {
		r.lastError = ErrorTruncated
		r.state = stateSearching
		return true, nil
	}

	r.collectedBits = append(r.collectedBits, bits...)
	r.symbolsDone++
	return true, nil
}

// finishPayload trims the zero-padding symbol boundaries added past the
// RS block and hands the exact block to DataHandler.Decode. The block
// length comes from r.blockLen, derived in stepHeader from the header's
// own RS-protected LEN field rather than read back from these
// (possibly still-corrupted) data bytes: that field sits inside the
// data block's own RS codeword and can't be trusted until that codeword
// is decoded, so it can't also be used to size the slice fed into that
// same decode.
func (r *Receiver) finishPayload() (bool, []byte) {
	r.state = stateSearching

	allBytes := modem.BitsToBytes(r.collectedBits)
	if r.blockLen < 6 || r.blockLen > len(allBytes) {
		r.lastError = ErrorBadLength
		return true, nil
	}

	decoded, err := r.dataHandler.Decode(allBytes[:r.blockLen])
	if err != nil {
		r.lastError = classifyFECError(err)
		return true, nil
	}

	r.lastError = ErrorNone
	return true, decoded
}

func classifyFECError(err error) ErrorKind {
	switch {
	case errors.Is(err, fec.ErrBadLength):
		return ErrorBadLength
	case errors.Is(err, fec.ErrBadCRC):
		return ErrorBadCRC
	default:
		return ErrorUncorrectableErrors
	}
}
