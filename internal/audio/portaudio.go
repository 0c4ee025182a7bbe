package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const NumChannels = 1

// Init initializes the PortAudio runtime. Call once at process startup.
func Init() error { return portaudio.Initialize() }

// Terminate releases the PortAudio runtime.
func Terminate() error { return portaudio.Terminate() }

// IO wraps a half-duplex PortAudio input and output stream pair. Unlike
// a file-transfer modem, SonicTag callers size the buffer to one OFDM
// symbol (cfg.SymbolLen()) so reads and writes line up with the
// transceiver's symbol boundaries; the buffer size is a constructor
// argument rather than a package constant for that reason.
type IO struct {
	sampleRate float64
	frameSize  int

	inputStream  *portaudio.Stream
	outputStream *portaudio.Stream
	inputBuf     []float32
	outputBuf    []float32
	mu           sync.Mutex
}

// NewIO builds an IO sized to frameSize samples per PortAudio callback.
func NewIO(sampleRate, frameSize int) *IO {
	return &IO{
		sampleRate: float64(sampleRate),
		frameSize:  frameSize,
		inputBuf:   make([]float32, frameSize),
		outputBuf:  make([]float32, frameSize),
	}
}

// OpenInput opens the default input stream.
func (a *IO) OpenInput() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stream, err := portaudio.OpenDefaultStream(NumChannels, 0, a.sampleRate, a.frameSize, a.inputBuf)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	a.inputStream = stream
	return nil
}

// OpenOutput opens the default output stream.
func (a *IO) OpenOutput() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stream, err := portaudio.OpenDefaultStream(0, NumChannels, a.sampleRate, a.frameSize, a.outputBuf)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	a.outputStream = stream
	return nil
}

// StartInput starts the input stream.
func (a *IO) StartInput() error {
	if a.inputStream == nil {
		return fmt.Errorf("input stream not opened")
	}
	return a.inputStream.Start()
}

// StartOutput starts the output stream.
func (a *IO) StartOutput() error {
	if a.outputStream == nil {
		return fmt.Errorf("output stream not opened")
	}
	return a.outputStream.Start()
}

// ReadFrame blocks for one callback's worth of microphone samples.
func (a *IO) ReadFrame() ([]float32, error) {
	if a.inputStream == nil {
		return nil, fmt.Errorf("input stream not opened")
	}
	if err := a.inputStream.Read(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	out := make([]float32, len(a.inputBuf))
	copy(out, a.inputBuf)
	return out, nil
}

// WriteFrame blocks until one frameSize chunk reaches the speaker.
func (a *IO) WriteFrame(samples []float32) error {
	if a.outputStream == nil {
		return fmt.Errorf("output stream not opened")
	}
	copy(a.outputBuf, samples)
	return a.outputStream.Write()
}

// WriteSamples writes an arbitrary-length buffer in frameSize chunks,
// zero-padding the final partial chunk.
func (a *IO) WriteSamples(samples []float32) error {
	for i := 0; i < len(samples); i += a.frameSize {
		end := i + a.frameSize
		if end > len(samples) {
			chunk := make([]float32, a.frameSize)
			copy(chunk, samples[i:])
			if err := a.WriteFrame(chunk); err != nil {
				return err
			}
			continue
		}
		if err := a.WriteFrame(samples[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// StopInput stops the input stream, if open.
func (a *IO) StopInput() error {
	if a.inputStream == nil {
		return nil
	}
	return a.inputStream.Stop()
}

// StopOutput stops the output stream, if open.
func (a *IO) StopOutput() error {
	if a.outputStream == nil {
		return nil
	}
	return a.outputStream.Stop()
}

// Close closes both streams.
func (a *IO) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.inputStream != nil {
		if err := a.inputStream.Close(); err != nil {
			errs = append(errs, err)
		}
		a.inputStream = nil
	}
	if a.outputStream != nil {
		if err := a.outputStream.Close(); err != nil {
			errs = append(errs, err)
		}
		a.outputStream = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
