// Command sonictag-loopback sends a payload out the default speaker and
// listens on the default microphone until it decodes a frame back, or a
// timeout elapses. It is a thin PortAudio adapter over the core
// transceiver, not part of the library's public surface.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Jillou35/SonicTag/internal/audio"
	"github.com/Jillou35/SonicTag/internal/config"
	"github.com/Jillou35/SonicTag/internal/transceiver"
)

func main() {
	message := flag.String("send", "", "payload to transmit; if empty, only listens")
	timeout := flag.Duration("timeout", 10*time.Second, "how long to listen for a frame")
	listDevices := flag.Bool("list-devices", false, "list audio devices and exit")
	flag.Parse()

	if err := audio.Init(); err != nil {
		log.Fatalf("init portaudio: %v", err)
	}
	defer audio.Terminate()

	if *listDevices {
		if err := audio.PrintDevices(); err != nil {
			log.Fatalf("list devices: %v", err)
		}
		return
	}

	cfg := config.Default()

	if *message != "" {
		if err := send(cfg, *message); err != nil {
			log.Fatalf("send: %v", err)
		}
	}
	if err := listen(cfg, *timeout); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func send(cfg *config.Config, message string) error {
	tx := transceiver.NewTransmitter(cfg)
	samples, err := tx.Encode([]byte(message))
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	io := audio.NewIO(cfg.SampleRate, cfg.SymbolLen())
	if err := io.OpenOutput(); err != nil {
		return err
	}
	defer io.Close()
	if err := io.StartOutput(); err != nil {
		return err
	}
	defer io.StopOutput()

	fmt.Printf("sending %d bytes as %d samples\n", len(message), len(samples))
	return io.WriteSamples(samples)
}

func listen(cfg *config.Config, timeout time.Duration) error {
	rx := transceiver.NewReceiver(cfg)

	io := audio.NewIO(cfg.SampleRate, cfg.SymbolLen())
	if err := io.OpenInput(); err != nil {
		return err
	}
	defer io.Close()
	if err := io.StartInput(); err != nil {
		return err
	}
	defer io.StopInput()

	fmt.Println("listening...")
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		frame, err := io.ReadFrame()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		for _, payload := range rx.Push(frame) {
			fmt.Printf("received: %q\n", payload)
			return nil
		}
	}
	return fmt.Errorf("timed out after %s without decoding a frame (last error: %s)", timeout, rx.LastError())
}
