// Command sonictag-server exposes the SonicTag encoder and decoder over
// HTTP and WebSocket for manual experimentation. It is a peripheral demo,
// not part of the core library's public API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jillou35/SonicTag/internal/config"
	"github.com/Jillou35/SonicTag/internal/demoserver"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:8080", "server address")
	flag.Parse()

	cfg := config.Default()
	srv := demoserver.NewServer(*addr, cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nshutting down...")
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
