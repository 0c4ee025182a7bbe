package demoserver

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jillou35/SonicTag/internal/config"
)

// Server is the HTTP server fronting the demo encode/decode API.
type Server struct {
	mux  *http.ServeMux
	h    *Handlers
	addr string
}

// NewServer wires routes for the given address and configuration.
func NewServer(addr string, cfg *config.Config) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		mux:  http.NewServeMux(),
		h:    NewHandlers(cfg, reg),
		addr: addr,
	}
	s.setupRoutes(reg)
	return s
}

func (s *Server) setupRoutes(reg *prometheus.Registry) {
	s.mux.HandleFunc("/api/encode", s.h.HandleEncode)
	s.mux.HandleFunc("/api/decode", s.h.HandleDecode)
	s.mux.HandleFunc("/api/reset", s.h.HandleReset)
	s.mux.HandleFunc("/api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.h.HandleStatus(w, r, r.PathValue("id"))
	})
	s.mux.HandleFunc("/ws", s.h.HandleWebSocket)
	s.mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	log.Printf("demoserver: listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}
