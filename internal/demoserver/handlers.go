package demoserver

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jillou35/SonicTag/internal/config"
	"github.com/Jillou35/SonicTag/internal/transceiver"
)

// job tracks one submitted encode or decode request so a client can
// poll its outcome after the synchronous handler has already returned.
type job struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Status   string   `json:"status"`
	Message  string   `json:"message,omitempty"`
	Samples  string   `json:"samples,omitempty"`  // base64 little-endian float32, encode jobs only
	Payloads []string `json:"payloads,omitempty"` // base64 bytes, decode jobs only
}

// Handlers holds the HTTP API handlers for the demo server.
type Handlers struct {
	cfg *config.Config
	tx  *transceiver.Transmitter
	rx  *transceiver.Receiver

	wsHub   *WSHub
	metrics *metrics

	mu   sync.Mutex
	jobs map[string]*job
}

// NewHandlers builds the demo API bound to a single configuration. The
// Receiver is shared across decode requests so a payload split across
// multiple HTTP calls still reassembles correctly.
func NewHandlers(cfg *config.Config, reg prometheus.Registerer) *Handlers {
	return &Handlers{
		cfg:     cfg,
		tx:      transceiver.NewTransmitter(cfg),
		rx:      transceiver.NewReceiver(cfg),
		wsHub:   newWSHub(),
		metrics: newMetrics(reg),
		jobs:    make(map[string]*job),
	}
}

func encodeSamples(samples []float32) string {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeSamples(s string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(buf)%4 != 0 {
		return nil, errOddSampleBuffer
	}
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}

var errOddSampleBuffer = jsonError("demoserver: sample buffer length not a multiple of 4 bytes")

type jsonError string

func (e jsonError) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handlers) putJob(j *job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs[j.ID] = j
}

func (h *Handlers) getJob(id string) (*job, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	j, ok := h.jobs[id]
	return j, ok
}

// HandleEncode accepts {"payload": "<base64>"} and returns the modulated
// sample stream as base64 little-endian float32, alongside a job id the
// caller can later look up via HandleStatus.
func (h *Handlers) HandleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "parse request: "+err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		http.Error(w, "payload is not valid base64", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	h.metrics.payloadBytes.Observe(float64(len(payload)))

	samples, err := h.tx.Encode(payload)
	if err != nil {
		j := &job{ID: id, Kind: "encode", Status: "error", Message: err.Error()}
		h.putJob(j)
		h.wsHub.broadcastJob(JobPayload{ID: id, Kind: "encode", Status: "error", Message: err.Error()})
		writeJSON(w, http.StatusUnprocessableEntity, j)
		return
	}

	h.metrics.framesEncoded.Inc()
	j := &job{ID: id, Kind: "encode", Status: "done", Samples: encodeSamples(samples)}
	h.putJob(j)
	h.wsHub.broadcastJob(JobPayload{ID: id, Kind: "encode", Status: "done"})
	writeJSON(w, http.StatusOK, j)
}

// HandleDecode accepts {"samples": "<base64 float32le>"} and feeds them
// into the shared Receiver, returning every payload completed by this
// call. Submit successive chunks of one stream across multiple calls to
// exercise the Receiver's streaming behavior over HTTP.
func (h *Handlers) HandleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Samples string `json:"samples"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "parse request: "+err.Error(), http.StatusBadRequest)
		return
	}

	samples, err := decodeSamples(req.Samples)
	if err != nil {
		http.Error(w, "samples are not valid base64 float32le", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	start := time.Now()

	h.mu.Lock()
	payloads := h.rx.Push(samples)
	lastErr := h.rx.LastError()
	h.mu.Unlock()

	h.metrics.chirpToDecode.Observe(time.Since(start).Seconds())

	encoded := make([]string, len(payloads))
	for i, p := range payloads {
		encoded[i] = base64.StdEncoding.EncodeToString(p)
	}

	status := "no-frame"
	if len(payloads) > 0 {
		status = "done"
		h.metrics.framesDecoded.Add(float64(len(payloads)))
	} else if lastErr.String() != "None" {
		status = "resync"
		h.metrics.decodeErrors.WithLabelValues(lastErr.String()).Inc()
	}

	j := &job{ID: id, Kind: "decode", Status: status, Payloads: encoded}
	if status == "resync" {
		j.Message = lastErr.String()
	}
	h.putJob(j)
	h.wsHub.broadcastJob(JobPayload{ID: id, Kind: "decode", Status: status, Message: j.Message})
	writeJSON(w, http.StatusOK, j)
}

// HandleStatus returns a previously submitted job by id.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request, id string) {
	j, ok := h.getJob(id)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// HandleReset clears the shared Receiver's rolling buffer and state.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.mu.Lock()
	h.rx.Reset()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// HandleWebSocket upgrades to a websocket broadcasting job lifecycle events.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.wsHub.addClient(conn)
	go func() {
		defer h.wsHub.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
