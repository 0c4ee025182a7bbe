package demoserver

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local demo, no browser origin to police
	},
}

// WSMessage is the envelope broadcast to every connected client.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// JobPayload mirrors the lifecycle of one submitted encode or decode job.
type JobPayload struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"` // "encode" or "decode"
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// WSHub fans job lifecycle events out to every connected browser.
type WSHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

func newWSHub() *WSHub {
	return &WSHub{clients: make(map[*websocket.Conn]bool)}
}

func (h *WSHub) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	log.Printf("demoserver: websocket client connected (%d total)", len(h.clients))
}

func (h *WSHub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
	log.Printf("demoserver: websocket client disconnected (%d remaining)", len(h.clients))
}

func (h *WSHub) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("demoserver: websocket marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("demoserver: websocket write error: %v", err)
			go h.removeClient(conn)
		}
	}
}

func (h *WSHub) broadcastJob(job JobPayload) {
	h.broadcast(WSMessage{Type: "job", Payload: job})
}
