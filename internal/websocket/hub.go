// Package websocket carries the chat surface: each build conversation is a
// session, and build progress events stream to every client attached to it.
package websocket

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"webforge/internal/logging"
	"webforge/internal/metrics"
)

// Message types exchanged with the browser.
const (
	MessageTypeChat      = "chat"      // inbound: a user build request
	MessageTypeStatus    = "status"    // outbound: build phase changes
	MessageTypeProgress  = "progress"  // outbound: progress within a build
	MessageTypeCompleted = "completed" // outbound: terminal success or partial
	MessageTypeError     = "error"     // outbound: terminal failure
	MessageTypeJoined    = "joined"    // outbound: session attach ack
)

// Message is the wire format. Content carries human-readable text; Data
// carries structured fields like slug and pass rate.
type Message struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	UserID    uint                   `json:"user_id,omitempty"`
	Content   string                 `json:"content,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ChatFunc handles an inbound chat message. It runs on its own goroutine
// so a slow build never blocks the read pump.
type ChatFunc func(userID uint, sessionID, content string)

// Hub tracks connected clients grouped by session.
type Hub struct {
	sessions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}

	onChat ChatFunc

	mu sync.RWMutex
}

// Strict origin checking; empty origins pass outside production only.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		allowed := []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:3000"}
		if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
			allowed = strings.Split(env, ",")
		}
		for _, a := range allowed {
			if strings.TrimSpace(a) == origin {
				return true
			}
		}
		return origin == "" && os.Getenv("ENVIRONMENT") != "production"
	},
}

// NewHub creates a hub. SetChatHandler must be called before serving.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
	}
}

// SetChatHandler installs the inbound chat callback.
func (h *Hub) SetChatHandler(fn ChatFunc) {
	h.onChat = fn
}

// Run is the hub main loop. Call it on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdown:
			h.mu.Lock()
			for _, clients := range h.sessions {
				for client := range clients {
					close(client.send)
				}
			}
			h.sessions = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			logging.S().Info("websocket hub shutdown complete")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Shutdown stops the hub loop and disconnects every client.
func (h *Hub) Shutdown() {
	close(h.shutdown)
}

// Notify implements the builder's progress sink: one event fanned out to
// every client attached to the session.
func (h *Hub) Notify(sessionID, msgType, content string, data map[string]interface{}) {
	h.broadcast(sessionID, Message{
		Type:      msgType,
		SessionID: sessionID,
		Content:   content,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	if h.sessions[client.SessionID] == nil {
		h.sessions[client.SessionID] = make(map[*Client]bool)
	}
	h.sessions[client.SessionID][client] = true
	h.mu.Unlock()

	metrics.Get().WSConnectionsGauge.Inc()
	logging.S().Infow("websocket client joined", "session", client.SessionID, "user", client.UserID)

	client.enqueue(Message{
		Type:      MessageTypeJoined,
		SessionID: client.SessionID,
		Content:   "Connected. Describe the website you want to build.",
		Timestamp: time.Now(),
	})
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if clients := h.sessions[client.SessionID]; clients != nil {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.sessions, client.SessionID)
			}
		}
	}
	h.mu.Unlock()

	metrics.Get().WSConnectionsGauge.Dec()
	logging.S().Infow("websocket client left", "session", client.SessionID, "user", client.UserID)
}

// broadcast sends a message to every client of a session. A client whose
// buffer is full is dropped rather than letting it stall the rest.
func (h *Hub) broadcast(sessionID string, msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		logging.S().Errorw("failed to marshal websocket message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.sessions[sessionID] {
		select {
		case client.send <- raw:
			metrics.Get().WSMessagesTotal.WithLabelValues("out", msg.Type).Inc()
		default:
			close(client.send)
			delete(h.sessions[sessionID], client)
		}
	}
}
