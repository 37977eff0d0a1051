package websocket

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"webforge/internal/logging"
	"webforge/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

// Client is one websocket connection attached to a session.
type Client struct {
	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	UserID    uint
	SessionID string
}

// ServeWS upgrades the request and starts the client pumps. userID comes
// from the auth middleware; sessionID from the URL.
func (h *Hub) ServeWS(c *gin.Context, userID uint, sessionID string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.S().Warnw("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		conn:      conn,
		hub:       h,
		send:      make(chan []byte, sendBuffer),
		UserID:    userID,
		SessionID: sessionID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// enqueue queues one message for this client, dropping it when the buffer
// is full.
func (c *Client) enqueue(msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

// readPump pumps inbound frames from the connection into the chat handler.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.S().Warnw("websocket read error", "session", c.SessionID, "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.enqueue(Message{Type: MessageTypeError, Content: "invalid message format", Timestamp: time.Now()})
			continue
		}
		metrics.Get().WSMessagesTotal.WithLabelValues("in", msg.Type).Inc()

		if msg.Type == MessageTypeChat && msg.Content != "" && c.hub.onChat != nil {
			// Builds run off the read pump so the connection stays live.
			go c.hub.onChat(c.UserID, c.SessionID, msg.Content)
		}
	}
}

// writePump pumps hub messages out to the connection and keeps it alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
