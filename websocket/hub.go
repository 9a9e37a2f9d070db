package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub tracks connected clients grouped by the discussion session they are
// watching, so persona turns can be pushed to everyone on that session.
type Hub struct {
	clients    map[*Client]bool
	sessions   map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	Hub            *Hub
	Conn           *websocket.Conn
	Send           chan []byte
	UserID         string
	SessionID      string
	MessageHandler func(*Client, []byte)
}

// Message is the envelope exchanged over a discussion websocket.
type Message struct {
	Type         string `json:"type"` // "speak", "turn", "error"
	SessionID    string `json:"gd_id,omitempty"`
	Content      string `json:"message,omitempty"`
	Interrupting bool   `json:"interrupting,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if client.SessionID != "" {
				if h.sessions[client.SessionID] == nil {
					h.sessions[client.SessionID] = make(map[*Client]bool)
				}
				h.sessions[client.SessionID][client] = true
			}
			h.mu.Unlock()
			slog.Info("Client registered", "user_id", client.UserID, "gd_id", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if group, ok := h.sessions[client.SessionID]; ok {
					delete(group, client)
					if len(group) == 0 {
						delete(h.sessions, client.SessionID)
					}
				}
				close(client.Send)
			}
			h.mu.Unlock()
			slog.Info("Client unregistered", "user_id", client.UserID, "gd_id", client.SessionID)
		}
	}
}

// BroadcastToSession pushes a payload to every client watching a session.
// Clients that cannot keep up are dropped.
func (h *Hub) BroadcastToSession(sessionID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions[sessionID] {
		select {
		case client.Send <- payload:
		default:
			close(client.Send)
			delete(h.clients, client)
			delete(h.sessions[sessionID], client)
		}
	}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, userID, sessionID string) *Client {
	client := &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		UserID:    userID,
		SessionID: sessionID,
	}

	h.register <- client
	return client
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(1024 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			slog.Error("Failed to unmarshal message", "error", err)
			continue
		}

		slog.Info("Message received", "type", msg.Type, "gd_id", c.SessionID, "content_length", len(msg.Content))

		if c.MessageHandler != nil {
			// Run message handler asynchronously to avoid blocking
			go c.MessageHandler(c, messageBytes)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON marshals and queues a payload for this client.
func (c *Client) SendJSON(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal websocket payload", "error", err)
		return
	}
	c.Send <- data
}
