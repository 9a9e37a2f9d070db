package services

import (
	"context"
	"encoding/json"
	"log/slog"

	ws "github.com/prepwise/backend/websocket"
)

// WebSocketHandler routes discussion websocket traffic: incoming "speak"
// frames go through the orchestrator, and the resulting persona turns are
// streamed back over the same connection.
type WebSocketHandler struct {
	discussions *DiscussionService
}

func NewWebSocketHandler(discussions *DiscussionService) *WebSocketHandler {
	return &WebSocketHandler{discussions: discussions}
}

// HandleWebSocketMessage processes one incoming frame from a client.
func (h *WebSocketHandler) HandleWebSocketMessage(client *ws.Client, messageBytes []byte) {
	var msg ws.Message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		slog.Error("Failed to unmarshal WebSocket message", "error", err)
		return
	}

	switch msg.Type {
	case "speak":
		h.handleSpeak(client, msg)
	default:
		slog.Warn("Unknown WebSocket message type", "type", msg.Type, "gd_id", client.SessionID)
		client.SendJSON(ws.Message{Type: "error", Content: "unknown message type"})
	}
}

func (h *WebSocketHandler) handleSpeak(client *ws.Client, msg ws.Message) {
	resp, err := h.discussions.Speak(context.Background(), client.UserID, client.SessionID, msg.Content, msg.Interrupting)
	if err != nil {
		slog.Warn("WebSocket speak rejected", "gd_id", client.SessionID, "error", err)
		client.SendJSON(ws.Message{Type: "error", SessionID: client.SessionID, Content: err.Error()})
		return
	}

	// Persona turns were already broadcast individually through the hub
	// notifier; send the aggregate back to the speaker as an ack.
	client.SendJSON(map[string]interface{}{
		"type":       "responses",
		"gd_id":      resp.DiscussionID,
		"responses":  resp.Responses,
		"turn_count": resp.TurnCount,
	})
}
