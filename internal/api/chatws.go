package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// chatClientMessage is what the UI sends over the chat socket.
type chatClientMessage struct {
	Persona string `json:"persona"`
	Message string `json:"message"`
}

// chatServerMessage is what the server streams back. Type is one of
// "chunk", "done" or "error".
type chatServerMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleChatSocket upgrades to a WebSocket and streams persona chat
// responses chunk by chunk. The session ID comes from the "session" query
// parameter; each incoming message carries the persona and the user text.
func (h *Handler) HandleChatSocket(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if h.sessions.Get(id) == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept chat WebSocket", "error", err, "session_id", id)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("failed to close chat websocket", "error", closeErr, "session_id", id)
		}
	}()

	slog.Info("chat socket opened", "session_id", id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, raw, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("chat socket closed by client", "session_id", id)
			} else {
				slog.Warn("chat socket read error", "error", err, "session_id", id)
			}
			return
		}

		var msg chatClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.writeChatMessage(ctx, ws, chatServerMessage{Type: "error", Error: "invalid message"})
			continue
		}

		stream, err := h.coach.PersonaChat(ctx, id, msg.Persona, msg.Message)
		if err != nil {
			h.writeChatMessage(ctx, ws, chatServerMessage{Type: "error", Error: err.Error()})
			continue
		}

		failed := false
		for chunk, err := range stream {
			if err != nil {
				failed = true
				h.writeChatMessage(ctx, ws, chatServerMessage{Type: "error", Error: "the AI service could not complete the request"})
				break
			}
			if !h.writeChatMessage(ctx, ws, chatServerMessage{Type: "chunk", Content: chunk}) {
				return
			}
		}
		if !failed {
			h.writeChatMessage(ctx, ws, chatServerMessage{Type: "done"})
		}
	}
}

func (h *Handler) writeChatMessage(ctx context.Context, ws *websocket.Conn, msg chatServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("failed to marshal chat message", "error", err)
		return false
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("chat socket write error", "error", err)
		return false
	}
	return true
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.cfg.IsDevelopment() {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || origin == h.cfg.FrontendURL {
		return true
	}
	slog.Warn("chat socket origin rejected", "origin", origin, "allowed", h.cfg.FrontendURL)
	return false
}
