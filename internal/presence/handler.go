package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/studymind/studymind/internal/identity"
)

// frame is the wire format for presence events, client and server side.
type frame struct {
	Type     string `json:"type"`
	UserID   string `json:"userId,omitempty"`
	AIType   string `json:"aiType,omitempty"`
	IsTyping bool   `json:"isTyping,omitempty"`
}

// Handler upgrades presence connections and runs their read loop.
type Handler struct {
	hub           *Hub
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a new presence WebSocket handler.
func NewHandler(hub *Hub, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		hub:           hub,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// conn tracks the per-connection state machine: connected (unauthenticated)
// until an auth frame arrives, then authenticated until close. Nothing
// survives a disconnect; a client re-authenticates from scratch.
type conn struct {
	hub    *Hub
	ws     sender
	connID string
	userID string
	authed bool
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	slog.Info("Presence connection request", "user_id", userID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	c := &conn{
		hub:    h.hub,
		ws:     ws,
		connID: uuid.NewString(),
		userID: userID,
	}
	defer func() {
		if c.authed {
			h.hub.Unregister(c.userID, c.connID)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Debug("WebSocket read ended", "error", err, "user_id", userID)
			}
			return
		}
		c.handleFrame(ctx, message)
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

// handleFrame dispatches one inbound frame. Typing indicators are
// best-effort: a malformed frame is logged and ignored, never fatal to the
// connection.
func (c *conn) handleFrame(ctx context.Context, message []byte) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		slog.Warn("Malformed presence frame ignored", "user_id", c.userID, "error", err)
		return
	}

	switch f.Type {
	case "auth":
		// The connection identity comes from the authenticated HTTP session,
		// not from the frame. A disagreeing client-asserted userId loses.
		if f.UserID != "" && f.UserID != c.userID {
			slog.Warn("Presence auth userId mismatch, using session identity",
				"user_id", c.userID, "claimed", f.UserID)
		}
		if c.authed {
			return
		}
		c.authed = true
		c.hub.Register(c.userID, c.connID, f.AIType, c.ws)
	case "typing":
		if !c.authed {
			slog.Debug("Typing frame before auth ignored", "user_id", c.userID)
			return
		}
		payload, err := json.Marshal(frame{
			Type:     "typing",
			IsTyping: f.IsTyping,
			AIType:   f.AIType,
		})
		if err != nil {
			slog.Warn("Failed to encode typing frame", "error", err)
			return
		}
		c.hub.Broadcast(ctx, c.userID, c.connID, payload)
	default:
		slog.Debug("Unknown presence frame type ignored", "type", f.Type, "user_id", c.userID)
	}
}
