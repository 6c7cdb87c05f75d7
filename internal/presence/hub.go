// Package presence relays ephemeral typing indicators between a user's
// live WebSocket connections. Nothing here is persisted.
package presence

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// sender is the subset of *websocket.Conn the hub needs for fan-out.
type sender interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
}

type session struct {
	mu     sync.Mutex
	conn   sender
	aiType string
}

func (s *session) send(ctx context.Context, payload []byte) error {
	// One writer at a time per connection.
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Write(ctx, websocket.MessageText, payload)
}

// Hub tracks authenticated presence sessions grouped by user.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[string]*session
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]map[string]*session),
	}
}

// Register binds a connection to a user after the auth handshake.
func (h *Hub) Register(userID, connID, aiType string, conn sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[userID]; !exists {
		h.active[userID] = make(map[string]*session)
	}
	h.active[userID][connID] = &session{conn: conn, aiType: aiType}
	slog.Info("Presence session registered", "user_id", userID, "conn_id", connID)
}

// Unregister removes a connection. Safe to call for connections that never
// authenticated or were already removed.
func (h *Hub) Unregister(userID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessions, ok := h.active[userID]; ok {
		if _, exists := sessions[connID]; exists {
			delete(sessions, connID)
			if len(sessions) == 0 {
				delete(h.active, userID)
			}
			slog.Info("Presence session unregistered", "user_id", userID, "conn_id", connID)
		}
	}
}

// ActiveSessions returns the number of registered connections for a user.
func (h *Hub) ActiveSessions(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[userID])
}

// Broadcast delivers payload to every connection bound to userID except the
// originating one. It iterates a snapshot so a slow connection never blocks
// registration, and delivery is best-effort.
func (h *Hub) Broadcast(ctx context.Context, userID, originConnID string, payload []byte) {
	h.mu.RLock()
	siblings := make([]*session, 0, len(h.active[userID]))
	for connID, sess := range h.active[userID] {
		if connID == originConnID {
			continue
		}
		siblings = append(siblings, sess)
	}
	h.mu.RUnlock()

	for _, sess := range siblings {
		if err := sess.send(ctx, payload); err != nil {
			slog.Debug("Presence broadcast write failed", "user_id", userID, "error", err)
		}
	}
}
