package presence

import (
	"context"
	"sync"
	"testing"

	"github.com/coder/websocket"
)

// fakeConn records payloads written to it.
type fakeConn struct {
	mu     sync.Mutex
	writes [][]byte
}

func (f *fakeConn) Write(_ context.Context, _ websocket.MessageType, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	hub.Register("user-1", "conn-a", "tutor", conn)
	if got := hub.ActiveSessions("user-1"); got != 1 {
		t.Errorf("Expected 1 active session, got %d", got)
	}

	hub.Unregister("user-1", "conn-a")
	if got := hub.ActiveSessions("user-1"); got != 0 {
		t.Errorf("Expected 0 active sessions after unregister, got %d", got)
	}

	// Unregistering an unknown connection is a no-op.
	hub.Unregister("user-1", "conn-a")
	hub.Unregister("ghost", "conn-z")
}

func TestHub_BroadcastExcludesSender(t *testing.T) {
	hub := NewHub()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register("user-1", "conn-a", "tutor", a)
	hub.Register("user-1", "conn-b", "tutor", b)
	hub.Register("user-1", "conn-c", "tutor", c)

	hub.Broadcast(context.Background(), "user-1", "conn-a", []byte(`{"type":"typing"}`))

	if a.count() != 0 {
		t.Errorf("Originating connection must not receive its own event")
	}
	if b.count() != 1 || c.count() != 1 {
		t.Errorf("Sibling connections should each receive the event, got %d and %d", b.count(), c.count())
	}
}

func TestHub_BroadcastIsOwnerScoped(t *testing.T) {
	hub := NewHub()
	mine, theirs := &fakeConn{}, &fakeConn{}
	hub.Register("user-1", "conn-a", "tutor", mine)
	hub.Register("user-2", "conn-b", "tutor", theirs)

	hub.Broadcast(context.Background(), "user-2", "conn-x", []byte("event"))

	if mine.count() != 0 {
		t.Errorf("Events must never cross user boundaries")
	}
	if theirs.count() != 1 {
		t.Errorf("Owner's connection should receive the event")
	}
}

func TestHub_BroadcastWithNoSiblings(t *testing.T) {
	hub := NewHub()
	only := &fakeConn{}
	hub.Register("user-1", "conn-a", "wellbeing", only)

	hub.Broadcast(context.Background(), "user-1", "conn-a", []byte("event"))
	if only.count() != 0 {
		t.Errorf("Sole connection should receive nothing")
	}
}
