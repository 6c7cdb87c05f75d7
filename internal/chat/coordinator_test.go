package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/studymind/studymind/internal/ai"
	"github.com/studymind/studymind/internal/domain"
)

// memRepo is an in-memory store.Repository for coordinator tests.
type memRepo struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	messages []*domain.Message
	failNext bool
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]*domain.User)}
}

func (r *memRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID], nil
}

func (r *memRepo) UpsertUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = user
	return nil
}

func (r *memRepo) UpdateUserStats(context.Context, string, domain.StatsUpdate) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (r *memRepo) CreateMessage(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return errors.New("database unavailable")
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *memRepo) ListMessages(_ context.Context, userID string, aiType domain.ConversationType, limit int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	// stored oldest-first; return most-recent-first like the SQLite store
	for i := len(r.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.messages[i]
		if m.UserID == userID && m.AIType == aiType {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) CreateLesson(context.Context, *domain.Lesson) error { return nil }
func (r *memRepo) ListLessons(context.Context, string) ([]*domain.Lesson, error) {
	return nil, nil
}
func (r *memRepo) CreateTest(context.Context, *domain.Test) error { return nil }
func (r *memRepo) ListTests(context.Context, string) ([]*domain.Test, error) {
	return nil, nil
}
func (r *memRepo) CreateMoodEntry(context.Context, *domain.MoodEntry) error { return nil }
func (r *memRepo) ListMoodEntries(context.Context, string) ([]*domain.MoodEntry, error) {
	return nil, nil
}
func (r *memRepo) Ping(context.Context) error { return nil }
func (r *memRepo) Close() error               { return nil }

func (r *memRepo) stored(userID string, aiType domain.ConversationType) []*domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, m := range r.messages {
		if m.UserID == userID && m.AIType == aiType {
			out = append(out, m)
		}
	}
	return out
}

// fakeGateway scripts replies and records the window it was given.
type fakeGateway struct {
	mu         sync.Mutex
	reply      string
	err        error
	gotWindow  []*domain.Message
	gotContent string
	gotPersona domain.Personality
}

func (g *fakeGateway) Generate(_ context.Context, aiType domain.ConversationType, personality domain.Personality, window []*domain.Message, newMessage string) (*ai.Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gotWindow = window
	g.gotContent = newMessage
	g.gotPersona = personality
	if g.err != nil {
		return nil, g.err
	}
	return &ai.Reply{
		Content: g.reply,
		Type:    ai.Classify(aiType, g.reply),
		Metadata: ai.Metadata{
			AIType:      aiType,
			Personality: personality,
			Timestamp:   time.Now(),
		},
	}, nil
}

func (g *fakeGateway) GenerateQuiz(context.Context, string, string) (*domain.QuizDocument, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) GenerateLesson(context.Context, string, string) (*domain.LessonDocument, error) {
	return nil, errors.New("not implemented")
}

func TestSubmitTurn_PersistsBothTurnsInOrder(t *testing.T) {
	repo := newMemRepo()
	gw := &fakeGateway{reply: "Photosynthesis converts light into energy."}
	c := NewCoordinator(repo, gw, 10)

	turn, err := c.SubmitTurn(context.Background(), "user-1", domain.ConversationTutor, "Explain photosynthesis")
	if err != nil {
		t.Fatalf("SubmitTurn failed: %v", err)
	}

	stored := repo.stored("user-1", domain.ConversationTutor)
	if len(stored) != 2 {
		t.Fatalf("Expected 2 persisted turns, got %d", len(stored))
	}
	if stored[0].Sender != domain.SenderUser || stored[1].Sender != domain.SenderAI {
		t.Errorf("Expected user turn then assistant turn, got %v then %v", stored[0].Sender, stored[1].Sender)
	}
	if stored[1].Content != gw.reply {
		t.Errorf("Assistant turn content should equal gateway reply, got %q", stored[1].Content)
	}
	if turn.UserMessage.ID != stored[0].ID || turn.AIMessage.ID != stored[1].ID {
		t.Errorf("Returned turns should match persisted turns")
	}
	// Fresh owner: window sent to the gateway is empty.
	if len(gw.gotWindow) != 0 {
		t.Errorf("Expected empty window for fresh history, got %d entries", len(gw.gotWindow))
	}
}

func TestSubmitTurn_GenerationFailureKeepsUserTurn(t *testing.T) {
	repo := newMemRepo()
	gw := &fakeGateway{err: fmt.Errorf("%w: timeout", ai.ErrGenerationFailed)}
	c := NewCoordinator(repo, gw, 10)

	_, err := c.SubmitTurn(context.Background(), "user-1", domain.ConversationWellbeing, "I'm stressed")
	if !errors.Is(err, ai.ErrGenerationFailed) {
		t.Fatalf("Expected ErrGenerationFailed, got %v", err)
	}

	stored := repo.stored("user-1", domain.ConversationWellbeing)
	if len(stored) != 1 {
		t.Fatalf("Expected exactly the user turn persisted, got %d turns", len(stored))
	}
	if stored[0].Sender != domain.SenderUser {
		t.Errorf("Persisted turn should be the user's, got %v", stored[0].Sender)
	}
}

func TestSubmitTurn_Validation(t *testing.T) {
	repo := newMemRepo()
	c := NewCoordinator(repo, &fakeGateway{reply: "x"}, 10)

	if _, err := c.SubmitTurn(context.Background(), "user-1", domain.ConversationTutor, "   \n\t "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got %v", err)
	}
	if _, err := c.SubmitTurn(context.Background(), "user-1", domain.ConversationType("horoscope"), "hi"); !errors.Is(err, ErrInvalidConversationType) {
		t.Errorf("Expected ErrInvalidConversationType, got %v", err)
	}
	if len(repo.stored("user-1", domain.ConversationTutor)) != 0 {
		t.Errorf("Validation failures must not persist anything")
	}
	if !IsValidationError(ErrEmptyContent) || IsValidationError(ai.ErrGenerationFailed) {
		t.Errorf("IsValidationError misclassifies errors")
	}
}

func TestSubmitTurn_WindowBoundedAndOldestFirst(t *testing.T) {
	repo := newMemRepo()
	for i := 0; i < 37; i++ {
		repo.messages = append(repo.messages, &domain.Message{
			ID:      fmt.Sprintf("old-%d", i),
			UserID:  "user-1",
			AIType:  domain.ConversationTutor,
			Sender:  domain.SenderUser,
			Content: fmt.Sprintf("turn %d", i),
		})
	}
	gw := &fakeGateway{reply: "ok"}
	c := NewCoordinator(repo, gw, 10)

	if _, err := c.SubmitTurn(context.Background(), "user-1", domain.ConversationTutor, "new question"); err != nil {
		t.Fatalf("SubmitTurn failed: %v", err)
	}

	if len(gw.gotWindow) != 10 {
		t.Fatalf("Expected window of 10, got %d", len(gw.gotWindow))
	}
	if gw.gotWindow[0].Content != "turn 27" || gw.gotWindow[9].Content != "turn 36" {
		t.Errorf("Window should hold the 10 most recent prior turns oldest-first, got %q..%q",
			gw.gotWindow[0].Content, gw.gotWindow[9].Content)
	}
	if gw.gotContent != "new question" {
		t.Errorf("New message should be passed separately, got %q", gw.gotContent)
	}
}

func TestSubmitTurn_WindowExcludesCurrentTurn(t *testing.T) {
	repo := newMemRepo()
	repo.messages = append(repo.messages, &domain.Message{
		ID: "prior", UserID: "user-1", AIType: domain.ConversationTutor,
		Sender: domain.SenderAI, Content: "earlier reply",
	})
	gw := &fakeGateway{reply: "ok"}
	c := NewCoordinator(repo, gw, 10)

	if _, err := c.SubmitTurn(context.Background(), "user-1", domain.ConversationTutor, "follow-up"); err != nil {
		t.Fatalf("SubmitTurn failed: %v", err)
	}
	if len(gw.gotWindow) != 1 || gw.gotWindow[0].ID != "prior" {
		t.Errorf("Window must contain prior history but not the just-persisted turn, got %+v", gw.gotWindow)
	}
}

func TestSubmitTurn_PersonalityFromPreferences(t *testing.T) {
	repo := newMemRepo()
	repo.users["user-1"] = &domain.User{
		UserID:      "user-1",
		Preferences: domain.Preferences{AIPersonality: domain.PersonalityMotivational},
	}
	gw := &fakeGateway{reply: "go go go"}
	c := NewCoordinator(repo, gw, 10)

	if _, err := c.SubmitTurn(context.Background(), "user-1", domain.ConversationTutor, "hi"); err != nil {
		t.Fatalf("SubmitTurn failed: %v", err)
	}
	if gw.gotPersona != domain.PersonalityMotivational {
		t.Errorf("Expected motivational personality, got %v", gw.gotPersona)
	}

	// Unknown user falls back to encouraging.
	if _, err := c.SubmitTurn(context.Background(), "user-2", domain.ConversationTutor, "hi"); err != nil {
		t.Fatalf("SubmitTurn failed: %v", err)
	}
	if gw.gotPersona != domain.PersonalityEncouraging {
		t.Errorf("Expected encouraging fallback, got %v", gw.gotPersona)
	}
}

func TestSubmitTurn_ConcurrentSubmissions(t *testing.T) {
	repo := newMemRepo()
	gw := &fakeGateway{reply: "answer"}
	c := NewCoordinator(repo, gw, 10)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := c.SubmitTurn(context.Background(), "user-1", domain.ConversationTutor, fmt.Sprintf("question %d", n)); err != nil {
				t.Errorf("Concurrent SubmitTurn failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	stored := repo.stored("user-1", domain.ConversationTutor)
	if len(stored) != 4 {
		t.Fatalf("Expected 4 persisted turns from 2 concurrent submissions, got %d", len(stored))
	}
	// Each call's user turn precedes its assistant turn; interleaving between
	// calls is allowed.
	userSeen := 0
	for _, m := range stored {
		if m.Sender == domain.SenderUser {
			userSeen++
		} else if userSeen == 0 {
			t.Errorf("Assistant turn appeared before any user turn")
		}
	}
	if userSeen != 2 {
		t.Errorf("Expected 2 user turns, got %d", userSeen)
	}
}

func TestSubmitTurn_StorageFailureSurfaces(t *testing.T) {
	repo := newMemRepo()
	repo.failNext = true
	c := NewCoordinator(repo, &fakeGateway{reply: "x"}, 10)

	_, err := c.SubmitTurn(context.Background(), "user-1", domain.ConversationTutor, "hi")
	if err == nil {
		t.Fatalf("Expected storage error to surface")
	}
	if IsValidationError(err) || errors.Is(err, ai.ErrGenerationFailed) {
		t.Errorf("Storage failure should not masquerade as validation or generation failure: %v", err)
	}
}
