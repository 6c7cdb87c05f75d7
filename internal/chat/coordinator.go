// Package chat orchestrates one message exchange turn between a user and
// the AI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studymind/studymind/internal/ai"
	"github.com/studymind/studymind/internal/domain"
	"github.com/studymind/studymind/internal/store"
)

var (
	// ErrEmptyContent rejects turns whose content is empty after trimming.
	ErrEmptyContent = errors.New("message content is required")
	// ErrInvalidConversationType rejects unknown aiType values.
	ErrInvalidConversationType = errors.New("invalid ai type")
)

// IsValidationError reports whether err is caller-fixable input rejection.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyContent) || errors.Is(err, ErrInvalidConversationType)
}

// Turn is the outcome of one submitted exchange.
type Turn struct {
	UserMessage *domain.Message
	AIMessage   *domain.Message
	Reply       *ai.Reply
}

// Coordinator runs the message exchange flow: persist the user turn, build
// the bounded history window, generate a reply, persist the assistant turn.
type Coordinator struct {
	repo    store.Repository
	gateway ai.Gateway
	window  int
}

// NewCoordinator creates a coordinator. window bounds the history sent to
// the gateway.
func NewCoordinator(repo store.Repository, gateway ai.Gateway, window int) *Coordinator {
	return &Coordinator{repo: repo, gateway: gateway, window: window}
}

// SubmitTurn handles one user message. The user turn is persisted before the
// completion call, so it survives generation failures; on such a failure the
// returned error wraps ai.ErrGenerationFailed and no assistant turn exists.
// Concurrent submissions for the same conversation are not serialized here;
// store append order is the only ordering guarantee across requests.
func (c *Coordinator) SubmitTurn(ctx context.Context, userID string, aiType domain.ConversationType, content string) (*Turn, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if !aiType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidConversationType, aiType)
	}

	userMsg := &domain.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		Sender:    domain.SenderUser,
		AIType:    aiType,
		CreatedAt: time.Now(),
	}
	if err := c.repo.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	// Personality resolution is total: a missing user or lookup failure
	// falls back to the default rather than aborting a turn whose message
	// is already persisted.
	personality := domain.PersonalityEncouraging
	user, err := c.repo.GetUser(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load user preferences, using defaults", "user_id", userID, "error", err)
	} else {
		personality = user.Personality()
	}

	window, err := c.loadWindow(ctx, userID, aiType, userMsg.ID)
	if err != nil {
		return nil, fmt.Errorf("load conversation window: %w", err)
	}

	reply, err := c.gateway.Generate(ctx, aiType, personality, window, content)
	if err != nil {
		// The user turn stays persisted; the caller may resubmit.
		return nil, err
	}

	aiMsg := &domain.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   reply.Content,
		Sender:    domain.SenderAI,
		AIType:    aiType,
		CreatedAt: time.Now(),
	}
	if err := c.repo.CreateMessage(ctx, aiMsg); err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}

	return &Turn{UserMessage: userMsg, AIMessage: aiMsg, Reply: reply}, nil
}

// loadWindow fetches the most recent turns for the conversation, drops the
// just-persisted user turn (it is appended to the prompt separately), trims
// to the window size, and reverses to oldest-first for prompt assembly.
func (c *Coordinator) loadWindow(ctx context.Context, userID string, aiType domain.ConversationType, currentID string) ([]*domain.Message, error) {
	recent, err := c.repo.ListMessages(ctx, userID, aiType, c.window+1)
	if err != nil {
		return nil, err
	}

	window := make([]*domain.Message, 0, len(recent))
	for _, m := range recent {
		if m.ID == currentID {
			continue
		}
		window = append(window, m)
	}
	if len(window) > c.window {
		window = window[:c.window]
	}

	// most-recent-first -> oldest-first
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	return window, nil
}
