// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/studymind/studymind/internal/domain"
)

// Repository defines the interface for persisting users, conversations, and
// study records.
type Repository interface {
	// GetUser retrieves a user by their user ID. Returns (nil, nil) when the
	// user does not exist.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateUserStats applies a partial stats update and returns the updated user.
	UpdateUserStats(ctx context.Context, userID string, stats domain.StatsUpdate) (*domain.User, error)

	// CreateMessage appends a conversation turn. Messages are never updated
	// or deleted through this interface.
	CreateMessage(ctx context.Context, msg *domain.Message) error

	// ListMessages returns up to limit turns for (userID, aiType),
	// most recent first. Ties on created_at resolve by insertion order.
	ListMessages(ctx context.Context, userID string, aiType domain.ConversationType, limit int) ([]*domain.Message, error)

	// CreateLesson stores a generated lesson.
	CreateLesson(ctx context.Context, lesson *domain.Lesson) error

	// ListLessons returns the user's lessons, newest first.
	ListLessons(ctx context.Context, userID string) ([]*domain.Lesson, error)

	// CreateTest stores a generated quiz.
	CreateTest(ctx context.Context, test *domain.Test) error

	// ListTests returns the user's quizzes, newest first.
	ListTests(ctx context.Context, userID string) ([]*domain.Test, error)

	// CreateMoodEntry stores a mood check-in.
	CreateMoodEntry(ctx context.Context, entry *domain.MoodEntry) error

	// ListMoodEntries returns the user's mood check-ins, newest first.
	ListMoodEntries(ctx context.Context, userID string) ([]*domain.MoodEntry, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
