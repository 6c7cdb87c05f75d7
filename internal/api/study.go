package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/studymind/studymind/internal/ai"
	"github.com/studymind/studymind/internal/domain"
	"github.com/studymind/studymind/internal/identity"
)

type generateLessonRequest struct {
	Topic   string `json:"topic"`
	Subject string `json:"subject"`
}

type generateQuizRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

// ListLessons returns the caller's generated lessons, newest first.
func (h *Handler) ListLessons(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	lessons, err := h.repo.ListLessons(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list lessons", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to fetch lessons")
		return
	}
	if lessons == nil {
		lessons = []*domain.Lesson{}
	}

	JSON(w, http.StatusOK, lessons)
}

// GenerateLesson asks the gateway for a structured lesson and persists it.
func (h *Handler) GenerateLesson(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req generateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Topic == "" || req.Subject == "" {
		Error(w, http.StatusBadRequest, "Topic and subject are required")
		return
	}

	content, err := h.gateway.GenerateLesson(r.Context(), req.Topic, req.Subject)
	if err != nil {
		logGenerationError("lesson", userID, err)
		Error(w, http.StatusInternalServerError, "Failed to generate lesson")
		return
	}

	lesson := &domain.Lesson{
		ID:         uuid.NewString(),
		UserID:     userID,
		Topic:      req.Topic,
		Subject:    req.Subject,
		Content:    *content,
		Difficulty: "medium",
		CreatedAt:  time.Now(),
	}
	if err := h.repo.CreateLesson(r.Context(), lesson); err != nil {
		slog.Error("Failed to store lesson", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to generate lesson")
		return
	}

	JSON(w, http.StatusOK, lesson)
}

// ListTests returns the caller's quizzes, newest first.
func (h *Handler) ListTests(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	tests, err := h.repo.ListTests(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list tests", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to fetch tests")
		return
	}
	if tests == nil {
		tests = []*domain.Test{}
	}

	JSON(w, http.StatusOK, tests)
}

// GenerateQuiz asks the gateway for a structured quiz and persists it as a
// test record.
func (h *Handler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req generateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Topic == "" {
		Error(w, http.StatusBadRequest, "Topic is required")
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}

	questions, err := h.gateway.GenerateQuiz(r.Context(), req.Topic, req.Difficulty)
	if err != nil {
		logGenerationError("quiz", userID, err)
		Error(w, http.StatusInternalServerError, "Failed to generate quiz")
		return
	}

	test := &domain.Test{
		ID:        uuid.NewString(),
		UserID:    userID,
		Questions: *questions,
		CreatedAt: time.Now(),
	}
	if err := h.repo.CreateTest(r.Context(), test); err != nil {
		slog.Error("Failed to store test", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to generate quiz")
		return
	}

	JSON(w, http.StatusOK, test)
}

func logGenerationError(kind, userID string, err error) {
	if errors.Is(err, ai.ErrGenerationFailed) {
		slog.Warn("Generation failed", "kind", kind, "user_id", userID, "error", err)
		return
	}
	slog.Error("Unexpected generation error", "kind", kind, "user_id", userID, "error", err)
}
