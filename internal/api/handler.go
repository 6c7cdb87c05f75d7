// Package api provides HTTP handlers for the StudyMind API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studymind/studymind/internal/ai"
	"github.com/studymind/studymind/internal/chat"
	"github.com/studymind/studymind/internal/store"
)

// Handler serves the StudyMind REST surface.
type Handler struct {
	repo    store.Repository
	chat    *chat.Coordinator
	gateway ai.Gateway
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, coordinator *chat.Coordinator, gateway ai.Gateway) *Handler {
	return &Handler{
		repo:    repo,
		chat:    coordinator,
		gateway: gateway,
	}
}

// RegisterRoutes mounts all API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/auth/user", h.GetCurrentUser)
	r.Patch("/api/user/stats", h.UpdateUserStats)

	r.Get("/api/messages/{aiType}", h.ListMessages)
	r.Post("/api/messages", h.CreateMessage)

	r.Get("/api/lessons", h.ListLessons)
	r.Post("/api/lessons/generate", h.GenerateLesson)

	r.Get("/api/tests", h.ListTests)
	r.Post("/api/quizzes/generate", h.GenerateQuiz)

	r.Get("/api/mood-entries", h.ListMoodEntries)
	r.Post("/api/mood-entries", h.CreateMoodEntry)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"message": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}
