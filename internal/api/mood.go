package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/studymind/studymind/internal/domain"
	"github.com/studymind/studymind/internal/identity"
)

type createMoodEntryRequest struct {
	Mood        string `json:"mood"`
	Notes       string `json:"notes"`
	StressLevel *int   `json:"stressLevel"`
	EnergyLevel *int   `json:"energyLevel"`
}

// ListMoodEntries returns the caller's mood check-ins, newest first.
func (h *Handler) ListMoodEntries(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	entries, err := h.repo.ListMoodEntries(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list mood entries", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to fetch mood entries")
		return
	}
	if entries == nil {
		entries = []*domain.MoodEntry{}
	}

	JSON(w, http.StatusOK, entries)
}

// CreateMoodEntry records a mood check-in.
func (h *Handler) CreateMoodEntry(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req createMoodEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Mood == "" {
		Error(w, http.StatusBadRequest, "Mood is required")
		return
	}
	if !validLevel(req.StressLevel) || !validLevel(req.EnergyLevel) {
		Error(w, http.StatusBadRequest, "Stress and energy levels must be between 1 and 10")
		return
	}

	entry := &domain.MoodEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		Mood:        req.Mood,
		Notes:       req.Notes,
		StressLevel: req.StressLevel,
		EnergyLevel: req.EnergyLevel,
		CreatedAt:   time.Now(),
	}
	if err := h.repo.CreateMoodEntry(r.Context(), entry); err != nil {
		slog.Error("Failed to store mood entry", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to create mood entry")
		return
	}

	JSON(w, http.StatusOK, entry)
}

func validLevel(v *int) bool {
	return v == nil || (*v >= 1 && *v <= 10)
}
