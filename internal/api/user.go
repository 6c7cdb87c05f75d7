package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/studymind/studymind/internal/domain"
	"github.com/studymind/studymind/internal/identity"
)

// GetCurrentUser returns the authenticated caller's user record.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to fetch user", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	if user == nil {
		// Identity middleware creates the record; a miss here means the row
		// vanished between middleware and handler.
		Error(w, http.StatusNotFound, "User not found")
		return
	}

	JSON(w, http.StatusOK, user)
}

// UpdateUserStats partially updates the caller's study stats and returns the
// updated record.
func (h *Handler) UpdateUserStats(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var stats domain.StatsUpdate
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if stats.Empty() {
		Error(w, http.StatusBadRequest, "No stats fields provided")
		return
	}

	user, err := h.repo.UpdateUserStats(r.Context(), userID, stats)
	if err != nil {
		slog.Error("Failed to update user stats", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to update user stats")
		return
	}

	JSON(w, http.StatusOK, user)
}
