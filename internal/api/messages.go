package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studymind/studymind/internal/chat"
	"github.com/studymind/studymind/internal/domain"
	"github.com/studymind/studymind/internal/identity"
)

// messageWindowSize bounds how much history GET /api/messages returns.
const messageWindowSize = 50

type createMessageRequest struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
	AIType  string `json:"aiType"`
}

type createMessageResponse struct {
	UserMessage *domain.Message `json:"userMessage"`
	AIMessage   *domain.Message `json:"aiMessage"`
	AIResponse  interface{}     `json:"aiResponse"`
}

// ListMessages returns the caller's recent conversation window for one
// assistant.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	aiType := domain.ConversationType(chi.URLParam(r, "aiType"))

	if !aiType.Valid() {
		Error(w, http.StatusBadRequest, "Invalid AI type")
		return
	}

	messages, err := h.repo.ListMessages(r.Context(), userID, aiType, messageWindowSize)
	if err != nil {
		slog.Error("Failed to list messages", "user_id", userID, "ai_type", aiType, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}

	JSON(w, http.StatusOK, messages)
}

// CreateMessage runs one message exchange turn.
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	turn, err := h.chat.SubmitTurn(r.Context(), userID, domain.ConversationType(req.AIType), req.Content)
	if err != nil {
		if chat.IsValidationError(err) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Failed to create message", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to create message")
		return
	}

	JSON(w, http.StatusOK, createMessageResponse{
		UserMessage: turn.UserMessage,
		AIMessage:   turn.AIMessage,
		AIResponse:  turn.Reply,
	})
}
