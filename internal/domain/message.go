package domain

import (
	"encoding/json"
	"time"
)

// Sender identifies the author of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ConversationType selects which assistant a conversation belongs to.
type ConversationType string

const (
	ConversationTutor     ConversationType = "tutor"
	ConversationWellbeing ConversationType = "wellbeing"
)

// Valid reports whether the conversation type is one of the known values.
func (t ConversationType) Valid() bool {
	return t == ConversationTutor || t == ConversationWellbeing
}

// Message is one stored conversation turn. Messages are append-only: the
// core never mutates or deletes them once written (reactions and bookmarks
// are edited outside the message exchange flow).
type Message struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	Content    string           `json:"content"`
	Sender     Sender           `json:"sender"`
	AIType     ConversationType `json:"aiType"`
	CreatedAt  time.Time        `json:"timestamp"`
	Reactions  json.RawMessage  `json:"reactions,omitempty"`
	Bookmarked bool             `json:"bookmarked"`
}
