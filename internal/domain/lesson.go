package domain

import (
	"encoding/json"
	"time"
)

// LessonDocument is the structured lesson content produced by the AI.
type LessonDocument struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	KeyPoints []string `json:"keyPoints"`
	Examples  []string `json:"examples"`
	Summary   string   `json:"summary"`
}

// Lesson is a generated lesson owned by a user.
type Lesson struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Topic      string         `json:"topic"`
	Subject    string         `json:"subject"`
	Content    LessonDocument `json:"content"`
	Difficulty string         `json:"difficulty"`
	Completed  bool           `json:"completed"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// QuizQuestion is one multiple-choice question in a quiz.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
}

// QuizDocument is the structured quiz produced by the AI.
type QuizDocument struct {
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

// Test is a generated quiz owned by a user, with optional results once taken.
type Test struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	LessonID    string          `json:"lessonId,omitempty"`
	Questions   QuizDocument    `json:"questions"`
	UserAnswers json.RawMessage `json:"userAnswers,omitempty"`
	Score       *float64        `json:"score,omitempty"`
	TimeSpent   *int            `json:"timeSpent,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
