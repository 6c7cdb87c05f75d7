// Package ai implements the completion gateway around the OpenAI chat API.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studymind/studymind/internal/domain"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// ErrGenerationFailed indicates the completion call errored, timed out, or
// returned output that could not be used. The caller may resubmit; the
// gateway never retries on its own.
var ErrGenerationFailed = errors.New("failed to generate AI response")

// Classification is advisory metadata describing the shape of a reply.
// Nothing in the request flow branches on it.
type Classification string

const (
	ClassificationText      Classification = "text"
	ClassificationLesson    Classification = "lesson"
	ClassificationQuiz      Classification = "quiz"
	ClassificationWellbeing Classification = "wellbeing"
)

// Metadata accompanies a generated reply.
type Metadata struct {
	AIType      domain.ConversationType `json:"aiType"`
	Personality domain.Personality      `json:"personality"`
	Timestamp   time.Time               `json:"timestamp"`
}

// Reply is a generated assistant response.
type Reply struct {
	Content  string         `json:"content"`
	Type     Classification `json:"type"`
	Metadata Metadata       `json:"metadata"`
}

// Gateway defines the interface for AI content generation.
// Implemented by OpenAIGateway; tests substitute a scripted fake.
type Gateway interface {
	// Generate produces an assistant reply for a conversation turn given the
	// bounded history window (oldest first).
	Generate(ctx context.Context, aiType domain.ConversationType, personality domain.Personality, window []*domain.Message, newMessage string) (*Reply, error)

	// GenerateQuiz produces a structured multiple-choice quiz.
	GenerateQuiz(ctx context.Context, topic, difficulty string) (*domain.QuizDocument, error)

	// GenerateLesson produces a structured lesson document.
	GenerateLesson(ctx context.Context, topic, subject string) (*domain.LessonDocument, error)
}

// Config holds gateway tuning parameters.
type Config struct {
	MaxTokens     int
	Temperature   float64
	HistoryWindow int
	Timeout       time.Duration
}

// OpenAIGateway is a Gateway backed by an OpenAI-compatible chat model.
type OpenAIGateway struct {
	model llms.Model
	cfg   Config
}

var _ Gateway = (*OpenAIGateway)(nil)

// NewOpenAIGateway creates a gateway around the given chat model.
func NewOpenAIGateway(model llms.Model, cfg Config) *OpenAIGateway {
	return &OpenAIGateway{model: model, cfg: cfg}
}

// Generate builds the prompt (system instruction + history window + new
// message) and invokes the model. The window is truncated to the most recent
// HistoryWindow entries; older context is dropped, not summarized.
func (g *OpenAIGateway) Generate(ctx context.Context, aiType domain.ConversationType, personality domain.Personality, window []*domain.Message, newMessage string) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if len(window) > g.cfg.HistoryWindow {
		window = window[len(window)-g.cfg.HistoryWindow:]
	}

	messages := make([]llms.MessageContent, 0, len(window)+2)
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, SystemPrompt(aiType, personality)))
	for _, m := range window {
		role := schema.ChatMessageTypeHuman
		if m.Sender == domain.SenderAI {
			role = schema.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, newMessage))

	resp, err := g.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(g.cfg.MaxTokens),
		llms.WithTemperature(g.cfg.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: chat completion: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion response", ErrGenerationFailed)
	}
	content := resp.Choices[0].Content

	return &Reply{
		Content: content,
		Type:    Classify(aiType, content),
		Metadata: Metadata{
			AIType:      aiType,
			Personality: personality,
			Timestamp:   time.Now().UTC(),
		},
	}, nil
}

// Classify inspects a reply and tags it. Wellbeing conversations always
// classify as wellbeing; tutor replies check quiz keywords before lesson
// keywords.
func Classify(aiType domain.ConversationType, content string) Classification {
	if aiType != domain.ConversationTutor {
		return ClassificationWellbeing
	}
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "quiz") || strings.Contains(lower, "test"):
		return ClassificationQuiz
	case strings.Contains(lower, "lesson") || strings.Contains(lower, "step"):
		return ClassificationLesson
	default:
		return ClassificationText
	}
}

// GenerateQuiz produces a structured multiple-choice quiz. The model is asked
// for strict JSON; unparseable output is a generation failure, not repaired.
func (g *OpenAIGateway) GenerateQuiz(ctx context.Context, topic, difficulty string) (*domain.QuizDocument, error) {
	prompt := fmt.Sprintf(`Generate a quiz about %q with %s difficulty.
Return a JSON object with the following structure:
{
  "title": "Quiz title",
  "questions": [
    {
      "question": "Question text",
      "options": ["A", "B", "C", "D"],
      "correct": 0,
      "explanation": "Why this answer is correct"
    }
  ]
}
Generate 5 multiple choice questions.`, topic, difficulty)

	var quiz domain.QuizDocument
	if err := g.generateJSON(ctx, prompt, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GenerateLesson produces a structured lesson document.
func (g *OpenAIGateway) GenerateLesson(ctx context.Context, topic, subject string) (*domain.LessonDocument, error) {
	prompt := fmt.Sprintf(`Create a comprehensive lesson about %q in the subject of %q.
Return a JSON object with the following structure:
{
  "title": "Lesson title",
  "content": "Detailed lesson content with explanations",
  "keyPoints": ["Key point 1", "Key point 2"],
  "examples": ["Example 1", "Example 2"],
  "summary": "Brief summary of the lesson"
}`, topic, subject)

	var lesson domain.LessonDocument
	if err := g.generateJSON(ctx, prompt, &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (g *OpenAIGateway) generateJSON(ctx context.Context, prompt string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, prompt)},
		llms.WithJSONMode(),
	)
	if err != nil {
		return fmt.Errorf("%w: structured completion: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("%w: empty completion response", ErrGenerationFailed)
	}

	if err := json.Unmarshal([]byte(resp.Choices[0].Content), out); err != nil {
		return fmt.Errorf("%w: parse structured response: %v", ErrGenerationFailed, err)
	}
	return nil
}
