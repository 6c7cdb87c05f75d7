package ai

import (
	"strings"
	"testing"

	"github.com/studymind/studymind/internal/domain"
)

func TestSystemPrompt_TutorPersonalities(t *testing.T) {
	for _, p := range []domain.Personality{
		domain.PersonalityEncouraging,
		domain.PersonalityProfessional,
		domain.PersonalityFriendly,
		domain.PersonalityMotivational,
	} {
		prompt := SystemPrompt(domain.ConversationTutor, p)
		if !strings.Contains(prompt, "Alex") {
			t.Errorf("Tutor prompt for %q should mention Alex, got %q", p, prompt)
		}
	}
}

func TestSystemPrompt_WellbeingUsesSage(t *testing.T) {
	prompt := SystemPrompt(domain.ConversationWellbeing, domain.PersonalityFriendly)
	if !strings.Contains(prompt, "Sage") {
		t.Errorf("Wellbeing prompt should mention Sage, got %q", prompt)
	}
}

func TestSystemPrompt_UnknownPersonalityFallsBack(t *testing.T) {
	got := SystemPrompt(domain.ConversationTutor, domain.Personality("sarcastic"))
	want := SystemPrompt(domain.ConversationTutor, domain.PersonalityEncouraging)
	if got != want {
		t.Errorf("Unknown personality should fall back to encouraging")
	}

	got = SystemPrompt(domain.ConversationWellbeing, domain.Personality(""))
	want = SystemPrompt(domain.ConversationWellbeing, domain.PersonalityEncouraging)
	if got != want {
		t.Errorf("Empty personality should fall back to encouraging")
	}
}

func TestSystemPrompt_TutorAndWellbeingDiffer(t *testing.T) {
	tutor := SystemPrompt(domain.ConversationTutor, domain.PersonalityEncouraging)
	wellbeing := SystemPrompt(domain.ConversationWellbeing, domain.PersonalityEncouraging)
	if tutor == wellbeing {
		t.Errorf("Tutor and wellbeing prompts should differ")
	}
}
