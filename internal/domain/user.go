// Package domain contains core domain types for the StudyMind application.
package domain

import (
	"time"
)

// Personality names a preset controlling the assistant's tone.
type Personality string

const (
	PersonalityEncouraging  Personality = "encouraging"
	PersonalityProfessional Personality = "professional"
	PersonalityFriendly     Personality = "friendly"
	PersonalityMotivational Personality = "motivational"
)

// Preferences holds per-user assistant settings.
type Preferences struct {
	AIPersonality Personality `json:"aiPersonality,omitempty"`
}

// User represents a user in the system with their study stats.
type User struct {
	UserID           string      `json:"user_id"`
	Username         string      `json:"username"`
	TutorName        string      `json:"tutor_name"`
	WellbeingName    string      `json:"wellbeing_name"`
	StudyStreak      int         `json:"study_streak"`
	TotalStudyTime   int         `json:"total_study_time"`
	LessonsCompleted int         `json:"lessons_completed"`
	Preferences      Preferences `json:"preferences"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Personality returns the user's configured assistant personality, or
// PersonalityEncouraging when none is set.
func (u *User) Personality() Personality {
	if u == nil || u.Preferences.AIPersonality == "" {
		return PersonalityEncouraging
	}
	return u.Preferences.AIPersonality
}

// StatsUpdate carries a partial update of a user's study stats.
// Nil fields are left unchanged.
type StatsUpdate struct {
	StudyStreak      *int `json:"study_streak,omitempty"`
	TotalStudyTime   *int `json:"total_study_time,omitempty"`
	LessonsCompleted *int `json:"lessons_completed,omitempty"`
}

// Empty returns true if the update would change nothing.
func (s StatsUpdate) Empty() bool {
	return s.StudyStreak == nil && s.TotalStudyTime == nil && s.LessonsCompleted == nil
}
