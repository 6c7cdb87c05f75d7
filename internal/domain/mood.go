package domain

import (
	"time"
)

// MoodEntry is a single mood check-in recorded by a user.
type MoodEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Mood        string    `json:"mood"`
	Notes       string    `json:"notes,omitempty"`
	StressLevel *int      `json:"stressLevel,omitempty"`
	EnergyLevel *int      `json:"energyLevel,omitempty"`
	CreatedAt   time.Time `json:"timestamp"`
}
