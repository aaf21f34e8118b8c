package models

import (
	"time"

	"github.com/google/uuid"
)

// MoodObservation is a single self-reported mental state reading on a 1-10
// scale, supplied by the caller as part of a time series.
type MoodObservation struct {
	ID                uuid.UUID `json:"id" db:"id"`
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	Date              time.Time `json:"date" db:"date"`
	Mood              int       `json:"mood" db:"mood"`       // 1-10
	Stress            int       `json:"stress" db:"stress"`   // 1-10
	Anxiety           int       `json:"anxiety" db:"anxiety"` // 1-10
	Energy            int       `json:"energy" db:"energy"`   // 1-10
	CognitiveFunction *int      `json:"cognitive_function,omitempty" db:"cognitive_function"`
}
