package models

import (
	"time"

	"github.com/lib/pq"
)

// Spaced-repetition bounds. Ease never drops below MinEaseFactor.
const (
	MinEaseFactor     = 1.3
	DefaultEaseFactor = 2.5
)

// Deck groups flashcards, optionally tied to a subject.
type Deck struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	SubjectID string    `db:"subject_id" json:"subject_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Flashcard carries both the card content and its scheduling state.
type Flashcard struct {
	ID           string         `db:"id" json:"id"`
	DeckID       string         `db:"deck_id" json:"deck_id"`
	UserID       string         `db:"user_id" json:"user_id"`
	Front        string         `db:"front" json:"front"`
	Back         string         `db:"back" json:"back"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	EaseFactor   float64        `db:"ease_factor" json:"ease_factor"`
	IntervalDays int            `db:"interval_days" json:"interval_days"`
	Repetitions  int            `db:"repetitions" json:"repetitions"`
	DueDate      time.Time      `db:"due_date" json:"due_date"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ReviewEvent is the append-only record of one graded review.
type ReviewEvent struct {
	ID         string    `db:"id" json:"id"`
	CardID     string    `db:"card_id" json:"card_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Grade      string    `db:"grade" json:"grade"`
	EaseFactor float64   `db:"ease_factor" json:"ease_factor"`
	Interval   int       `db:"interval_days" json:"interval_days"`
	ReviewedAt time.Time `db:"reviewed_at" json:"reviewed_at"`
}
