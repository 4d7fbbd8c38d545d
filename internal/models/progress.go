package models

import "time"

// ProgressEntry is one point in a subject's confidence history.
type ProgressEntry struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	SubjectName     string    `db:"subject_name" json:"subject_name"`
	ConfidenceLevel int       `db:"confidence_level" json:"confidence_level"`
	RecordedAt      time.Time `db:"recorded_at" json:"recorded_at"`
}

// ProgressStats aggregates measured completion state for a user's plan.
// Only observed facts contribute; nothing here is predicted.
type ProgressStats struct {
	TotalSessions     int     `json:"total_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	CompletionRate    float64 `json:"completion_rate"`
	TotalHours        float64 `json:"total_hours"`
	CompletedHours    float64 `json:"completed_hours"`
	SubjectsTracked   int     `json:"subjects_tracked"`
	AverageConfidence float64 `json:"average_confidence"`
	CardsDueToday     int     `json:"cards_due_today"`
}
