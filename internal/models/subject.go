package models

import (
	"time"

	"github.com/lib/pq"
)

// Subject represents a subject the student is preparing for.
type Subject struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"user_id"`
	Name            string         `db:"name" json:"name"`
	Credits         int            `db:"credits" json:"credits"`
	ConfidenceLevel int            `db:"confidence_level" json:"confidence_level"`
	StrongAreas     pq.StringArray `db:"strong_areas" json:"strong_areas"`
	WeakAreas       pq.StringArray `db:"weak_areas" json:"weak_areas"`
	Color           string         `db:"color" json:"color"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Profile carries the availability inputs collected during onboarding.
type Profile struct {
	UserID             string    `db:"user_id" json:"user_id"`
	WeekdayHours       float64   `db:"weekday_hours" json:"weekday_hours"`
	WeekendHours       float64   `db:"weekend_hours" json:"weekend_hours"`
	PreferredStudyTime string    `db:"preferred_study_time" json:"preferred_study_time"`
	TargetDate         time.Time `db:"target_date" json:"target_date"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Preferred study time anchors. The daily window opens at the anchor and
// spans that day's hour budget.
const (
	StudyTimeMorning   = "morning"
	StudyTimeAfternoon = "afternoon"
	StudyTimeEvening   = "evening"
	StudyTimeNight     = "night"
)
