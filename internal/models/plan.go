package models

import (
	"time"

	"github.com/lib/pq"
)

// SessionType classifies what the student does in a session.
type SessionType string

const (
	SessionLearning SessionType = "learning"
	SessionPractice SessionType = "practice"
	SessionRevision SessionType = "revision"
	SessionBuffer   SessionType = "buffer"
)

// CognitiveLoad grades how demanding a session is.
type CognitiveLoad string

const (
	LoadLow    CognitiveLoad = "low"
	LoadMedium CognitiveLoad = "medium"
	LoadHigh   CognitiveLoad = "high"
)

// PlanSource records which generator produced the plan's sessions.
type PlanSource string

const (
	SourceAI       PlanSource = "ai"
	SourceFallback PlanSource = "fallback"
)

// Session is a single scheduled study block. Once Completed is set the
// session is immutable; rebalancing never touches it.
type Session struct {
	ID            string         `db:"id" json:"id"`
	PlanID        string         `db:"plan_id" json:"plan_id"`
	SubjectID     string         `db:"subject_id" json:"subject_id"`
	SubjectName   string         `db:"subject_name" json:"subject_name"`
	Date          time.Time      `db:"date" json:"date"`
	StartTime     string         `db:"start_time" json:"start_time"`
	EndTime       string         `db:"end_time" json:"end_time"`
	DurationHours float64        `db:"duration_hours" json:"duration_hours"`
	SessionType   SessionType    `db:"session_type" json:"session_type"`
	CognitiveLoad CognitiveLoad  `db:"cognitive_load" json:"cognitive_load"`
	Topics        pq.StringArray `db:"topics" json:"topics"`
	Color         string         `db:"color" json:"color"`
	Completed     bool           `db:"completed" json:"completed"`
	CompletedAt   *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// SubjectShare summarises one subject's slice of the plan.
type SubjectShare struct {
	Hours         float64 `json:"hours"`
	Percentage    float64 `json:"percentage"`
	Justification string  `json:"justification"`
}

// SubjectBreakdown maps subject name to its share of the plan.
type SubjectBreakdown map[string]SubjectShare

// StudyPlan is the root aggregate: one active plan per user. Version
// increments on every regenerate or rebalance while the ID stays stable.
type StudyPlan struct {
	ID               string           `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"user_id"`
	StartDate        time.Time        `db:"start_date" json:"start_date"`
	EndDate          time.Time        `db:"end_date" json:"end_date"`
	Sessions         []Session        `db:"-" json:"sessions"`
	SubjectBreakdown SubjectBreakdown `db:"-" json:"subject_breakdown"`
	Recommendations  pq.StringArray   `db:"recommendations" json:"recommendations"`
	NextSteps        pq.StringArray   `db:"next_steps" json:"next_steps"`
	Source           PlanSource       `db:"source" json:"source"`
	Version          int              `db:"version" json:"version"`
	GeneratedAt      time.Time        `db:"generated_at" json:"generated_at"`
}
