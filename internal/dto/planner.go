package dto

// GeneratePlanRequest asks for a fresh or regenerated study plan.
type GeneratePlanRequest struct {
	Regenerate bool `json:"regenerate"`
}

// RebalanceRequest reports a confidence change that should reshape the
// future portion of the plan.
type RebalanceRequest struct {
	SubjectID     string `json:"subject_id" validate:"required"`
	NewConfidence int    `json:"new_confidence" validate:"required,min=1,max=5"`
}

// DraftSession is one session as produced by the generation service.
// Subjects are referenced by name; the service resolves them to IDs and
// re-validates everything before acceptance.
type DraftSession struct {
	SubjectName   string   `json:"subject_name"`
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	DurationHours float64  `json:"duration_hours"`
	SessionType   string   `json:"session_type"`
	Topics        []string `json:"topics"`
	CognitiveLoad string   `json:"cognitive_load"`
}

// DraftShare is the generation service's view of a subject's allocation.
type DraftShare struct {
	TotalHours    float64 `json:"total_hours"`
	Percentage    float64 `json:"percentage"`
	Justification string  `json:"justification"`
}

// PlanDraft is the untrusted plan proposal returned by the generation
// service.
type PlanDraft struct {
	Sessions            []DraftSession        `json:"sessions"`
	SubjectBreakdown    map[string]DraftShare `json:"subject_breakdown"`
	Recommendations     []string              `json:"recommendations"`
	NextSteps           []string              `json:"next_steps"`
	EstimatedCompletion string                `json:"estimated_completion"`
}
