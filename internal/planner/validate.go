package planner

import (
	"fmt"

	"github.com/edubloom/study-planner-api/internal/models"
)

const budgetEpsilon = 1e-6

var validTypes = map[models.SessionType]bool{
	models.SessionLearning: true,
	models.SessionPractice: true,
	models.SessionRevision: true,
	models.SessionBuffer:   true,
}

var validLoads = map[models.CognitiveLoad]bool{
	models.LoadLow:    true,
	models.LoadMedium: true,
	models.LoadHigh:   true,
}

// ValidateSessions checks a session list against the data-model invariants
// and the per-day budget constraint. It is applied to every externally
// generated draft before acceptance, and to the allocator's own output in
// tests. A nil return means the draft can be persisted.
func ValidateSessions(sessions []models.Session, days []Day, subjects []models.Subject) error {
	if len(days) == 0 {
		return ErrInvalidRange
	}

	budgets := make(map[string]float64, len(days))
	for _, d := range days {
		budgets[DayKey(d.Date)] = d.BudgetHours
	}
	known := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		known[s.ID] = true
	}

	spent := make(map[string]float64, len(days))
	for i, s := range sessions {
		if !validTypes[s.SessionType] {
			return fmt.Errorf("session %d: unknown session type %q", i, s.SessionType)
		}
		if !validLoads[s.CognitiveLoad] {
			return fmt.Errorf("session %d: unknown cognitive load %q", i, s.CognitiveLoad)
		}
		if s.DurationHours <= 0 {
			return fmt.Errorf("session %d: non-positive duration %.2f", i, s.DurationHours)
		}
		if s.SessionType == models.SessionBuffer {
			if s.CognitiveLoad != models.LoadLow {
				return fmt.Errorf("session %d: buffer session must carry low load", i)
			}
		} else if !known[s.SubjectID] {
			return fmt.Errorf("session %d: unknown subject %q", i, s.SubjectID)
		}

		key := DayKey(s.Date)
		budget, ok := budgets[key]
		if !ok {
			return fmt.Errorf("session %d: date %s outside plan range", i, key)
		}
		spent[key] += s.DurationHours
		if spent[key] > budget+budgetEpsilon {
			return fmt.Errorf("day %s: scheduled %.2fh exceeds budget %.2fh", key, spent[key], budget)
		}
	}

	return nil
}
