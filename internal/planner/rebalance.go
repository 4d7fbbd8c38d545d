package planner

import (
	"time"

	"github.com/edubloom/study-planner-api/internal/models"
)

// Split partitions an existing plan for rebalancing. Frozen sessions are
// never altered or removed; Reserved and Buffered describe how much of each
// remaining day the frozen set already occupies.
type Split struct {
	Frozen    []models.Session
	Discarded []models.Session
	Reserved  map[string]float64
	Buffered  map[string]bool
}

// SplitSessions separates a plan's sessions into the frozen set (past,
// completed, or buffer — buffer sessions keep their cadence through a
// rebalance) and the discardable set (future and incomplete).
func SplitSessions(sessions []models.Session, today time.Time) Split {
	today = midnightUTC(today)
	split := Split{
		Reserved: make(map[string]float64),
		Buffered: make(map[string]bool),
	}

	for _, s := range sessions {
		frozen := s.Completed || s.Date.Before(today) || s.SessionType == models.SessionBuffer
		if !frozen {
			split.Discarded = append(split.Discarded, s)
			continue
		}
		split.Frozen = append(split.Frozen, s)
		if !s.Date.Before(today) {
			key := DayKey(s.Date)
			split.Reserved[key] += s.DurationHours
			if s.SessionType == models.SessionBuffer {
				split.Buffered[key] = true
			}
		}
	}
	return split
}

// LastLoadBefore returns the cognitive load of the chronologically last
// frozen session before the given date, so the balancer constraint holds
// across the frozen/regenerated boundary.
func LastLoadBefore(frozen []models.Session, date time.Time) models.CognitiveLoad {
	var best *models.Session
	for i := range frozen {
		s := &frozen[i]
		if s.Date.After(date) {
			continue
		}
		if best == nil || s.Date.After(best.Date) ||
			(s.Date.Equal(best.Date) && clockMinutes(s.StartTime) > clockMinutes(best.StartTime)) {
			best = s
		}
	}
	if best == nil {
		return ""
	}
	return best.CognitiveLoad
}
