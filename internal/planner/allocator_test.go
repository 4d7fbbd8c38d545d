package planner

import (
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubloom/study-planner-api/internal/models"
)

func twoWeekDays(t *testing.T) []Day {
	t.Helper()
	profile := models.Profile{
		WeekdayHours:       2,
		WeekendHours:       4,
		PreferredStudyTime: models.StudyTimeEvening,
	}
	days, err := BuildDays(profile, date(2026, time.January, 5), date(2026, time.January, 18))
	require.NoError(t, err)
	require.Len(t, days, 14)
	return days
}

func scenarioSubjects() []models.Subject {
	return []models.Subject{
		{ID: "calc", Name: "Calculus", Credits: 3, ConfidenceLevel: 2, WeakAreas: pq.StringArray{"integration", "series"}, StrongAreas: pq.StringArray{"derivatives"}},
		{ID: "hist", Name: "History", Credits: 3, ConfidenceLevel: 4, StrongAreas: pq.StringArray{"modern era"}},
	}
}

func chronological(sessions []models.Session) []models.Session {
	out := make([]models.Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func TestAllocateDeterministic(t *testing.T) {
	subjects := scenarioSubjects()
	in := Input{
		PlanID:   "plan-1",
		Subjects: subjects,
		Weights:  ComputeWeights(subjects),
		Days:     twoWeekDays(t),
	}

	first, err := Allocate(in)
	require.NoError(t, err)
	second, err := Allocate(in)
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(first, second), "identical inputs must produce identical output")
}

func TestAllocateRespectsDailyBudgets(t *testing.T) {
	subjects := scenarioSubjects()
	days := twoWeekDays(t)

	sessions, err := Allocate(Input{
		PlanID:   "plan-1",
		Subjects: subjects,
		Weights:  ComputeWeights(subjects),
		Days:     days,
	})
	require.NoError(t, err)
	require.NotEmpty(t, sessions)

	assert.NoError(t, ValidateSessions(sessions, days, subjects))
}

func TestAllocateFavorsWeakerSubject(t *testing.T) {
	subjects := scenarioSubjects()

	sessions, err := Allocate(Input{
		PlanID:   "plan-1",
		Subjects: subjects,
		Weights:  ComputeWeights(subjects),
		Days:     twoWeekDays(t),
	})
	require.NoError(t, err)

	hours := map[string]float64{}
	for _, s := range sessions {
		hours[s.SubjectID] += s.DurationHours
	}
	assert.Greater(t, hours["calc"], hours["hist"],
		"equal credits with lower confidence must receive more time")
}

func TestAllocateDominantSubjectShare(t *testing.T) {
	subjects := []models.Subject{
		{ID: "phys", Name: "Physics", Credits: 5, ConfidenceLevel: 1, WeakAreas: pq.StringArray{"mechanics", "waves"}},
		{ID: "art", Name: "Art History", Credits: 1, ConfidenceLevel: 5},
	}
	profile := models.Profile{
		WeekdayHours:       2,
		WeekendHours:       2,
		PreferredStudyTime: models.StudyTimeEvening,
	}
	days, err := BuildDays(profile, date(2026, time.January, 5), date(2026, time.January, 18))
	require.NoError(t, err)
	require.Len(t, days, 14)

	sessions, err := Allocate(Input{
		PlanID:   "plan-1",
		Subjects: subjects,
		Weights:  ComputeWeights(subjects),
		Days:     days,
	})
	require.NoError(t, err)

	hours := map[string]float64{}
	var scheduled float64
	for _, s := range sessions {
		if s.SessionType == models.SessionBuffer {
			continue
		}
		hours[s.SubjectID] += s.DurationHours
		scheduled += s.DurationHours
	}
	require.Positive(t, scheduled)
	assert.Greater(t, hours["phys"]/scheduled, 0.8,
		"5-credit confidence-1 subject must dominate a 1-credit confidence-5 one")
}

func TestAllocateNoAdjacentHighLoad(t *testing.T) {
	subjects := []models.Subject{
		{ID: "a", Name: "A", Credits: 5, ConfidenceLevel: 1},
		{ID: "b", Name: "B", Credits: 5, ConfidenceLevel: 1},
		{ID: "c", Name: "C", Credits: 5, ConfidenceLevel: 2},
	}

	sessions, err := Allocate(Input{
		PlanID:   "plan-1",
		Subjects: subjects,
		Weights:  ComputeWeights(subjects),
		Days:     twoWeekDays(t),
	})
	require.NoError(t, err)
	require.NotEmpty(t, sessions)

	ordered := chronological(sessions)
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].CognitiveLoad == models.LoadHigh {
			assert.NotEqual(t, models.LoadHigh, ordered[i].CognitiveLoad,
				"sessions %d and %d are both high load", i-1, i)
		}
	}
}

func TestAllocateBufferCadence(t *testing.T) {
	subjects := scenarioSubjects()
	days := twoWeekDays(t)

	sessions, err := Allocate(Input{
		PlanID:   "plan-1",
		Subjects: subjects,
		Weights:  ComputeWeights(subjects),
		Days:     days,
	})
	require.NoError(t, err)

	var buffers []models.Session
	for _, s := range sessions {
		if s.SessionType == models.SessionBuffer {
			buffers = append(buffers, s)
		}
	}
	require.Len(t, buffers, 2, "one buffer per 7-day cycle over 14 days")
	assert.Equal(t, DayKey(days[6].Date), DayKey(buffers[0].Date))
	assert.Equal(t, DayKey(days[13].Date), DayKey(buffers[1].Date))

	for _, b := range buffers {
		assert.Equal(t, models.LoadLow, b.CognitiveLoad)
		assert.Empty(t, b.SubjectID)
		// Buffer closes out the day.
		for _, s := range sessions {
			if DayKey(s.Date) == DayKey(b.Date) && s.SessionType != models.SessionBuffer {
				assert.LessOrEqual(t, s.StartTime, b.StartTime)
			}
		}
	}
}

func TestAllocateSessionTypeRotation(t *testing.T) {
	subjects := []models.Subject{
		{ID: "calc", Name: "Calculus", Credits: 3, ConfidenceLevel: 3, WeakAreas: pq.StringArray{"integration"}},
	}

	sessions, err := Allocate(Input{
		PlanID:   "plan-1",
		Subjects: subjects,
		Weights:  ComputeWeights(subjects),
		Days:     twoWeekDays(t),
	})
	require.NoError(t, err)

	var types []models.SessionType
	for _, s := range chronological(sessions) {
		if s.SubjectID == "calc" {
			types = append(types, s.SessionType)
		}
	}
	require.GreaterOrEqual(t, len(types), 4)
	// Weak-area subjects revise twice per cycle.
	want := []models.SessionType{models.SessionLearning, models.SessionPractice, models.SessionRevision, models.SessionRevision}
	assert.Equal(t, want, types[:4])
}

func TestAllocateTopicsVisitWeakAreasFirst(t *testing.T) {
	subjects := []models.Subject{
		{ID: "calc", Name: "Calculus", Credits: 3, ConfidenceLevel: 2,
			WeakAreas: pq.StringArray{"integration", "series"}, StrongAreas: pq.StringArray{"derivatives"}},
	}

	sessions, err := Allocate(Input{
		PlanID:   "plan-1",
		Subjects: subjects,
		Weights:  ComputeWeights(subjects),
		Days:     twoWeekDays(t),
	})
	require.NoError(t, err)
	require.NotEmpty(t, sessions)

	first := chronological(sessions)[0]
	require.Len(t, first.Topics, 3)
	assert.Equal(t, "integration", first.Topics[0])
	assert.Equal(t, "series", first.Topics[1])
}

func TestAllocateNoSubjects(t *testing.T) {
	_, err := Allocate(Input{PlanID: "plan-1", Days: twoWeekDays(t)})
	assert.ErrorIs(t, err, ErrNoSubjects)
}

func TestAllocateSkipsFullyReservedDays(t *testing.T) {
	subjects := scenarioSubjects()
	days := twoWeekDays(t)

	reserved := map[string]float64{DayKey(days[0].Date): days[0].BudgetHours}
	sessions, err := Allocate(Input{
		PlanID:   "plan-1",
		Subjects: subjects,
		Weights:  ComputeWeights(subjects),
		Days:     days,
		Reserved: reserved,
	})
	require.NoError(t, err)

	for _, s := range sessions {
		assert.NotEqual(t, DayKey(days[0].Date), DayKey(s.Date))
	}
}
