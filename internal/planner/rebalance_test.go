package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubloom/study-planner-api/internal/models"
)

func TestSplitSessionsFreezesPastCompletedAndBuffers(t *testing.T) {
	today := date(2026, time.April, 10)
	sessions := []models.Session{
		{ID: "past", Date: date(2026, time.April, 8), DurationHours: 2, SessionType: models.SessionLearning},
		{ID: "done", Date: date(2026, time.April, 12), DurationHours: 1.5, SessionType: models.SessionPractice, Completed: true},
		{ID: "buf", Date: date(2026, time.April, 14), DurationHours: 0.5, SessionType: models.SessionBuffer},
		{ID: "open", Date: date(2026, time.April, 13), DurationHours: 2, SessionType: models.SessionRevision},
	}

	split := SplitSessions(sessions, today)

	frozenIDs := make([]string, 0, len(split.Frozen))
	for _, s := range split.Frozen {
		frozenIDs = append(frozenIDs, s.ID)
	}
	assert.ElementsMatch(t, []string{"past", "done", "buf"}, frozenIDs)

	require.Len(t, split.Discarded, 1)
	assert.Equal(t, "open", split.Discarded[0].ID)

	// Past sessions reserve nothing going forward; future frozen ones do.
	assert.NotContains(t, split.Reserved, "2026-04-08")
	assert.InDelta(t, 1.5, split.Reserved["2026-04-12"], 1e-9)
	assert.InDelta(t, 0.5, split.Reserved["2026-04-14"], 1e-9)
	assert.True(t, split.Buffered["2026-04-14"])
	assert.False(t, split.Buffered["2026-04-12"])
}

func TestLastLoadBefore(t *testing.T) {
	frozen := []models.Session{
		{Date: date(2026, time.April, 8), StartTime: "18:00", CognitiveLoad: models.LoadMedium},
		{Date: date(2026, time.April, 9), StartTime: "18:00", CognitiveLoad: models.LoadHigh},
		{Date: date(2026, time.April, 9), StartTime: "20:00", CognitiveLoad: models.LoadLow},
	}

	assert.Equal(t, models.LoadLow, LastLoadBefore(frozen, date(2026, time.April, 10)))
	assert.Equal(t, models.CognitiveLoad(""), LastLoadBefore(nil, date(2026, time.April, 10)))
}

func TestRebalancedAllocationPreservesBudgetsAroundFrozen(t *testing.T) {
	profile := models.Profile{WeekdayHours: 2, WeekendHours: 4, PreferredStudyTime: models.StudyTimeEvening}
	today := date(2026, time.January, 12)
	days, err := BuildDays(profile, today, date(2026, time.January, 18))
	require.NoError(t, err)

	subjects := scenarioSubjects()
	frozen := []models.Session{
		{ID: "done", SubjectID: "calc", Date: date(2026, time.January, 13), StartTime: "18:00", DurationHours: 1, SessionType: models.SessionLearning, CognitiveLoad: models.LoadHigh, Completed: true},
	}
	split := SplitSessions(frozen, today)

	sessions, err := Allocate(Input{
		PlanID:    "plan-1",
		Subjects:  subjects,
		Weights:   ComputeWeights(subjects),
		Days:      days,
		Reserved:  split.Reserved,
		Buffered:  split.Buffered,
		DayOffset: 7,
		PrevLoad:  LastLoadBefore(split.Frozen, today),
	})
	require.NoError(t, err)
	require.NotEmpty(t, sessions)

	// Regenerated sessions plus the frozen hour must fit every budget.
	spent := map[string]float64{}
	for _, s := range sessions {
		spent[DayKey(s.Date)] += s.DurationHours
	}
	for _, s := range frozen {
		spent[DayKey(s.Date)] += s.DurationHours
	}
	for _, d := range days {
		assert.LessOrEqual(t, spent[DayKey(d.Date)], d.BudgetHours+1e-6, DayKey(d.Date))
	}
}
