package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubloom/study-planner-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildDaysWeekdayWeekendBudgets(t *testing.T) {
	profile := models.Profile{
		WeekdayHours:       2,
		WeekendHours:       5,
		PreferredStudyTime: models.StudyTimeMorning,
	}

	// Monday through Sunday.
	days, err := BuildDays(profile, date(2026, time.January, 5), date(2026, time.January, 11))
	require.NoError(t, err)
	require.Len(t, days, 7)

	for i, d := range days[:5] {
		assert.Equal(t, 2.0, d.BudgetHours, "weekday %d", i)
		assert.Equal(t, "08:00", d.StartClock)
		assert.Equal(t, "10:00", d.EndClock)
	}
	for _, d := range days[5:] {
		assert.Equal(t, 5.0, d.BudgetHours)
		assert.Equal(t, "08:00", d.StartClock)
		assert.Equal(t, "13:00", d.EndClock)
	}
}

func TestBuildDaysInvalidRange(t *testing.T) {
	profile := models.Profile{WeekdayHours: 2, WeekendHours: 2}

	_, err := BuildDays(profile, date(2026, time.March, 10), date(2026, time.March, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = BuildDays(profile, date(2026, time.March, 10), date(2026, time.March, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestBuildDaysUnknownPreferenceFallsBackToEvening(t *testing.T) {
	profile := models.Profile{WeekdayHours: 3, WeekendHours: 3, PreferredStudyTime: "dawn"}

	days, err := BuildDays(profile, date(2026, time.January, 5), date(2026, time.January, 6))
	require.NoError(t, err)
	assert.Equal(t, "18:00", days[0].StartClock)
	assert.Equal(t, "21:00", days[0].EndClock)
}

func TestBuildDaysNightWindowTruncated(t *testing.T) {
	profile := models.Profile{
		WeekdayHours:       30,
		WeekendHours:       30,
		PreferredStudyTime: models.StudyTimeNight,
	}

	days, err := BuildDays(profile, date(2026, time.January, 5), date(2026, time.January, 6))
	require.NoError(t, err)
	// 21:00 anchor leaves at most 27h before the window would cross into
	// the day after next.
	assert.Equal(t, 27.0, days[0].BudgetHours)
	assert.Equal(t, "00:00", days[0].EndClock)
}
