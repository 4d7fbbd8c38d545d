package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubloom/study-planner-api/internal/models"
)

func validationDays(t *testing.T) []Day {
	t.Helper()
	profile := models.Profile{WeekdayHours: 2, WeekendHours: 2, PreferredStudyTime: models.StudyTimeEvening}
	days, err := BuildDays(profile, date(2026, time.February, 2), date(2026, time.February, 8))
	require.NoError(t, err)
	return days
}

func TestValidateSessionsRejectsOverbudgetDay(t *testing.T) {
	days := validationDays(t)
	subjects := []models.Subject{{ID: "calc", Name: "Calculus"}}

	sessions := []models.Session{
		{SubjectID: "calc", Date: days[0].Date, DurationHours: 2, SessionType: models.SessionLearning, CognitiveLoad: models.LoadMedium},
		{SubjectID: "calc", Date: days[0].Date, DurationHours: 1, SessionType: models.SessionRevision, CognitiveLoad: models.LoadMedium},
	}
	err := ValidateSessions(sessions, days, subjects)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds budget")
}

func TestValidateSessionsRejectsUnknownSubject(t *testing.T) {
	days := validationDays(t)

	sessions := []models.Session{
		{SubjectID: "ghost", Date: days[0].Date, DurationHours: 1, SessionType: models.SessionLearning, CognitiveLoad: models.LoadLow},
	}
	err := ValidateSessions(sessions, days, []models.Subject{{ID: "calc"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown subject")
}

func TestValidateSessionsRejectsDateOutsideRange(t *testing.T) {
	days := validationDays(t)

	sessions := []models.Session{
		{SubjectID: "calc", Date: date(2026, time.March, 1), DurationHours: 1, SessionType: models.SessionLearning, CognitiveLoad: models.LoadLow},
	}
	err := ValidateSessions(sessions, days, []models.Subject{{ID: "calc"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside plan range")
}

func TestValidateSessionsRejectsHighLoadBuffer(t *testing.T) {
	days := validationDays(t)

	sessions := []models.Session{
		{Date: days[0].Date, DurationHours: 0.5, SessionType: models.SessionBuffer, CognitiveLoad: models.LoadHigh},
	}
	err := ValidateSessions(sessions, days, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low load")
}

func TestValidateSessionsRejectsBadEnums(t *testing.T) {
	days := validationDays(t)
	subjects := []models.Subject{{ID: "calc"}}

	err := ValidateSessions([]models.Session{
		{SubjectID: "calc", Date: days[0].Date, DurationHours: 1, SessionType: "cram", CognitiveLoad: models.LoadLow},
	}, days, subjects)
	assert.Error(t, err)

	err = ValidateSessions([]models.Session{
		{SubjectID: "calc", Date: days[0].Date, DurationHours: 1, SessionType: models.SessionLearning, CognitiveLoad: "extreme"},
	}, days, subjects)
	assert.Error(t, err)
}

func TestValidateSessionsEmptyRange(t *testing.T) {
	err := ValidateSessions(nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
