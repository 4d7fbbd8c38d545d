package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubloom/study-planner-api/internal/models"
)

var reviewDay = time.Date(2026, time.May, 4, 15, 30, 0, 0, time.UTC)

func freshCard() models.Flashcard {
	return models.Flashcard{ID: "card-1", EaseFactor: models.DefaultEaseFactor}
}

func TestApplyGoodGrowsIntervals(t *testing.T) {
	card := freshCard()

	card = Apply(card, GradeGood, reviewDay)
	assert.Equal(t, 1, card.Repetitions)
	assert.Equal(t, 1, card.IntervalDays)
	assert.InDelta(t, 2.5, card.EaseFactor, 1e-9)

	card = Apply(card, GradeGood, reviewDay.AddDate(0, 0, 1))
	assert.Equal(t, 2, card.Repetitions)
	assert.Equal(t, 6, card.IntervalDays)

	card = Apply(card, GradeGood, reviewDay.AddDate(0, 0, 7))
	assert.Equal(t, 3, card.Repetitions)
	assert.Equal(t, 15, card.IntervalDays)
}

func TestApplyAgainResetsSchedule(t *testing.T) {
	card := freshCard()
	card.Repetitions = 4
	card.IntervalDays = 30

	card = Apply(card, GradeAgain, reviewDay)
	assert.Equal(t, 0, card.Repetitions)
	assert.Equal(t, 1, card.IntervalDays)
	assert.InDelta(t, 2.3, card.EaseFactor, 1e-9)
	assert.Equal(t, time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC), card.DueDate)
}

func TestApplyEaseNeverBelowFloor(t *testing.T) {
	card := freshCard()
	for i := 0; i < 20; i++ {
		card = Apply(card, GradeAgain, reviewDay)
		assert.GreaterOrEqual(t, card.EaseFactor, models.MinEaseFactor)
	}
	assert.InDelta(t, models.MinEaseFactor, card.EaseFactor, 1e-9)
}

func TestApplyHardLowersEaseEasyRaisesIt(t *testing.T) {
	hard := Apply(freshCard(), GradeHard, reviewDay)
	assert.InDelta(t, 2.36, hard.EaseFactor, 1e-9)

	easy := Apply(freshCard(), GradeEasy, reviewDay)
	assert.InDelta(t, 2.6, easy.EaseFactor, 1e-9)
}

func TestApplyDefaultsZeroEase(t *testing.T) {
	card := Apply(models.Flashcard{ID: "card-2"}, GradeGood, reviewDay)
	assert.InDelta(t, models.DefaultEaseFactor, card.EaseFactor, 1e-9)
}

func TestApplyDueDateFromMidnight(t *testing.T) {
	card := Apply(freshCard(), GradeGood, reviewDay)
	assert.Equal(t, time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC), card.DueDate)
}

func TestParseGrade(t *testing.T) {
	for raw, want := range map[string]Grade{
		"again": GradeAgain,
		"hard":  GradeHard,
		"good":  GradeGood,
		"easy":  GradeEasy,
	} {
		got, err := ParseGrade(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseGrade("meh")
	assert.Error(t, err)
}
