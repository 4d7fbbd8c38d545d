// Package srs implements the SM-2 variant used for flashcard review
// scheduling. It is independent of the study-plan engine and consumes only
// graded review events.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/edubloom/study-planner-api/internal/models"
)

// Grade is the student's self-assessment of a review.
type Grade int

const (
	GradeAgain Grade = iota
	GradeHard
	GradeGood
	GradeEasy
)

var gradeNames = map[Grade]string{
	GradeAgain: "again",
	GradeHard:  "hard",
	GradeGood:  "good",
	GradeEasy:  "easy",
}

var gradesByName = map[string]Grade{
	"again": GradeAgain,
	"hard":  GradeHard,
	"good":  GradeGood,
	"easy":  GradeEasy,
}

func (g Grade) String() string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return fmt.Sprintf("grade(%d)", int(g))
}

// ParseGrade maps the wire representation onto a Grade.
func ParseGrade(raw string) (Grade, error) {
	g, ok := gradesByName[raw]
	if !ok {
		return 0, fmt.Errorf("unknown grade %q", raw)
	}
	return g, nil
}

// Apply advances a card's scheduling state for one graded review.
// "again" resets repetitions and the interval; passing grades grow the
// interval 1 → 6 → round(previous × ease). Ease never drops below the
// 1.3 floor.
func Apply(card models.Flashcard, grade Grade, today time.Time) models.Flashcard {
	if card.EaseFactor == 0 {
		card.EaseFactor = models.DefaultEaseFactor
	}

	if grade == GradeAgain {
		card.Repetitions = 0
		card.IntervalDays = 1
		card.EaseFactor = clampEase(card.EaseFactor - 0.2)
	} else {
		card.Repetitions++
		q := float64(3 - grade)
		card.EaseFactor = clampEase(card.EaseFactor + (0.1 - q*(0.08+q*0.02)))

		switch card.Repetitions {
		case 1:
			card.IntervalDays = 1
		case 2:
			card.IntervalDays = 6
		default:
			card.IntervalDays = int(math.Round(float64(card.IntervalDays) * card.EaseFactor))
		}
	}

	card.DueDate = midnight(today).AddDate(0, 0, card.IntervalDays)
	return card
}

func clampEase(ef float64) float64 {
	if ef < models.MinEaseFactor {
		return models.MinEaseFactor
	}
	return ef
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
