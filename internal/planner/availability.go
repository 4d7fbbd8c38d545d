package planner

import (
	"fmt"
	"time"

	"github.com/edubloom/study-planner-api/internal/models"
)

// Window anchors in minutes from midnight, keyed by preferred study time.
var anchorMinutes = map[string]int{
	models.StudyTimeMorning:   8 * 60,
	models.StudyTimeAfternoon: 14 * 60,
	models.StudyTimeEvening:   18 * 60,
	models.StudyTimeNight:     21 * 60,
}

const defaultAnchor = 18 * 60

// minutesPerTwoDays bounds a window so it never crosses into day+2.
const minutesPerTwoDays = 48 * 60

// BuildDays expands weekday/weekend hour budgets and the preferred time
// window into one Day per calendar date in [start, target]. Saturday and
// Sunday use the weekend budget. The window opens at the preferred anchor
// and spans the budget, truncated rather than crossing into day+2.
func BuildDays(profile models.Profile, start, target time.Time) ([]Day, error) {
	start = midnightUTC(start)
	target = midnightUTC(target)
	if !target.After(start) {
		return nil, ErrInvalidRange
	}

	anchor, ok := anchorMinutes[profile.PreferredStudyTime]
	if !ok {
		anchor = defaultAnchor
	}

	var days []Day
	for date := start; !date.After(target); date = date.AddDate(0, 0, 1) {
		budget := profile.WeekdayHours
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			budget = profile.WeekendHours
		}
		if budget < 0 {
			budget = 0
		}

		endMin := anchor + int(budget*60)
		if endMin > minutesPerTwoDays {
			endMin = minutesPerTwoDays
			budget = float64(endMin-anchor) / 60
		}

		days = append(days, Day{
			Date:        date,
			BudgetHours: budget,
			StartClock:  clockString(anchor),
			EndClock:    clockString(endMin),
		})
	}
	return days, nil
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", (minutes/60)%24, minutes%60)
}

func clockMinutes(clock string) int {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0
	}
	return h*60 + m
}
