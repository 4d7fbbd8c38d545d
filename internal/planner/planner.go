// Package planner implements the deterministic study-plan engine: the
// availability model, subject weighting, the session allocator with its
// cognitive-load constraints, draft validation, and the frozen/discardable
// split used by rebalancing. The package performs no I/O; identical inputs
// always produce identical output.
package planner

import (
	"errors"
	"time"
)

// ErrInvalidRange reports an empty planning range (target not after start).
var ErrInvalidRange = errors.New("target date must be after start date")

// ErrNoSubjects reports an allocation request without subjects.
var ErrNoSubjects = errors.New("no subjects to allocate")

// Day is one entry of the concrete per-day time-budget sequence.
type Day struct {
	Date        time.Time
	BudgetHours float64
	StartClock  string
	EndClock    string
}

// Options tunes the allocator. Zero values fall back to defaults.
type Options struct {
	// BufferCadence emits one low-load buffer session on the last day of
	// every cycle of this many days.
	BufferCadence int
	// MinSessionHours is the smallest schedulable granule.
	MinSessionHours float64
	// MaxSessionHours caps a single session.
	MaxSessionHours float64
	// PreferredWindowHours bounds the high-load portion of the day,
	// measured from the window anchor.
	PreferredWindowHours float64
}

func (o Options) normalize() Options {
	if o.BufferCadence <= 0 {
		o.BufferCadence = 7
	}
	if o.MinSessionHours <= 0 {
		o.MinSessionHours = 0.5
	}
	if o.MaxSessionHours <= 0 {
		o.MaxSessionHours = 2.0
	}
	if o.PreferredWindowHours <= 0 {
		o.PreferredWindowHours = 4.0
	}
	return o
}

const dayKeyLayout = "2006-01-02"

// DayKey renders a date as the map key used for reserved-hours bookkeeping.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}
