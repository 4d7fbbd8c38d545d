// Command plan_preview runs the deterministic allocator against a local
// fixture and prints the resulting schedule. Useful for eyeballing how a
// change to the weighting or load rules reshapes a plan without standing up
// the API or a database.
//
// Fixture format:
//
//	{
//	  "profile": {"weekday_hours": 3, "weekend_hours": 6, "preferred_study_time": "evening"},
//	  "start_date": "2026-01-05",
//	  "target_date": "2026-01-18",
//	  "subjects": [
//	    {"id": "calc", "name": "Calculus", "credits": 3, "confidence_level": 2,
//	     "weak_areas": ["integration"], "color": "#6366F1"}
//	  ]
//	}
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/edubloom/study-planner-api/internal/models"
	"github.com/edubloom/study-planner-api/internal/planner"
)

type fixture struct {
	Profile    models.Profile   `json:"profile"`
	StartDate  string           `json:"start_date"`
	TargetDate string           `json:"target_date"`
	Subjects   []models.Subject `json:"subjects"`
}

func main() {
	var (
		path    string
		asJSON  bool
		cadence int
	)
	flag.StringVar(&path, "fixture", "scripts/plan_preview/fixture.json", "path to the plan fixture")
	flag.BoolVar(&asJSON, "json", false, "print sessions as JSON instead of a table")
	flag.IntVar(&cadence, "buffer-cadence", 7, "days between buffer sessions")
	flag.Parse()

	fx, err := loadFixture(path)
	if err != nil {
		log.Fatalf("load fixture: %v", err)
	}

	start, err := time.ParseInLocation("2006-01-02", fx.StartDate, time.UTC)
	if err != nil {
		log.Fatalf("bad start_date: %v", err)
	}
	target, err := time.ParseInLocation("2006-01-02", fx.TargetDate, time.UTC)
	if err != nil {
		log.Fatalf("bad target_date: %v", err)
	}

	days, err := planner.BuildDays(fx.Profile, start, target)
	if err != nil {
		log.Fatalf("build days: %v", err)
	}
	weights := planner.ComputeWeights(fx.Subjects)

	sessions, err := planner.Allocate(planner.Input{
		PlanID:   "preview",
		Subjects: fx.Subjects,
		Weights:  weights,
		Days:     days,
		Options: planner.Options{
			BufferCadence:        cadence,
			MinSessionHours:      0.5,
			MaxSessionHours:      2,
			PreferredWindowHours: 4,
		},
	})
	if err != nil {
		log.Fatalf("allocate: %v", err)
	}
	if err := planner.ValidateSessions(sessions, days, fx.Subjects); err != nil {
		log.Fatalf("allocator produced an invalid plan: %v", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sessions); err != nil {
			log.Fatalf("encode sessions: %v", err)
		}
		return
	}

	fmt.Printf("plan %s -> %s, %d sessions\n\n", fx.StartDate, fx.TargetDate, len(sessions))
	for _, s := range sessions {
		name := s.SubjectName
		if s.SessionType == models.SessionBuffer {
			name = "(buffer)"
		}
		fmt.Printf("%s  %s-%s  %-12s %-9s %-6s %.1fh  w=%.2f\n",
			s.Date.Format("Mon 2006-01-02"), s.StartTime, s.EndTime,
			name, s.SessionType, s.CognitiveLoad, s.DurationHours, weights[s.SubjectID])
	}
}

func loadFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(fx.Subjects) == 0 {
		return nil, fmt.Errorf("%s: fixture has no subjects", path)
	}
	return &fx, nil
}
