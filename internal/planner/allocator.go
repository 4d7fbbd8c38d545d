package planner

import (
	"math"
	"sort"

	"github.com/lib/pq"

	"github.com/edubloom/study-planner-api/internal/models"
)

const bufferShare = 0.2

var bufferTopics = []string{"Review and catch-up"}

// Input carries everything the allocator needs. Reserved and Buffered let a
// rebalance account for frozen sessions that already occupy part of a day;
// DayOffset preserves the buffer cadence across the frozen/discardable split.
type Input struct {
	PlanID   string
	Subjects []models.Subject
	Weights  map[string]float64
	Days     []Day
	Reserved map[string]float64
	Buffered map[string]bool
	// DayOffset is the index of Days[0] within the full plan range.
	DayOffset int
	// PrevLoad is the cognitive load of the last session preceding Days[0].
	PrevLoad models.CognitiveLoad
	Options  Options
}

// Allocate walks the day sequence chronologically and assigns subjects,
// session types, topics and cognitive loads within each day's budget.
// Sessions carry no IDs; the caller assigns them so output stays
// reproducible for identical inputs.
func Allocate(in Input) ([]models.Session, error) {
	if len(in.Subjects) == 0 {
		return nil, ErrNoSubjects
	}
	opts := in.Options.normalize()

	ordered := orderSubjects(in.Subjects, in.Weights)
	state := &allocState{
		weights:     in.Weights,
		allocated:   make(map[string]float64, len(ordered)),
		typeCount:   make(map[string]int, len(ordered)),
		topicCursor: make(map[string]int, len(ordered)),
	}

	var sessions []models.Session
	prevLoad := in.PrevLoad

	for i, day := range in.Days {
		key := DayKey(day.Date)
		budget := day.BudgetHours - in.Reserved[key]
		if budget < opts.MinSessionHours-1e-9 {
			continue
		}

		globalIdx := in.DayOffset + i
		bufferHours := 0.0
		if (globalIdx+1)%opts.BufferCadence == 0 && !in.Buffered[key] {
			bufferHours = floorToGranularity(budget*bufferShare, opts.MinSessionHours)
			if bufferHours < opts.MinSessionHours {
				bufferHours = math.Min(opts.MinSessionHours, floorToGranularity(budget, opts.MinSessionHours))
			}
		}

		windowStart := clockMinutes(day.StartClock)
		cursor := windowStart + int(math.Round(in.Reserved[key]*60))
		softCutoff := windowStart + int(opts.PreferredWindowHours*60)

		remaining := budget - bufferHours
		usedToday := make(map[string]bool, len(ordered))

		for remaining >= opts.MinSessionHours-1e-9 {
			chunk := floorToGranularity(math.Min(opts.MaxSessionHours, remaining), opts.MinSessionHours)
			if chunk < opts.MinSessionHours {
				break
			}

			subject := state.pick(ordered, usedToday, chunk)
			if subject == nil {
				// Round exhausted; start the next weighted round.
				for k := range usedToday {
					delete(usedToday, k)
				}
				subject = state.pick(ordered, usedToday, chunk)
				if subject == nil {
					break
				}
			}
			usedToday[subject.ID] = true

			sessionType := state.nextType(*subject)
			load := loadFor(subject.ConfidenceLevel, sessionType)
			if cursor >= softCutoff && load == models.LoadHigh {
				load = models.LoadMedium
			}
			if prevLoad == models.LoadHigh && load == models.LoadHigh {
				// Back-to-back high load: demote practice to revision,
				// otherwise cap the load itself.
				if sessionType == models.SessionPractice {
					sessionType = models.SessionRevision
					load = loadFor(subject.ConfidenceLevel, sessionType)
				}
				if load == models.LoadHigh {
					load = models.LoadMedium
				}
			}

			topics := state.nextTopics(*subject)
			durMin := int(math.Round(chunk * 60))
			sessions = append(sessions, models.Session{
				PlanID:        in.PlanID,
				SubjectID:     subject.ID,
				SubjectName:   subject.Name,
				Date:          day.Date,
				StartTime:     clockString(cursor),
				EndTime:       clockString(cursor + durMin),
				DurationHours: chunk,
				SessionType:   sessionType,
				CognitiveLoad: load,
				Topics:        pq.StringArray(topics),
				Color:         subject.Color,
			})

			state.commit(subject.ID, chunk)
			cursor += durMin
			remaining -= chunk
			prevLoad = load
		}

		if bufferHours >= opts.MinSessionHours-1e-9 {
			durMin := int(math.Round(bufferHours * 60))
			sessions = append(sessions, models.Session{
				PlanID:        in.PlanID,
				SubjectName:   "Buffer",
				Date:          day.Date,
				StartTime:     clockString(cursor),
				EndTime:       clockString(cursor + durMin),
				DurationHours: bufferHours,
				SessionType:   models.SessionBuffer,
				CognitiveLoad: models.LoadLow,
				Topics:        pq.StringArray(append([]string(nil), bufferTopics...)),
			})
			prevLoad = models.LoadLow
		}
	}

	return sessions, nil
}

type allocState struct {
	weights     map[string]float64
	allocated   map[string]float64
	typeCount   map[string]int
	topicCursor map[string]int
	grandTotal  float64
}

// pick returns the unused subject with the largest allocation deficit.
// Load adjacency is resolved at emission time by demotion; steering the
// choice itself toward low-load subjects would hand a low-weight subject
// hours its weight does not justify.
func (st *allocState) pick(ordered []models.Subject, used map[string]bool, chunk float64) *models.Subject {
	var best *models.Subject
	bestScore := math.Inf(-1)
	for i := range ordered {
		s := &ordered[i]
		if used[s.ID] {
			continue
		}
		score := st.weights[s.ID]*(st.grandTotal+chunk) - st.allocated[s.ID]
		if score > bestScore {
			best = s
			bestScore = score
		}
	}
	return best
}

func (st *allocState) commit(subjectID string, hours float64) {
	st.allocated[subjectID] += hours
	st.grandTotal += hours
	st.typeCount[subjectID]++
}

func (st *allocState) nextType(s models.Subject) models.SessionType {
	cycle := rotationFor(s)
	return cycle[st.typeCount[s.ID]%len(cycle)]
}

// nextTopics draws up to three topics round-robin, weak areas first, so
// every weak area is visited before any topic repeats.
func (st *allocState) nextTopics(s models.Subject) []string {
	pool := make([]string, 0, len(s.WeakAreas)+len(s.StrongAreas))
	pool = append(pool, s.WeakAreas...)
	pool = append(pool, s.StrongAreas...)
	if len(pool) == 0 {
		return nil
	}

	n := 3
	if len(pool) < n {
		n = len(pool)
	}
	cursor := st.topicCursor[s.ID]
	topics := make([]string, 0, n)
	for i := 0; i < n; i++ {
		topics = append(topics, pool[(cursor+i)%len(pool)])
	}
	st.topicCursor[s.ID] = (cursor + n) % len(pool)
	return topics
}

// rotationFor returns the session-type cycle for a subject. Subjects
// carrying weak areas revise twice per cycle.
func rotationFor(s models.Subject) []models.SessionType {
	if len(s.WeakAreas) > 0 {
		return []models.SessionType{models.SessionLearning, models.SessionPractice, models.SessionRevision, models.SessionRevision}
	}
	return []models.SessionType{models.SessionLearning, models.SessionPractice, models.SessionRevision}
}

func loadFor(confidence int, t models.SessionType) models.CognitiveLoad {
	if t == models.SessionBuffer {
		return models.LoadLow
	}
	if confidence <= 2 && (t == models.SessionLearning || t == models.SessionPractice) {
		return models.LoadHigh
	}
	if confidence == 3 || t == models.SessionRevision {
		return models.LoadMedium
	}
	return models.LoadLow
}

// orderSubjects yields a deterministic priority order: weight descending,
// then name, then ID.
func orderSubjects(subjects []models.Subject, weights map[string]float64) []models.Subject {
	ordered := make([]models.Subject, len(subjects))
	copy(ordered, subjects)
	sort.SliceStable(ordered, func(i, j int) bool {
		wi, wj := weights[ordered[i].ID], weights[ordered[j].ID]
		if wi != wj {
			return wi > wj
		}
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func floorToGranularity(v, granularity float64) float64 {
	if granularity <= 0 {
		return v
	}
	return math.Floor(v/granularity+1e-9) * granularity
}
