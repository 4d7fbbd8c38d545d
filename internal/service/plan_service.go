package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/edubloom/study-planner-api/internal/ai"
	"github.com/edubloom/study-planner-api/internal/dto"
	"github.com/edubloom/study-planner-api/internal/models"
	"github.com/edubloom/study-planner-api/internal/planner"
	"github.com/edubloom/study-planner-api/internal/repository"
	"github.com/edubloom/study-planner-api/pkg/config"
	appErrors "github.com/edubloom/study-planner-api/pkg/errors"
	"github.com/edubloom/study-planner-api/pkg/locks"
)

type planSubjectReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	UpdateConfidence(ctx context.Context, id string, level int) error
}

type planProfileReader interface {
	GetByUser(ctx context.Context, userID string) (*models.Profile, error)
}

type planStore interface {
	GetByUser(ctx context.Context, userID string) (*models.StudyPlan, error)
	Replace(ctx context.Context, plan *models.StudyPlan, expectedVersion int) error
	FindSession(ctx context.Context, id string) (*models.Session, error)
	CompleteSession(ctx context.Context, id string, at time.Time) (*models.Session, error)
}

type planGenerator interface {
	GeneratePlan(ctx context.Context, req ai.PlanRequest) (*dto.PlanDraft, error)
}

type confidenceRecorder interface {
	RecordConfidence(entry models.ProgressEntry)
}

type planMetrics interface {
	PlanGenerated(source models.PlanSource, elapsed time.Duration)
	FallbackUsed(reason string)
}

// PlanServiceConfig tunes plan generation.
type PlanServiceConfig struct {
	Planner config.PlannerConfig
	// AIEnabled gates the external generation delegate; when off every
	// plan comes from the deterministic allocator.
	AIEnabled bool
	AITimeout time.Duration
	// DefaultHorizonDays sizes the plan when the profile has no target date.
	DefaultHorizonDays int
}

// PlanService owns the study-plan lifecycle: generation, rebalancing and
// session completion. Writes to a user's plan are serialised by a per-user
// advisory lock held only around the final validate-and-persist step.
type PlanService struct {
	subjects  planSubjectReader
	profiles  planProfileReader
	plans     planStore
	generator planGenerator
	progress  confidenceRecorder
	metrics   planMetrics
	locker    locks.UserLocker
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PlanServiceConfig
	now       func() time.Time
}

// NewPlanService wires plan dependencies. The generator, progress recorder
// and metrics sink may be nil.
func NewPlanService(
	subjects planSubjectReader,
	profiles planProfileReader,
	plans planStore,
	generator planGenerator,
	progress confidenceRecorder,
	metrics planMetrics,
	locker locks.UserLocker,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlanServiceConfig,
) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = locks.NewMemory()
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 45 * time.Second
	}
	if cfg.DefaultHorizonDays <= 0 {
		cfg.DefaultHorizonDays = 14
	}
	return &PlanService{
		subjects:  subjects,
		profiles:  profiles,
		plans:     plans,
		generator: generator,
		progress:  progress,
		metrics:   metrics,
		locker:    locker,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// GetPlan returns the user's active plan.
func (s *PlanService) GetPlan(ctx context.Context, userID string) (*models.StudyPlan, error) {
	plan, err := s.plans.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no study plan yet, generate one first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load study plan")
	}
	return plan, nil
}

// Generate produces the user's plan. An existing plan is returned untouched
// unless regenerate is set, in which case it is replaced under the same ID
// with an incremented version.
func (s *PlanService) Generate(ctx context.Context, userID string, regenerate bool) (*models.StudyPlan, error) {
	subjects, err := s.subjects.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subjects")
	}
	if len(subjects) == 0 {
		return nil, appErrors.ErrNoSubjects
	}

	existing, err := s.plans.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load study plan")
	}
	if existing != nil && !regenerate {
		return existing, nil
	}

	profile := s.loadProfile(ctx, userID)
	today := midnight(s.now())
	target := midnight(profile.TargetDate)
	if profile.TargetDate.IsZero() {
		target = today.AddDate(0, 0, s.cfg.DefaultHorizonDays)
	}

	days, err := planner.BuildDays(profile, today, target)
	if err != nil {
		if errors.Is(err, planner.ErrInvalidRange) {
			return nil, appErrors.ErrInvalidRange
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build availability")
	}

	weights := planner.ComputeWeights(subjects)

	planID := uuid.NewString()
	version := 1
	expectedVersion := 0
	if existing != nil {
		planID = existing.ID
		version = existing.Version + 1
		expectedVersion = existing.Version
	}

	sessions, source, draft := s.generateSessions(ctx, generationInput{
		PlanID:   planID,
		Profile:  profile,
		Subjects: subjects,
		Weights:  weights,
		Days:     days,
		Start:    today,
		Target:   target,
	})
	s.assignSessionIDs(sessions, planID)

	plan := &models.StudyPlan{
		ID:               planID,
		UserID:           userID,
		StartDate:        today,
		EndDate:          target,
		Sessions:         sessions,
		SubjectBreakdown: buildBreakdown(sessions, subjects, weights),
		Source:           source,
		Version:          version,
		GeneratedAt:      s.now().UTC(),
	}
	s.applyProse(plan, draft, subjects, weights)

	if err := s.persist(ctx, userID, plan, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.Info("study plan generated",
		zap.String("user_id", userID),
		zap.String("plan_id", planID),
		zap.String("source", string(source)),
		zap.Int("sessions", len(sessions)),
		zap.Int("version", version))
	return plan, nil
}

// Rebalance reacts to a confidence change: the subject is updated, the
// change is recorded, and the not-yet-started remainder of the plan is
// regenerated while past, completed and buffer sessions stay frozen.
func (s *PlanService) Rebalance(ctx context.Context, userID string, req dto.RebalanceRequest) (*models.StudyPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rebalance request")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil || subject.UserID != userID {
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subject")
	}

	if err := s.subjects.UpdateConfidence(ctx, subject.ID, req.NewConfidence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update confidence")
	}
	if s.progress != nil {
		s.progress.RecordConfidence(models.ProgressEntry{
			UserID:          userID,
			SubjectID:       subject.ID,
			SubjectName:     subject.Name,
			ConfidenceLevel: req.NewConfidence,
			RecordedAt:      s.now().UTC(),
		})
	}

	plan, err := s.plans.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.Generate(ctx, userID, true)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load study plan")
	}

	today := midnight(s.now())
	if !plan.EndDate.After(today) {
		// Plan horizon already passed; nothing left to reshape.
		return plan, nil
	}

	subjects, err := s.subjects.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subjects")
	}
	if len(subjects) == 0 {
		return nil, appErrors.ErrNoSubjects
	}

	profile := s.loadProfile(ctx, userID)
	days, err := planner.BuildDays(profile, today, plan.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build availability")
	}

	split := planner.SplitSessions(plan.Sessions, today)
	weights := planner.ComputeWeights(subjects)

	sessions, source, draft := s.generateSessions(ctx, generationInput{
		PlanID:    plan.ID,
		Profile:   profile,
		Subjects:  subjects,
		Weights:   weights,
		Days:      days,
		Start:     today,
		Target:    plan.EndDate,
		Reserved:  split.Reserved,
		Buffered:  split.Buffered,
		DayOffset: daysBetween(plan.StartDate, today),
		PrevLoad:  planner.LastLoadBefore(split.Frozen, today),
	})
	s.assignSessionIDs(sessions, plan.ID)

	merged := append(append([]models.Session(nil), split.Frozen...), sessions...)
	sortSessions(merged)

	expectedVersion := plan.Version
	plan.Sessions = merged
	plan.SubjectBreakdown = buildBreakdown(merged, subjects, weights)
	plan.Source = source
	plan.Version++
	plan.GeneratedAt = s.now().UTC()
	s.applyProse(plan, draft, subjects, weights)

	if err := s.persist(ctx, userID, plan, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.Info("study plan rebalanced",
		zap.String("user_id", userID),
		zap.String("subject_id", subject.ID),
		zap.Int("new_confidence", req.NewConfidence),
		zap.String("source", string(source)),
		zap.Int("frozen", len(split.Frozen)),
		zap.Int("regenerated", len(sessions)))
	return plan, nil
}

// CompleteSession marks one of the user's sessions done. Completing an
// already-completed session is a no-op returning the stored state.
func (s *PlanService) CompleteSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	session, err := s.plans.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load session")
	}

	plan, err := s.plans.GetByUser(ctx, userID)
	if err != nil || plan.ID != session.PlanID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	if session.Completed {
		return session, nil
	}

	updated, err := s.plans.CompleteSession(ctx, sessionID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "complete session")
	}
	return updated, nil
}

func (s *PlanService) persist(ctx context.Context, userID string, plan *models.StudyPlan, expectedVersion int) error {
	release, ok, err := s.locker.TryLock(ctx, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "acquire plan lock")
	}
	if !ok {
		return appErrors.ErrPlanConflict
	}
	defer release()

	if err := s.plans.Replace(ctx, plan, expectedVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return appErrors.ErrPlanConflict
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist plan")
	}
	return nil
}

type generationInput struct {
	PlanID    string
	Profile   models.Profile
	Subjects  []models.Subject
	Weights   map[string]float64
	Days      []planner.Day
	Start     time.Time
	Target    time.Time
	Reserved  map[string]float64
	Buffered  map[string]bool
	DayOffset int
	PrevLoad  models.CognitiveLoad
}

// generateSessions tries the external generation service first and falls
// back to the deterministic allocator on any failure: timeout, transport
// error, or a draft that violates the plan invariants.
func (s *PlanService) generateSessions(ctx context.Context, in generationInput) ([]models.Session, models.PlanSource, *dto.PlanDraft) {
	started := s.now()

	if s.cfg.AIEnabled && s.generator != nil {
		draft, err := s.requestDraft(ctx, in)
		if err == nil {
			sessions, convErr := s.convertDraft(draft, in)
			if convErr == nil {
				s.observe(models.SourceAI, started)
				return sessions, models.SourceAI, draft
			}
			err = convErr
		}
		s.logger.Warn("generation service draft rejected, using fallback allocator",
			zap.String("plan_id", in.PlanID), zap.Error(err))
		if s.metrics != nil {
			s.metrics.FallbackUsed(fallbackReason(err))
		}
	}

	sessions, err := planner.Allocate(planner.Input{
		PlanID:    in.PlanID,
		Subjects:  in.Subjects,
		Weights:   in.Weights,
		Days:      in.Days,
		Reserved:  in.Reserved,
		Buffered:  in.Buffered,
		DayOffset: in.DayOffset,
		PrevLoad:  in.PrevLoad,
		Options: planner.Options{
			BufferCadence:        s.cfg.Planner.BufferCadence,
			MinSessionHours:      s.cfg.Planner.MinSessionHours,
			MaxSessionHours:      s.cfg.Planner.MaxSessionHours,
			PreferredWindowHours: s.cfg.Planner.PreferredWindowHours,
		},
	})
	if err != nil {
		// Subjects were checked upstream, so this only trips on empty input.
		s.logger.Error("fallback allocation failed", zap.String("plan_id", in.PlanID), zap.Error(err))
		sessions = nil
	}
	s.observe(models.SourceFallback, started)
	return sessions, models.SourceFallback, nil
}

func (s *PlanService) requestDraft(ctx context.Context, in generationInput) (*dto.PlanDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AITimeout)
	defer cancel()

	budgets := make([]ai.DayBudget, 0, len(in.Days))
	for _, d := range in.Days {
		budget := d.BudgetHours - in.Reserved[planner.DayKey(d.Date)]
		if budget <= 0 {
			continue
		}
		budgets = append(budgets, ai.DayBudget{
			Date:        planner.DayKey(d.Date),
			BudgetHours: budget,
			StartTime:   d.StartClock,
		})
	}

	draft, err := s.generator.GeneratePlan(ctx, ai.PlanRequest{
		Profile:    &in.Profile,
		Subjects:   in.Subjects,
		StartDate:  planner.DayKey(in.Start),
		TargetDate: planner.DayKey(in.Target),
		DailyHours: budgets,
	})
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, appErrors.ErrGenerationTimeout
	}
	return draft, err
}

// convertDraft resolves draft sessions against known subjects and validates
// the result. Any inconsistency rejects the whole draft.
func (s *PlanService) convertDraft(draft *dto.PlanDraft, in generationInput) ([]models.Session, error) {
	byName := make(map[string]*models.Subject, len(in.Subjects))
	for i := range in.Subjects {
		byName[strings.ToLower(strings.TrimSpace(in.Subjects[i].Name))] = &in.Subjects[i]
	}

	sessions := make([]models.Session, 0, len(draft.Sessions))
	for i, ds := range draft.Sessions {
		date, err := time.ParseInLocation("2006-01-02", ds.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("draft session %d: bad date %q", i, ds.Date)
		}

		session := models.Session{
			PlanID:        in.PlanID,
			SubjectName:   ds.SubjectName,
			Date:          date,
			StartTime:     ds.StartTime,
			EndTime:       ds.EndTime,
			DurationHours: ds.DurationHours,
			SessionType:   models.SessionType(ds.SessionType),
			CognitiveLoad: models.CognitiveLoad(ds.CognitiveLoad),
			Topics:        pq.StringArray(ds.Topics),
		}
		if session.SessionType != models.SessionBuffer {
			subject, ok := byName[strings.ToLower(strings.TrimSpace(ds.SubjectName))]
			if !ok {
				return nil, fmt.Errorf("draft session %d: unknown subject %q", i, ds.SubjectName)
			}
			session.SubjectID = subject.ID
			session.SubjectName = subject.Name
			session.Color = subject.Color
		}
		sessions = append(sessions, session)
	}

	days := adjustForReserved(in.Days, in.Reserved)
	if err := planner.ValidateSessions(sessions, days, in.Subjects); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *PlanService) assignSessionIDs(sessions []models.Session, planID string) {
	for i := range sessions {
		sessions[i].ID = uuid.NewString()
		sessions[i].PlanID = planID
	}
}

func (s *PlanService) loadProfile(ctx context.Context, userID string) models.Profile {
	profile, err := s.profiles.GetByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("profile load failed, using defaults", zap.String("user_id", userID), zap.Error(err))
		}
		return models.Profile{
			UserID:             userID,
			WeekdayHours:       3,
			WeekendHours:       6,
			PreferredStudyTime: models.StudyTimeEvening,
		}
	}
	return *profile
}

func (s *PlanService) applyProse(plan *models.StudyPlan, draft *dto.PlanDraft, subjects []models.Subject, weights map[string]float64) {
	// Draft prose is only usable when both lists meet the minimum; a plan
	// must always ship with at least three recommendations and next steps.
	if draft != nil && len(draft.Recommendations) >= 3 && len(draft.NextSteps) >= 3 {
		plan.Recommendations = pq.StringArray(clampList(draft.Recommendations, 6))
		plan.NextSteps = pq.StringArray(clampList(draft.NextSteps, 6))
		return
	}
	top := topSubject(subjects, weights)
	plan.Recommendations = pq.StringArray{
		fmt.Sprintf("Start with %s, it currently carries the highest urgency", top.Name),
		"Tackle weak areas early in each session while focus is fresh",
		"Keep high-intensity work inside your preferred study window",
		"Use the weekly buffer session to catch up instead of cramming",
	}
	plan.NextSteps = pq.StringArray{
		fmt.Sprintf("Complete the first %s session on day one", top.Name),
		"Mark sessions done as you finish them so progress stays accurate",
		"Update a subject's confidence after each milestone to trigger rebalancing",
	}
}

func (s *PlanService) observe(source models.PlanSource, started time.Time) {
	if s.metrics != nil {
		s.metrics.PlanGenerated(source, s.now().Sub(started))
	}
}

func buildBreakdown(sessions []models.Session, subjects []models.Subject, weights map[string]float64) models.SubjectBreakdown {
	byID := make(map[string]models.Subject, len(subjects))
	for _, sub := range subjects {
		byID[sub.ID] = sub
	}

	hours := make(map[string]float64)
	var total float64
	for _, sess := range sessions {
		if sess.SessionType == models.SessionBuffer {
			continue
		}
		hours[sess.SubjectID] += sess.DurationHours
		total += sess.DurationHours
	}

	breakdown := make(models.SubjectBreakdown, len(hours))
	for id, h := range hours {
		sub, ok := byID[id]
		if !ok {
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = h / total * 100
		}
		breakdown[sub.Name] = models.SubjectShare{
			Hours:      roundHalf(h),
			Percentage: roundHalf(pct),
			Justification: fmt.Sprintf("%.0f%% of study time based on %d credits and confidence %d/5",
				pct, sub.Credits, sub.ConfidenceLevel),
		}
	}
	return breakdown
}

func topSubject(subjects []models.Subject, weights map[string]float64) models.Subject {
	top := subjects[0]
	for _, sub := range subjects[1:] {
		if weights[sub.ID] > weights[top.ID] {
			top = sub
		}
	}
	return top
}

func adjustForReserved(days []planner.Day, reserved map[string]float64) []planner.Day {
	if len(reserved) == 0 {
		return days
	}
	adjusted := make([]planner.Day, len(days))
	copy(adjusted, days)
	for i := range adjusted {
		adjusted[i].BudgetHours -= reserved[planner.DayKey(adjusted[i].Date)]
		if adjusted[i].BudgetHours < 0 {
			adjusted[i].BudgetHours = 0
		}
	}
	return adjusted
}

func sortSessions(sessions []models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.Before(sessions[j].Date)
		}
		return sessions[i].StartTime < sessions[j].StartTime
	})
}

func clampList(items []string, max int) []string {
	if len(items) > max {
		items = items[:max]
	}
	return append([]string(nil), items...)
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrGenerationTimeout):
		return "timeout"
	case err != nil:
		return "invalid_draft"
	default:
		return "disabled"
	}
}

func roundHalf(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	from = midnight(from)
	to = midnight(to)
	return int(to.Sub(from).Hours() / 24)
}
