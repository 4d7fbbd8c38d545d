package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edubloom/study-planner-api/internal/models"
	appErrors "github.com/edubloom/study-planner-api/pkg/errors"
	"github.com/edubloom/study-planner-api/pkg/jobs"
)

type progressStore interface {
	Insert(ctx context.Context, entry *models.ProgressEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ProgressEntry, error)
}

type progressPlanReader interface {
	GetByUser(ctx context.Context, userID string) (*models.StudyPlan, error)
}

type progressSubjectReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.Subject, error)
}

type dueCounter interface {
	CountDue(ctx context.Context, userID string, asOf time.Time) (int, error)
}

// ProgressService tracks confidence history and computes measured progress
// statistics. History writes go through a background queue so confidence
// updates never block on audit persistence.
type ProgressService struct {
	store    progressStore
	plans    progressPlanReader
	subjects progressSubjectReader
	cards    dueCounter
	queue    *jobs.Queue
	logger   *zap.Logger
	now      func() time.Time
}

// ProgressServiceConfig sizes the background writer.
type ProgressServiceConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NewProgressService wires progress dependencies. The plan reader and due
// counter may be nil; their stats then read as zero.
func NewProgressService(store progressStore, plans progressPlanReader, subjects progressSubjectReader, cards dueCounter, logger *zap.Logger, cfg ProgressServiceConfig) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ProgressService{
		store:    store,
		plans:    plans,
		subjects: subjects,
		cards:    cards,
		logger:   logger,
		now:      time.Now,
	}
	s.queue = jobs.NewQueue("progress-history", s.handleRecord, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the background history writer.
func (s *ProgressService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background history writer.
func (s *ProgressService) Stop() {
	s.queue.Stop()
}

// RecordConfidence queues one confidence-history entry.
func (s *ProgressService) RecordConfidence(entry models.ProgressEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = s.now().UTC()
	}
	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: "confidence_recorded", Payload: entry}); err != nil {
		s.logger.Warn("progress entry dropped",
			zap.String("user_id", entry.UserID),
			zap.String("subject_id", entry.SubjectID),
			zap.Error(err))
	}
}

func (s *ProgressService) handleRecord(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.ProgressEntry)
	if !ok {
		s.logger.Error("unexpected progress payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.store.Insert(ctx, &entry)
}

// History returns the user's confidence history, newest first.
func (s *ProgressService) History(ctx context.Context, userID string, limit int) ([]models.ProgressEntry, error) {
	entries, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list progress history")
	}
	return entries, nil
}

// Stats aggregates measured completion state. Only observed facts are
// reported; there is no projected completion date.
func (s *ProgressService) Stats(ctx context.Context, userID string) (*models.ProgressStats, error) {
	stats := &models.ProgressStats{}

	if s.plans != nil {
		plan, err := s.plans.GetByUser(ctx, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load study plan")
		}
		if plan != nil {
			for _, sess := range plan.Sessions {
				stats.TotalSessions++
				stats.TotalHours += sess.DurationHours
				if sess.Completed {
					stats.CompletedSessions++
					stats.CompletedHours += sess.DurationHours
				}
			}
			if stats.TotalSessions > 0 {
				stats.CompletionRate = roundHalf(float64(stats.CompletedSessions) / float64(stats.TotalSessions) * 100)
			}
		}
	}

	subjects, err := s.subjects.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subjects")
	}
	stats.SubjectsTracked = len(subjects)
	if len(subjects) > 0 {
		var total int
		for _, sub := range subjects {
			total += sub.ConfidenceLevel
		}
		stats.AverageConfidence = roundHalf(float64(total) / float64(len(subjects)))
	}

	if s.cards != nil {
		due, err := s.cards.CountDue(ctx, userID, s.now().UTC())
		if err != nil {
			s.logger.Warn("due count failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			stats.CardsDueToday = due
		}
	}

	return stats, nil
}
