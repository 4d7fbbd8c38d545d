package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edubloom/study-planner-api/internal/dto"
	"github.com/edubloom/study-planner-api/internal/models"
	appErrors "github.com/edubloom/study-planner-api/pkg/errors"
)

type profileStore interface {
	GetByUser(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

// ProfileService manages the availability profile collected during
// onboarding.
type ProfileService struct {
	store     profileStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewProfileService wires profile dependencies.
func NewProfileService(store profileStore, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{store: store, validator: validate, logger: logger, now: time.Now}
}

// Get returns the caller's availability profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not set up yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load profile")
	}
	return profile, nil
}

// Upsert stores the caller's availability profile. The target date must be
// after today so the next generation has a non-empty range.
func (s *ProfileService) Upsert(ctx context.Context, userID string, req dto.UpsertProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile request")
	}

	target, err := time.ParseInLocation("2006-01-02", req.TargetDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target_date must be formatted YYYY-MM-DD")
	}
	if !target.After(midnight(s.now())) {
		return nil, appErrors.ErrInvalidRange
	}

	profile := &models.Profile{
		UserID:             userID,
		WeekdayHours:       req.WeekdayHours,
		WeekendHours:       req.WeekendHours,
		PreferredStudyTime: req.PreferredStudyTime,
		TargetDate:         target,
	}
	if err := s.store.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save profile")
	}
	return profile, nil
}
