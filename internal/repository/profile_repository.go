package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edubloom/study-planner-api/internal/models"
)

// ProfileRepository provides persistence for availability profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUser loads a user's availability profile.
func (r *ProfileRepository) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	const query = `SELECT user_id, weekday_hours, weekend_hours, preferred_study_time, target_date, created_at, updated_at FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert stores or replaces a user's availability profile.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO profiles (user_id, weekday_hours, weekend_hours, preferred_study_time, target_date, created_at, updated_at)
		VALUES (:user_id, :weekday_hours, :weekend_hours, :preferred_study_time, :target_date, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			weekday_hours = EXCLUDED.weekday_hours,
			weekend_hours = EXCLUDED.weekend_hours,
			preferred_study_time = EXCLUDED.preferred_study_time,
			target_date = EXCLUDED.target_date,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
