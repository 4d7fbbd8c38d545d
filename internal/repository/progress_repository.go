package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edubloom/study-planner-api/internal/models"
)

// ProgressRepository provides persistence for confidence history.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Insert appends one confidence-history entry.
func (r *ProgressRepository) Insert(ctx context.Context, entry *models.ProgressEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const query = `INSERT INTO progress_entries (id, user_id, subject_id, subject_name, confidence_level, recorded_at)
		VALUES (:id, :user_id, :subject_id, :subject_name, :confidence_level, :recorded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert progress entry: %w", err)
	}
	return nil
}

// ListByUser returns a user's confidence history, newest first.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ProgressEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id, user_id, subject_id, subject_name, confidence_level, recorded_at FROM progress_entries WHERE user_id = $1 ORDER BY recorded_at DESC LIMIT %d`, limit)
	var entries []models.ProgressEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list progress entries: %w", err)
	}
	return entries, nil
}
