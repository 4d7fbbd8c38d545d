package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edubloom/study-planner-api/internal/models"
)

// SubjectRepository provides persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectColumns = `id, user_id, name, credits, confidence_level, strong_areas, weak_areas, color, created_at, updated_at`

// ListByUser returns all subjects for a user ordered by name.
func (r *SubjectRepository) ListByUser(ctx context.Context, userID string) ([]models.Subject, error) {
	query := fmt.Sprintf(`SELECT %s FROM subjects WHERE user_id = $1 ORDER BY name ASC`, subjectColumns)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, userID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID loads a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf(`SELECT %s FROM subjects WHERE id = $1`, subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// UpdateConfidence sets a subject's confidence level.
func (r *SubjectRepository) UpdateConfidence(ctx context.Context, id string, level int) error {
	const query = `UPDATE subjects SET confidence_level = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, level, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update subject confidence: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("subject %s not found", id)
	}
	return nil
}
