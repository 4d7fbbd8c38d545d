package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edubloom/study-planner-api/internal/models"
)

// ErrVersionConflict reports a concurrent plan write detected by the
// optimistic version check.
var ErrVersionConflict = errors.New("plan version conflict")

// PlanRepository provides persistence for study plans and their sessions.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new plan repository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const sessionColumns = `id, plan_id, subject_id, subject_name, date, start_time, end_time, duration_hours, session_type, cognitive_load, topics, color, completed, completed_at`

type planRow struct {
	models.StudyPlan
	Breakdown []byte `db:"subject_breakdown"`
}

// GetByUser loads a user's active plan with all sessions ordered
// chronologically. Returns sql.ErrNoRows when the user has no plan.
func (r *PlanRepository) GetByUser(ctx context.Context, userID string) (*models.StudyPlan, error) {
	const query = `SELECT id, user_id, start_date, end_date, subject_breakdown, recommendations, next_steps, source, version, generated_at FROM study_plans WHERE user_id = $1`
	var row planRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, err
	}

	plan := row.StudyPlan
	if len(row.Breakdown) > 0 {
		if err := unmarshalBreakdown(row.Breakdown, &plan.SubjectBreakdown); err != nil {
			return nil, fmt.Errorf("decode subject breakdown: %w", err)
		}
	}

	sessionsQuery := fmt.Sprintf(`SELECT %s FROM sessions WHERE plan_id = $1 ORDER BY date ASC, start_time ASC`, sessionColumns)
	if err := r.db.SelectContext(ctx, &plan.Sessions, sessionsQuery, plan.ID); err != nil {
		return nil, fmt.Errorf("list plan sessions: %w", err)
	}
	return &plan, nil
}

// Replace writes a plan and its full session set atomically. The expected
// version guards against concurrent rebalance/regenerate on the same plan:
// 0 means the plan row must not exist yet, any other value must match the
// stored version. Frozen sessions are passed through unchanged by callers,
// so completed sessions keep their original values.
func (r *PlanRepository) Replace(ctx context.Context, plan *models.StudyPlan, expectedVersion int) error {
	breakdown, err := marshalBreakdown(plan.SubjectBreakdown)
	if err != nil {
		return fmt.Errorf("encode subject breakdown: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if expectedVersion == 0 {
		const insert = `INSERT INTO study_plans (id, user_id, start_date, end_date, subject_breakdown, recommendations, next_steps, source, version, generated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		if _, err = tx.ExecContext(ctx, insert,
			plan.ID, plan.UserID, plan.StartDate, plan.EndDate, breakdown,
			plan.Recommendations, plan.NextSteps, plan.Source, plan.Version, plan.GeneratedAt); err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
	} else {
		const update = `UPDATE study_plans SET start_date = $1, end_date = $2, subject_breakdown = $3, recommendations = $4, next_steps = $5, source = $6, version = $7, generated_at = $8
			WHERE id = $9 AND version = $10`
		var res sql.Result
		res, err = tx.ExecContext(ctx, update,
			plan.StartDate, plan.EndDate, breakdown, plan.Recommendations, plan.NextSteps,
			plan.Source, plan.Version, plan.GeneratedAt, plan.ID, expectedVersion)
		if err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		var affected int64
		if affected, err = res.RowsAffected(); err == nil && affected == 0 {
			err = ErrVersionConflict
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE plan_id = $1`, plan.ID); err != nil {
		return fmt.Errorf("clear plan sessions: %w", err)
	}

	const insertSession = `INSERT INTO sessions (id, plan_id, subject_id, subject_name, date, start_time, end_time, duration_hours, session_type, cognitive_load, topics, color, completed, completed_at)
		VALUES (:id, :plan_id, :subject_id, :subject_name, :date, :start_time, :end_time, :duration_hours, :session_type, :cognitive_load, :topics, :color, :completed, :completed_at)`
	for i := range plan.Sessions {
		if _, err = sqlx.NamedExecContext(ctx, tx, insertSession, &plan.Sessions[i]); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit plan replace: %w", err)
	}
	return nil
}

// FindSession loads one session by id.
func (r *PlanRepository) FindSession(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

func marshalBreakdown(b models.SubjectBreakdown) ([]byte, error) {
	if b == nil {
		b = models.SubjectBreakdown{}
	}
	return json.Marshal(b)
}

func unmarshalBreakdown(raw []byte, dest *models.SubjectBreakdown) error {
	return json.Unmarshal(raw, dest)
}

// CompleteSession marks a session done. Completion is idempotent and
// one-way: an already-completed session keeps its original completed_at.
func (r *PlanRepository) CompleteSession(ctx context.Context, id string, at time.Time) (*models.Session, error) {
	const query = `UPDATE sessions SET completed = TRUE, completed_at = $1 WHERE id = $2 AND completed = FALSE`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	return r.FindSession(ctx, id)
}
