package repository

import (
	"context"
	"fmt"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/database"
	"precinct/internal/models"
)

const trialColumns = `id, case_id, judge_id, status, scheduled_date, verdict, punishment, judge_notes,
		       verdict_at, created_at, updated_at`

// TrialRepository handles trial database operations
type TrialRepository struct {
	db database.DBTX
}

// NewTrialRepository creates a new trial repository
func NewTrialRepository(db database.DBTX) *TrialRepository {
	return &TrialRepository{db: db}
}

// Create inserts a trial. A case has at most one trial; a second one
// surfaces as a unique violation.
func (r *TrialRepository) Create(ctx context.Context, t *models.Trial) error {
	query := `
		INSERT INTO trials (case_id, judge_id, status, scheduled_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, t.CaseID, t.JudgeID, t.Status, t.ScheduledDate, now, now).Scan(&t.ID)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("A trial is already scheduled for this case.")
	}
	if err != nil {
		return fmt.Errorf("failed to create trial: %w", err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// GetByCase retrieves the trial of a case
func (r *TrialRepository) GetByCase(ctx context.Context, caseID uint) (*models.Trial, error) {
	return r.get(ctx, `SELECT `+trialColumns+` FROM trials WHERE case_id = $1`, caseID)
}

// GetByCaseForUpdate retrieves and locks the trial of a case
func (r *TrialRepository) GetByCaseForUpdate(ctx context.Context, caseID uint) (*models.Trial, error) {
	return r.get(ctx, `SELECT `+trialColumns+` FROM trials WHERE case_id = $1 FOR UPDATE`, caseID)
}

func (r *TrialRepository) get(ctx context.Context, query string, caseID uint) (*models.Trial, error) {
	t := &models.Trial{}
	err := r.db.QueryRowContext(ctx, query, caseID).Scan(
		&t.ID,
		&t.CaseID,
		&t.JudgeID,
		&t.Status,
		&t.ScheduledDate,
		&t.Verdict,
		&t.Punishment,
		&t.JudgeNotes,
		&t.VerdictAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, apperr.NotFound("Trial")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trial: %w", err)
	}
	return t, nil
}

// Update persists the status and verdict of a trial
func (r *TrialRepository) Update(ctx context.Context, t *models.Trial) error {
	query := `
		UPDATE trials
		SET judge_id = $1, status = $2, scheduled_date = $3, verdict = $4, punishment = $5,
		    judge_notes = $6, verdict_at = $7, updated_at = $8
		WHERE id = $9
	`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		t.JudgeID, t.Status, t.ScheduledDate, t.Verdict, t.Punishment, t.JudgeNotes, t.VerdictAt, now, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trial: %w", err)
	}
	t.UpdatedAt = now
	return expectOneRow(res, "Trial")
}
