package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"precinct/internal/apperr"
	"precinct/internal/database"
	"precinct/internal/models"
)

const rewardColumns = `rw.id, rw.recipient_id, rw.case_id, rw.suspect_id, COALESCE(rw.reward_code, ''), rw.reward_type,
		       rw.amount, rw.status, rw.information, rw.is_civilian_reward,
		       rw.officer_reviewed_by, rw.officer_reviewed_at, rw.officer_message,
		       rw.detective_reviewed_by, rw.detective_reviewed_at, rw.detective_message,
		       rw.rejection_reason, rw.claimed_at_station, rw.claimed_at, rw.claimed_by,
		       rw.identity_verified, rw.payment_reference, rw.created_at, rw.updated_at`

// RewardFilter narrows a reward listing. With DetectiveID set only rewards on
// cases assigned to that detective match.
type RewardFilter struct {
	RecipientID *uint
	DetectiveID *uint
	Statuses    []models.RewardStatus
}

// RewardRepository handles reward database operations
type RewardRepository struct {
	db database.DBTX
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db database.DBTX) *RewardRepository {
	return &RewardRepository{db: db}
}

func scanReward(row rowScanner) (*models.Reward, error) {
	rw := &models.Reward{}
	err := row.Scan(
		&rw.ID,
		&rw.RecipientID,
		&rw.CaseID,
		&rw.SuspectID,
		&rw.RewardCode,
		&rw.RewardType,
		&rw.Amount,
		&rw.Status,
		&rw.Information,
		&rw.IsCivilianReward,
		&rw.OfficerReviewedBy,
		&rw.OfficerReviewedAt,
		&rw.OfficerMessage,
		&rw.DetectiveReviewedBy,
		&rw.DetectiveReviewedAt,
		&rw.DetectiveMessage,
		&rw.RejectionReason,
		&rw.ClaimedAtStation,
		&rw.ClaimedAt,
		&rw.ClaimedBy,
		&rw.IdentityVerified,
		&rw.PaymentRef,
		&rw.CreatedAt,
		&rw.UpdatedAt,
	)
	return rw, err
}

// Create creates a new reward submission
func (r *RewardRepository) Create(ctx context.Context, rw *models.Reward) error {
	query := `
		INSERT INTO rewards (recipient_id, case_id, suspect_id, reward_code, reward_type, amount, status,
		                     information, is_civilian_reward, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		rw.RecipientID, rw.CaseID, rw.SuspectID, rw.RewardCode, rw.RewardType, rw.Amount, rw.Status,
		rw.Information, rw.IsCivilianReward, now, now,
	).Scan(&rw.ID)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	rw.CreatedAt = now
	rw.UpdatedAt = now
	return nil
}

// GetByID retrieves a reward by ID
func (r *RewardRepository) GetByID(ctx context.Context, id uint) (*models.Reward, error) {
	return r.get(ctx, `SELECT `+rewardColumns+` FROM rewards rw WHERE rw.id = $1`, id)
}

// GetForUpdate retrieves a reward and locks its row
func (r *RewardRepository) GetForUpdate(ctx context.Context, id uint) (*models.Reward, error) {
	return r.get(ctx, `SELECT `+rewardColumns+` FROM rewards rw WHERE rw.id = $1 FOR UPDATE`, id)
}

// GetByCodeAndNationalID retrieves the reward carrying code whose recipient
// has the given national id
func (r *RewardRepository) GetByCodeAndNationalID(ctx context.Context, code, nationalID string) (*models.Reward, error) {
	query := `
		SELECT ` + rewardColumns + `
		FROM rewards rw
		INNER JOIN users u ON u.id = rw.recipient_id
		WHERE rw.reward_code = $1 AND u.national_id = $2
	`
	return r.get(ctx, query, code, nationalID)
}

func (r *RewardRepository) get(ctx context.Context, query string, args ...any) (*models.Reward, error) {
	rw, err := scanReward(r.db.QueryRowContext(ctx, query, args...))
	if isNoRows(err) {
		return nil, apperr.NotFound("Reward")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return rw, nil
}

// Update persists the review, code and claim fields of a reward. A duplicate
// reward code surfaces as a unique violation.
func (r *RewardRepository) Update(ctx context.Context, rw *models.Reward) error {
	query := `
		UPDATE rewards
		SET reward_code = NULLIF($1, ''), amount = $2, status = $3,
		    officer_reviewed_by = $4, officer_reviewed_at = $5, officer_message = $6,
		    detective_reviewed_by = $7, detective_reviewed_at = $8, detective_message = $9,
		    rejection_reason = $10, claimed_at_station = $11, claimed_at = $12, claimed_by = $13,
		    identity_verified = $14, payment_reference = $15, updated_at = $16
		WHERE id = $17
	`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		rw.RewardCode, rw.Amount, rw.Status,
		rw.OfficerReviewedBy, rw.OfficerReviewedAt, rw.OfficerMessage,
		rw.DetectiveReviewedBy, rw.DetectiveReviewedAt, rw.DetectiveMessage,
		rw.RejectionReason, rw.ClaimedAtStation, rw.ClaimedAt, rw.ClaimedBy,
		rw.IdentityVerified, rw.PaymentRef, now, rw.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reward: %w", err)
	}
	rw.UpdatedAt = now
	return expectOneRow(res, "Reward")
}

// List retrieves rewards matching filter, newest first
func (r *RewardRepository) List(ctx context.Context, filter RewardFilter) ([]models.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards rw`
	args := []any{}
	argPos := 1

	if filter.DetectiveID != nil {
		query += fmt.Sprintf(` INNER JOIN cases c ON c.id = rw.case_id AND c.assigned_detective_id = $%d`, argPos)
		args = append(args, *filter.DetectiveID)
		argPos++
	}
	query += ` WHERE 1=1`
	if filter.RecipientID != nil {
		query += fmt.Sprintf(` AND rw.recipient_id = $%d`, argPos)
		args = append(args, *filter.RecipientID)
		argPos++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(` AND rw.status = ANY($%d)`, argPos)
		args = append(args, pq.Array(statuses))
	}
	query += ` ORDER BY rw.created_at DESC, rw.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer closeRows(rows)

	rewards := []models.Reward{}
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, *rw)
	}
	return rewards, rows.Err()
}
