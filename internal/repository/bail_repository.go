package repository

import (
	"context"
	"fmt"
	"time"

	"precinct/internal/database"
	"precinct/internal/models"
)

const bailColumns = `id, suspect_id, bail_amount, bail_paid, bail_paid_at, bail_payment_ref, fine_amount,
		       fine_paid, fine_paid_at, fine_payment_ref, supervisor_approved, approved_by,
		       approved_at, amount_set_by, created_at, updated_at`

// BailFineRepository handles the bail and fine record of suspects
type BailFineRepository struct {
	db database.DBTX
}

// NewBailFineRepository creates a new bail/fine repository
func NewBailFineRepository(db database.DBTX) *BailFineRepository {
	return &BailFineRepository{db: db}
}

// GetOrCreateForUpdate returns the locked bail/fine record of a suspect,
// creating an empty one first if the suspect has none
func (r *BailFineRepository) GetOrCreateForUpdate(ctx context.Context, suspectID uint) (*models.BailFine, error) {
	insert := `
		INSERT INTO bail_fines (suspect_id, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (suspect_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, suspectID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to create bail record: %w", err)
	}

	bf := &models.BailFine{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+bailColumns+` FROM bail_fines WHERE suspect_id = $1 FOR UPDATE`, suspectID,
	).Scan(
		&bf.ID,
		&bf.SuspectID,
		&bf.BailAmount,
		&bf.BailPaid,
		&bf.BailPaidAt,
		&bf.BailPaymentRef,
		&bf.FineAmount,
		&bf.FinePaid,
		&bf.FinePaidAt,
		&bf.FinePaymentRef,
		&bf.SupervisorApproved,
		&bf.ApprovedBy,
		&bf.ApprovedAt,
		&bf.AmountSetBy,
		&bf.CreatedAt,
		&bf.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get bail record: %w", err)
	}
	return bf, nil
}

// Update persists a bail/fine record
func (r *BailFineRepository) Update(ctx context.Context, bf *models.BailFine) error {
	query := `
		UPDATE bail_fines
		SET bail_amount = $1, bail_paid = $2, bail_paid_at = $3, bail_payment_ref = $4,
		    fine_amount = $5, fine_paid = $6, fine_paid_at = $7, fine_payment_ref = $8,
		    supervisor_approved = $9, approved_by = $10, approved_at = $11, amount_set_by = $12,
		    updated_at = $13
		WHERE id = $14
	`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		bf.BailAmount, bf.BailPaid, bf.BailPaidAt, bf.BailPaymentRef,
		bf.FineAmount, bf.FinePaid, bf.FinePaidAt, bf.FinePaymentRef,
		bf.SupervisorApproved, bf.ApprovedBy, bf.ApprovedAt, bf.AmountSetBy,
		now, bf.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bail record: %w", err)
	}
	bf.UpdatedAt = now
	return expectOneRow(res, "Bail record")
}
