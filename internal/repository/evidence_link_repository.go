package repository

import (
	"context"
	"fmt"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/database"
	"precinct/internal/models"
)

// EvidenceLinkRepository stores the detective board links between evidence
// items of a case
type EvidenceLinkRepository struct {
	db database.DBTX
}

// NewEvidenceLinkRepository creates a new evidence link repository
func NewEvidenceLinkRepository(db database.DBTX) *EvidenceLinkRepository {
	return &EvidenceLinkRepository{db: db}
}

func scanLink(row rowScanner) (*models.EvidenceLink, error) {
	l := &models.EvidenceLink{}
	err := row.Scan(
		&l.ID,
		&l.CaseID,
		&l.From.Type,
		&l.From.ID,
		&l.To.Type,
		&l.To.ID,
		&l.Description,
		&l.CreatedBy,
		&l.CreatedAt,
	)
	return l, err
}

// Create creates a new link
func (r *EvidenceLinkRepository) Create(ctx context.Context, l *models.EvidenceLink) error {
	query := `
		INSERT INTO evidence_links (case_id, from_type, from_id, to_type, to_id, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		l.CaseID, l.From.Type, l.From.ID, l.To.Type, l.To.ID, l.Description, l.CreatedBy, now,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to create evidence link: %w", err)
	}
	l.CreatedAt = now
	return nil
}

// GetByID retrieves a link by ID
func (r *EvidenceLinkRepository) GetByID(ctx context.Context, id uint) (*models.EvidenceLink, error) {
	query := `
		SELECT id, case_id, from_type, from_id, to_type, to_id, description, created_by, created_at
		FROM evidence_links
		WHERE id = $1
	`

	l, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("Evidence link")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence link: %w", err)
	}
	return l, nil
}

// ListByCase retrieves the links of a case in creation order
func (r *EvidenceLinkRepository) ListByCase(ctx context.Context, caseID uint) ([]models.EvidenceLink, error) {
	query := `
		SELECT id, case_id, from_type, from_id, to_type, to_id, description, created_by, created_at
		FROM evidence_links
		WHERE case_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence links: %w", err)
	}
	defer closeRows(rows)

	links := []models.EvidenceLink{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evidence link: %w", err)
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

// Delete removes a link of a case
func (r *EvidenceLinkRepository) Delete(ctx context.Context, caseID, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM evidence_links WHERE id = $1 AND case_id = $2`, id, caseID)
	if err != nil {
		return fmt.Errorf("failed to delete evidence link: %w", err)
	}
	return expectOneRow(res, "Evidence link")
}
