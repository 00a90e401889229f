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

const reportColumns = `id, case_id, detective_id, status, detective_message, sergeant_id,
		       sergeant_message, reviewed_at, created_at, updated_at`

// ReportRepository handles detective report database operations
type ReportRepository struct {
	db database.DBTX
}

// NewReportRepository creates a new report repository
func NewReportRepository(db database.DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

func scanReport(row rowScanner) (*models.DetectiveReport, error) {
	rep := &models.DetectiveReport{}
	err := row.Scan(
		&rep.ID,
		&rep.CaseID,
		&rep.DetectiveID,
		&rep.Status,
		&rep.DetectiveMessage,
		&rep.SergeantID,
		&rep.SergeantMessage,
		&rep.ReviewedAt,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	)
	return rep, err
}

// Create inserts a report together with its reported suspects
func (r *ReportRepository) Create(ctx context.Context, rep *models.DetectiveReport) error {
	query := `
		INSERT INTO detective_reports (case_id, detective_id, status, detective_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		rep.CaseID, rep.DetectiveID, rep.Status, rep.DetectiveMessage, now, now,
	).Scan(&rep.ID)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	rep.CreatedAt = now
	rep.UpdatedAt = now

	for i := range rep.Suspects {
		s := &rep.Suspects[i]
		s.ReportID = rep.ID
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO reported_suspects (report_id, ref_type, ref_id, note) VALUES ($1, $2, $3, $4) RETURNING id`,
			s.ReportID, s.Ref.Type, s.Ref.ID, s.Note,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to add reported suspect %s: %w", s.Ref, err)
		}
	}
	return nil
}

// GetByID retrieves a report with its reported suspects
func (r *ReportRepository) GetByID(ctx context.Context, id uint) (*models.DetectiveReport, error) {
	return r.get(ctx, `SELECT `+reportColumns+` FROM detective_reports WHERE id = $1`, id)
}

// GetForUpdate retrieves a report and locks its row
func (r *ReportRepository) GetForUpdate(ctx context.Context, id uint) (*models.DetectiveReport, error) {
	return r.get(ctx, `SELECT `+reportColumns+` FROM detective_reports WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReportRepository) get(ctx context.Context, query string, id uint) (*models.DetectiveReport, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("Detective report")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	suspects, err := r.suspects(ctx, []uint{rep.ID})
	if err != nil {
		return nil, err
	}
	rep.Suspects = suspects[rep.ID]
	return rep, nil
}

// Update persists the sergeant review of a report
func (r *ReportRepository) Update(ctx context.Context, rep *models.DetectiveReport) error {
	query := `
		UPDATE detective_reports
		SET status = $1, sergeant_id = $2, sergeant_message = $3, reviewed_at = $4, updated_at = $5
		WHERE id = $6
	`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		rep.Status, rep.SergeantID, rep.SergeantMessage, rep.ReviewedAt, now, rep.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	rep.UpdatedAt = now
	return expectOneRow(res, "Detective report")
}

// ListByCase retrieves the reports filed for a case, newest first
func (r *ReportRepository) ListByCase(ctx context.Context, caseID uint) ([]models.DetectiveReport, error) {
	query := `SELECT ` + reportColumns + ` FROM detective_reports WHERE case_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer closeRows(rows)

	reports := []models.DetectiveReport{}
	var ids []uint
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *rep)
		ids = append(ids, rep.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return reports, nil
	}

	suspects, err := r.suspects(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range reports {
		reports[i].Suspects = suspects[reports[i].ID]
	}
	return reports, nil
}

func (r *ReportRepository) suspects(ctx context.Context, reportIDs []uint) (map[uint][]models.ReportedSuspect, error) {
	query := `
		SELECT id, report_id, ref_type, ref_id, note
		FROM reported_suspects
		WHERE report_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(uintsToInt64(reportIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to get reported suspects: %w", err)
	}
	defer closeRows(rows)

	out := make(map[uint][]models.ReportedSuspect, len(reportIDs))
	for rows.Next() {
		var s models.ReportedSuspect
		if err := rows.Scan(&s.ID, &s.ReportID, &s.Ref.Type, &s.Ref.ID, &s.Note); err != nil {
			return nil, fmt.Errorf("failed to scan reported suspect: %w", err)
		}
		out[s.ReportID] = append(out[s.ReportID], s)
	}
	return out, rows.Err()
}
