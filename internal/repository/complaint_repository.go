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

const complaintColumns = `id, complainant_id, case_id, status, title, description, incident_date,
		       incident_location, rejection_count, cadet_message, officer_message,
		       cadet_reviewer_id, officer_reviewer_id, created_at, updated_at`

// ComplaintFilter narrows a complaint listing. Zero values do not filter.
type ComplaintFilter struct {
	ComplainantID *uint
	Statuses      []models.ComplaintStatus
}

// ComplaintRepository handles complaint database operations
type ComplaintRepository struct {
	db database.DBTX
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db database.DBTX) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	c := &models.Complaint{}
	err := row.Scan(
		&c.ID,
		&c.ComplainantID,
		&c.CaseID,
		&c.Status,
		&c.Title,
		&c.Description,
		&c.IncidentDate,
		&c.IncidentLocation,
		&c.RejectionCount,
		&c.CadetMessage,
		&c.OfficerMessage,
		&c.CadetReviewerID,
		&c.OfficerReviewerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// Create creates a new complaint
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (complainant_id, status, title, description, incident_date,
		                        incident_location, rejection_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		c.ComplainantID,
		c.Status,
		c.Title,
		c.Description,
		c.IncidentDate,
		c.IncidentLocation,
		c.RejectionCount,
		now,
		now,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}

	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetByID retrieves a complaint by ID
func (r *ComplaintRepository) GetByID(ctx context.Context, id uint) (*models.Complaint, error) {
	return r.get(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)
}

// GetForUpdate retrieves a complaint and locks its row until the surrounding
// transaction ends
func (r *ComplaintRepository) GetForUpdate(ctx context.Context, id uint) (*models.Complaint, error) {
	return r.get(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1 FOR UPDATE`, id)
}

func (r *ComplaintRepository) get(ctx context.Context, query string, id uint) (*models.Complaint, error) {
	c, err := scanComplaint(r.db.QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("Complaint")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return c, nil
}

// Update persists the mutable fields of a complaint
func (r *ComplaintRepository) Update(ctx context.Context, c *models.Complaint) error {
	query := `
		UPDATE complaints
		SET case_id = $1, status = $2, title = $3, description = $4, incident_date = $5,
		    incident_location = $6, rejection_count = $7, cadet_message = $8, officer_message = $9,
		    cadet_reviewer_id = $10, officer_reviewer_id = $11, updated_at = $12
		WHERE id = $13
	`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		c.CaseID,
		c.Status,
		c.Title,
		c.Description,
		c.IncidentDate,
		c.IncidentLocation,
		c.RejectionCount,
		c.CadetMessage,
		c.OfficerMessage,
		c.CadetReviewerID,
		c.OfficerReviewerID,
		now,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update complaint: %w", err)
	}
	c.UpdatedAt = now
	return expectOneRow(res, "Complaint")
}

// List retrieves complaints matching filter, newest first
func (r *ComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE 1=1`
	args := []any{}
	argPos := 1

	if filter.ComplainantID != nil {
		query += fmt.Sprintf(` AND complainant_id = $%d`, argPos)
		args = append(args, *filter.ComplainantID)
		argPos++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(` AND status = ANY($%d)`, argPos)
		args = append(args, pq.Array(statuses))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer closeRows(rows)

	complaints := []models.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}
