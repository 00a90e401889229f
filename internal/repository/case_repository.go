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

const caseColumns = `c.id, c.case_number, c.title, c.description, c.severity, c.status, c.incident_date,
		       c.incident_location, c.created_by, c.assigned_detective_id, c.notes, c.solved_at,
		       c.closed_at, c.created_at, c.updated_at`

// CaseFilter narrows a case listing.
//
// With InvolvingUserID set, a case matches when the user is its assigned
// detective, sits on its team, or its status is one of Statuses. Without it,
// a non-empty Statuses restricts by status alone. WithTrial keeps only cases
// that have a trial.
type CaseFilter struct {
	InvolvingUserID *uint
	Statuses        []models.CaseStatus
	WithTrial       bool
}

// CaseRepository handles case database operations
type CaseRepository struct {
	db database.DBTX
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db database.DBTX) *CaseRepository {
	return &CaseRepository{db: db}
}

func scanCase(row rowScanner) (*models.Case, error) {
	c := &models.Case{}
	err := row.Scan(
		&c.ID,
		&c.CaseNumber,
		&c.Title,
		&c.Description,
		&c.Severity,
		&c.Status,
		&c.IncidentDate,
		&c.IncidentLocation,
		&c.CreatedBy,
		&c.AssignedDetectiveID,
		&c.Notes,
		&c.SolvedAt,
		&c.ClosedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// Create inserts a case. A duplicate case number surfaces as a unique
// violation so the caller can retry with the next sequence number.
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (case_number, title, description, severity, status, incident_date,
		                   incident_location, created_by, assigned_detective_id, notes,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		c.CaseNumber,
		c.Title,
		c.Description,
		c.Severity,
		c.Status,
		c.IncidentDate,
		c.IncidentLocation,
		c.CreatedBy,
		c.AssignedDetectiveID,
		c.Notes,
		now,
		now,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}

	c.CreatedAt = now
	c.UpdatedAt = now
	if c.TeamMemberIDs == nil {
		c.TeamMemberIDs = []uint{}
	}
	return nil
}

// CountForYear returns how many case numbers were issued for year
func (r *CaseRepository) CountForYear(ctx context.Context, year int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cases WHERE case_number LIKE $1`,
		fmt.Sprintf("C-%04d-%%", year),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	return n, nil
}

// GetByID retrieves a case with its team
func (r *CaseRepository) GetByID(ctx context.Context, id uint) (*models.Case, error) {
	return r.get(ctx, `SELECT `+caseColumns+` FROM cases c WHERE c.id = $1`, id)
}

// GetForUpdate retrieves a case with its team and locks the case row until the
// surrounding transaction ends
func (r *CaseRepository) GetForUpdate(ctx context.Context, id uint) (*models.Case, error) {
	return r.get(ctx, `SELECT `+caseColumns+` FROM cases c WHERE c.id = $1 FOR UPDATE`, id)
}

func (r *CaseRepository) get(ctx context.Context, query string, id uint) (*models.Case, error) {
	c, err := scanCase(r.db.QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("Case")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	teams, err := r.teams(ctx, []uint{c.ID})
	if err != nil {
		return nil, err
	}
	c.TeamMemberIDs = teams[c.ID]
	if c.TeamMemberIDs == nil {
		c.TeamMemberIDs = []uint{}
	}
	return c, nil
}

// Update persists the mutable fields of a case. Team membership is managed
// with AddTeamMember and RemoveTeamMember.
func (r *CaseRepository) Update(ctx context.Context, c *models.Case) error {
	query := `
		UPDATE cases
		SET title = $1, description = $2, severity = $3, status = $4, incident_date = $5,
		    incident_location = $6, assigned_detective_id = $7, notes = $8, solved_at = $9,
		    closed_at = $10, updated_at = $11
		WHERE id = $12
	`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		c.Title,
		c.Description,
		c.Severity,
		c.Status,
		c.IncidentDate,
		c.IncidentLocation,
		c.AssignedDetectiveID,
		c.Notes,
		c.SolvedAt,
		c.ClosedAt,
		now,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	c.UpdatedAt = now
	return expectOneRow(res, "Case")
}

// AddTeamMember adds a user to the case team. Adding a member twice is a no-op.
func (r *CaseRepository) AddTeamMember(ctx context.Context, caseID, userID uint) error {
	query := `
		INSERT INTO case_team_members (case_id, user_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (case_id, user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, caseID, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

// RemoveTeamMember removes a user from the case team
func (r *CaseRepository) RemoveTeamMember(ctx context.Context, caseID, userID uint) error {
	query := `DELETE FROM case_team_members WHERE case_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, caseID, userID); err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return nil
}

// List retrieves cases matching filter, newest first
func (r *CaseRepository) List(ctx context.Context, filter CaseFilter) ([]models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases c WHERE 1=1`
	args := []any{}
	argPos := 1

	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}

	if filter.InvolvingUserID != nil {
		query += fmt.Sprintf(` AND (c.assigned_detective_id = $%d
			OR EXISTS (SELECT 1 FROM case_team_members tm WHERE tm.case_id = c.id AND tm.user_id = $%d)
			OR c.status = ANY($%d))`, argPos, argPos, argPos+1)
		args = append(args, *filter.InvolvingUserID, pq.Array(statuses))
		argPos += 2
	} else if len(statuses) > 0 {
		query += fmt.Sprintf(` AND c.status = ANY($%d)`, argPos)
		args = append(args, pq.Array(statuses))
	}
	if filter.WithTrial {
		query += ` AND EXISTS (SELECT 1 FROM trials t WHERE t.case_id = c.id)`
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer closeRows(rows)

	cases := []models.Case{}
	var ids []uint
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return cases, nil
	}

	teams, err := r.teams(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range cases {
		cases[i].TeamMemberIDs = teams[cases[i].ID]
		if cases[i].TeamMemberIDs == nil {
			cases[i].TeamMemberIDs = []uint{}
		}
	}
	return cases, nil
}

func (r *CaseRepository) teams(ctx context.Context, caseIDs []uint) (map[uint][]uint, error) {
	query := `
		SELECT case_id, user_id
		FROM case_team_members
		WHERE case_id = ANY($1)
		ORDER BY added_at, user_id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(uintsToInt64(caseIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to get case teams: %w", err)
	}
	defer closeRows(rows)

	teams := make(map[uint][]uint, len(caseIDs))
	for rows.Next() {
		var caseID, userID uint
		if err := rows.Scan(&caseID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		teams[caseID] = append(teams[caseID], userID)
	}
	return teams, rows.Err()
}
