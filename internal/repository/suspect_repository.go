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

const suspectColumns = `s.id, s.external_id, s.first_name, s.last_name, s.national_id, s.status, s.is_wanted,
		       s.pursuit_start_date, s.detention_date, s.release_date, s.photo_ref, s.created_at, s.updated_at`

const suspectLinkColumns = `l.id, l.suspect_id, l.case_id, l.detective_score, l.detective_id, l.detective_scored_at,
		       l.sergeant_score, l.sergeant_id, l.sergeant_scored_at, l.captain_opinion, l.captain_id,
		       l.captain_opinion_at, l.chief_approved, l.chief_id, l.chief_decided_at, l.created_at, l.updated_at`

// SuspectRepository handles suspects and their per-case assessment links
type SuspectRepository struct {
	db database.DBTX
}

// NewSuspectRepository creates a new suspect repository
func NewSuspectRepository(db database.DBTX) *SuspectRepository {
	return &SuspectRepository{db: db}
}

func suspectDest(s *models.Suspect) []any {
	return []any{
		&s.ID,
		&s.ExternalID,
		&s.FirstName,
		&s.LastName,
		&s.NationalID,
		&s.Status,
		&s.IsWanted,
		&s.PursuitStartDate,
		&s.DetentionDate,
		&s.ReleaseDate,
		&s.PhotoRef,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
}

func linkDest(l *models.SuspectCaseLink) []any {
	return []any{
		&l.ID,
		&l.SuspectID,
		&l.CaseID,
		&l.DetectiveScore,
		&l.DetectiveID,
		&l.DetectiveScoredAt,
		&l.SergeantScore,
		&l.SergeantID,
		&l.SergeantScoredAt,
		&l.CaptainOpinion,
		&l.CaptainID,
		&l.CaptainOpinionAt,
		&l.ChiefApproved,
		&l.ChiefID,
		&l.ChiefDecidedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	}
}

// Create inserts a suspect. A duplicate external ID surfaces as a unique
// violation.
func (r *SuspectRepository) Create(ctx context.Context, s *models.Suspect) error {
	query := `
		INSERT INTO suspects (external_id, first_name, last_name, national_id, status, is_wanted,
		                      pursuit_start_date, photo_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		s.ExternalID, s.FirstName, s.LastName, s.NationalID, s.Status, s.IsWanted,
		s.PursuitStartDate, s.PhotoRef, now, now,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create suspect: %w", err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// GetByID retrieves a suspect by ID
func (r *SuspectRepository) GetByID(ctx context.Context, id uint) (*models.Suspect, error) {
	return r.get(ctx, `SELECT `+suspectColumns+` FROM suspects s WHERE s.id = $1`, id)
}

// GetForUpdate retrieves a suspect and locks its row
func (r *SuspectRepository) GetForUpdate(ctx context.Context, id uint) (*models.Suspect, error) {
	return r.get(ctx, `SELECT `+suspectColumns+` FROM suspects s WHERE s.id = $1 FOR UPDATE`, id)
}

// FindByExternalID retrieves a suspect by its deduplication key. It returns
// nil and no error when no suspect carries the key.
func (r *SuspectRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Suspect, error) {
	s, err := r.get(ctx, `SELECT `+suspectColumns+` FROM suspects s WHERE s.external_id = $1`, externalID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, nil
	}
	return s, err
}

func (r *SuspectRepository) get(ctx context.Context, query string, arg any) (*models.Suspect, error) {
	s := &models.Suspect{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(suspectDest(s)...)
	if isNoRows(err) {
		return nil, apperr.NotFound("Suspect")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suspect: %w", err)
	}
	return s, nil
}

// Update persists the status and pursuit fields of a suspect
func (r *SuspectRepository) Update(ctx context.Context, s *models.Suspect) error {
	query := `
		UPDATE suspects
		SET first_name = $1, last_name = $2, national_id = $3, status = $4, is_wanted = $5,
		    pursuit_start_date = $6, detention_date = $7, release_date = $8, photo_ref = $9, updated_at = $10
		WHERE id = $11
	`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		s.FirstName, s.LastName, s.NationalID, s.Status, s.IsWanted,
		s.PursuitStartDate, s.DetentionDate, s.ReleaseDate, s.PhotoRef, now, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update suspect: %w", err)
	}
	s.UpdatedAt = now
	return expectOneRow(res, "Suspect")
}

// ListWanted retrieves every wanted suspect
func (r *SuspectRepository) ListWanted(ctx context.Context) ([]models.Suspect, error) {
	query := `SELECT ` + suspectColumns + ` FROM suspects s WHERE s.is_wanted ORDER BY s.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list wanted suspects: %w", err)
	}
	defer closeRows(rows)

	suspects := []models.Suspect{}
	for rows.Next() {
		var s models.Suspect
		if err := rows.Scan(suspectDest(&s)...); err != nil {
			return nil, fmt.Errorf("failed to scan suspect: %w", err)
		}
		suspects = append(suspects, s)
	}
	return suspects, rows.Err()
}

// LinkedCases returns, per suspect, the cases the suspect is linked to. Only
// ID, status and severity of each case are loaded.
func (r *SuspectRepository) LinkedCases(ctx context.Context, suspectIDs []uint) (map[uint][]models.Case, error) {
	out := make(map[uint][]models.Case, len(suspectIDs))
	if len(suspectIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT l.suspect_id, c.id, c.status, c.severity
		FROM suspect_case_links l
		INNER JOIN cases c ON c.id = l.case_id
		WHERE l.suspect_id = ANY($1)
		ORDER BY l.suspect_id, c.id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(uintsToInt64(suspectIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to get linked cases: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var suspectID uint
		var c models.Case
		if err := rows.Scan(&suspectID, &c.ID, &c.Status, &c.Severity); err != nil {
			return nil, fmt.Errorf("failed to scan linked case: %w", err)
		}
		out[suspectID] = append(out[suspectID], c)
	}
	return out, rows.Err()
}

// EnsureLink links a suspect to a case unless the pair is already linked. It
// reports whether a new link was created.
func (r *SuspectRepository) EnsureLink(ctx context.Context, suspectID, caseID uint) (*models.SuspectCaseLink, bool, error) {
	query := `
		INSERT INTO suspect_case_links (suspect_id, case_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (suspect_id, case_id) DO NOTHING
		RETURNING id
	`

	now := time.Now()
	var id uint
	err := r.db.QueryRowContext(ctx, query, suspectID, caseID, now).Scan(&id)
	if isNoRows(err) {
		l, err := r.GetLink(ctx, caseID, suspectID)
		return l, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to link suspect: %w", err)
	}
	return &models.SuspectCaseLink{
		ID:        id,
		SuspectID: suspectID,
		CaseID:    caseID,
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

// GetLink retrieves the assessment link of a suspect on a case
func (r *SuspectRepository) GetLink(ctx context.Context, caseID, suspectID uint) (*models.SuspectCaseLink, error) {
	return r.getLink(ctx, false, caseID, suspectID)
}

// GetLinkForUpdate retrieves and locks the assessment link of a suspect on a
// case
func (r *SuspectRepository) GetLinkForUpdate(ctx context.Context, caseID, suspectID uint) (*models.SuspectCaseLink, error) {
	return r.getLink(ctx, true, caseID, suspectID)
}

func (r *SuspectRepository) getLink(ctx context.Context, lock bool, caseID, suspectID uint) (*models.SuspectCaseLink, error) {
	query := `SELECT ` + suspectLinkColumns + ` FROM suspect_case_links l WHERE l.case_id = $1 AND l.suspect_id = $2`
	if lock {
		query += ` FOR UPDATE`
	}

	l := &models.SuspectCaseLink{}
	err := r.db.QueryRowContext(ctx, query, caseID, suspectID).Scan(linkDest(l)...)
	if isNoRows(err) {
		return nil, apperr.NotFound("Suspect on this case")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suspect link: %w", err)
	}
	return l, nil
}

// UpdateLink persists the assessments of a link
func (r *SuspectRepository) UpdateLink(ctx context.Context, l *models.SuspectCaseLink) error {
	query := `
		UPDATE suspect_case_links
		SET detective_score = $1, detective_id = $2, detective_scored_at = $3,
		    sergeant_score = $4, sergeant_id = $5, sergeant_scored_at = $6,
		    captain_opinion = $7, captain_id = $8, captain_opinion_at = $9,
		    chief_approved = $10, chief_id = $11, chief_decided_at = $12, updated_at = $13
		WHERE id = $14
	`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		l.DetectiveScore, l.DetectiveID, l.DetectiveScoredAt,
		l.SergeantScore, l.SergeantID, l.SergeantScoredAt,
		l.CaptainOpinion, l.CaptainID, l.CaptainOpinionAt,
		l.ChiefApproved, l.ChiefID, l.ChiefDecidedAt, now, l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update suspect link: %w", err)
	}
	l.UpdatedAt = now
	return expectOneRow(res, "Suspect on this case")
}

// ListLinksByCase retrieves the suspects linked to a case with their
// assessments
func (r *SuspectRepository) ListLinksByCase(ctx context.Context, caseID uint) ([]models.SuspectCaseLink, error) {
	query := `
		SELECT ` + suspectLinkColumns + `, ` + suspectColumns + `
		FROM suspect_case_links l
		INNER JOIN suspects s ON s.id = l.suspect_id
		WHERE l.case_id = $1
		ORDER BY l.id
	`

	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list case suspects: %w", err)
	}
	defer closeRows(rows)

	links := []models.SuspectCaseLink{}
	for rows.Next() {
		var l models.SuspectCaseLink
		s := &models.Suspect{}
		if err := rows.Scan(append(linkDest(&l), suspectDest(s)...)...); err != nil {
			return nil, fmt.Errorf("failed to scan case suspect: %w", err)
		}
		l.Suspect = s
		links = append(links, l)
	}
	return links, rows.Err()
}
