package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/database"
	"precinct/internal/models"
)

// evidenceTable maps one evidence variant onto its table. Every table shares
// the envelope columns; columns and selects list the variant's own columns in
// the order values and dest produce them.
type evidenceTable struct {
	name    string
	columns []string
	selects []string
	newItem func() models.Evidence
	values  func(models.Evidence) []any
	dest    func(models.Evidence) []any
}

var evidenceTables = map[models.RefType]evidenceTable{
	models.RefTestimony: {
		name:    "testimony_evidence",
		columns: []string{"witness_name", "witness_contact", "statement", "credibility"},
		newItem: func() models.Evidence { return &models.Testimony{} },
		values: func(e models.Evidence) []any {
			v := e.(*models.Testimony)
			return []any{v.WitnessName, v.WitnessContact, v.Statement, v.Credibility}
		},
		dest: func(e models.Evidence) []any {
			v := e.(*models.Testimony)
			return []any{&v.WitnessName, &v.WitnessContact, &v.Statement, &v.Credibility}
		},
	},
	models.RefBiological: {
		name:    "biological_evidence",
		columns: []string{"sample_type", "lab_result", "coroner_approved", "approved_by", "approved_at"},
		newItem: func() models.Evidence { return &models.Biological{} },
		values: func(e models.Evidence) []any {
			v := e.(*models.Biological)
			return []any{v.SampleType, v.LabResult, v.CoronerApproved, v.ApprovedBy, v.ApprovedAt}
		},
		dest: func(e models.Evidence) []any {
			v := e.(*models.Biological)
			return []any{&v.SampleType, &v.LabResult, &v.CoronerApproved, &v.ApprovedBy, &v.ApprovedAt}
		},
	},
	models.RefVehicle: {
		name:    "vehicle_evidence",
		columns: []string{"make", "model", "color", "license_plate", "vin", "owner_name"},
		selects: []string{"make", "model", "color", "COALESCE(license_plate, '')", "COALESCE(vin, '')", "owner_name"},
		newItem: func() models.Evidence { return &models.Vehicle{} },
		values: func(e models.Evidence) []any {
			v := e.(*models.Vehicle)
			return []any{v.Make, v.Model, v.Color, nullString(v.LicensePlate), nullString(v.VIN), v.OwnerName}
		},
		dest: func(e models.Evidence) []any {
			v := e.(*models.Vehicle)
			return []any{&v.Make, &v.Model, &v.Color, &v.LicensePlate, &v.VIN, &v.OwnerName}
		},
	},
	models.RefDocument: {
		name:    "document_evidence",
		columns: []string{"document_type", "issuer", "recipient", "attributes"},
		newItem: func() models.Evidence { return &models.Document{} },
		values: func(e models.Evidence) []any {
			v := e.(*models.Document)
			return []any{v.DocumentType, v.Issuer, v.Recipient, jsonMap(v.Attributes)}
		},
		dest: func(e models.Evidence) []any {
			v := e.(*models.Document)
			return []any{&v.DocumentType, &v.Issuer, &v.Recipient, (*jsonMap)(&v.Attributes)}
		},
	},
	models.RefOther: {
		name:    "other_evidence",
		columns: []string{"item_name", "serial_number"},
		newItem: func() models.Evidence { return &models.OtherItem{} },
		values: func(e models.Evidence) []any {
			v := e.(*models.OtherItem)
			return []any{v.ItemName, v.SerialNumber}
		},
		dest: func(e models.Evidence) []any {
			v := e.(*models.OtherItem)
			return []any{&v.ItemName, &v.SerialNumber}
		},
	},
}

const envelopeColumns = "id, evidence_number, case_id, title, description, collected_by, collected_at, created_at"

func (t evidenceTable) selectList() string {
	variant := t.selects
	if variant == nil {
		variant = t.columns
	}
	return envelopeColumns + ", " + strings.Join(variant, ", ")
}

func (t evidenceTable) scan(row rowScanner) (models.Evidence, error) {
	e := t.newItem()
	b := e.Envelope()
	dest := append([]any{
		&b.ID, &b.EvidenceNumber, &b.CaseID, &b.Title, &b.Description,
		&b.CollectedBy, &b.CollectedAt, &b.CreatedAt,
	}, t.dest(e)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	b.Type = e.Kind()
	return e, nil
}

func lookupTable(kind models.RefType) (evidenceTable, error) {
	t, ok := evidenceTables[kind]
	if !ok {
		return evidenceTable{}, apperr.FieldValidation("type", fmt.Sprintf("Unknown evidence type %q.", kind))
	}
	return t, nil
}

// EvidenceRepository stores the evidence variants, one table per variant
type EvidenceRepository struct {
	db database.DBTX
}

// NewEvidenceRepository creates a new evidence repository
func NewEvidenceRepository(db database.DBTX) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// Create inserts an evidence item into its variant table. A duplicate
// evidence number surfaces as a unique violation.
func (r *EvidenceRepository) Create(ctx context.Context, e models.Evidence) error {
	t, err := lookupTable(e.Kind())
	if err != nil {
		return err
	}

	now := time.Now()
	b := e.Envelope()
	if b.CollectedAt.IsZero() {
		b.CollectedAt = now
	}

	columns := append([]string{"evidence_number", "case_id", "title", "description", "collected_by", "collected_at", "created_at"}, t.columns...)
	args := append([]any{b.EvidenceNumber, b.CaseID, b.Title, b.Description, b.CollectedBy, b.CollectedAt, now}, t.values(e)...)
	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
		t.name, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&b.ID); err != nil {
		return fmt.Errorf("failed to create %s evidence: %w", e.Kind(), err)
	}

	b.Type = e.Kind()
	b.CreatedAt = now
	return nil
}

// Find resolves ref. It returns a nil Evidence and no error when nothing
// matches, so callers can pass the result straight into ownership checks.
func (r *EvidenceRepository) Find(ctx context.Context, ref models.Ref) (models.Evidence, error) {
	return r.find(ctx, ref, false)
}

// Get resolves ref and fails with a not found error when nothing matches
func (r *EvidenceRepository) Get(ctx context.Context, ref models.Ref) (models.Evidence, error) {
	e, err := r.find(ctx, ref, false)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperr.NotFound("Evidence")
	}
	return e, nil
}

// GetBiologicalForUpdate loads and locks a biological evidence row
func (r *EvidenceRepository) GetBiologicalForUpdate(ctx context.Context, id uint) (*models.Biological, error) {
	e, err := r.find(ctx, models.Ref{Type: models.RefBiological, ID: id}, true)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperr.NotFound("Biological evidence")
	}
	return e.(*models.Biological), nil
}

func (r *EvidenceRepository) find(ctx context.Context, ref models.Ref, lock bool) (models.Evidence, error) {
	t, err := lookupTable(ref.Type)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, t.selectList(), t.name)
	if lock {
		query += ` FOR UPDATE`
	}

	e, err := t.scan(r.db.QueryRowContext(ctx, query, ref.ID))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence %s: %w", ref, err)
	}
	return e, nil
}

// ListByCase retrieves every evidence item of a case across all variants in
// the order they were recorded
func (r *EvidenceRepository) ListByCase(ctx context.Context, caseID uint) ([]models.Evidence, error) {
	items := []models.Evidence{}
	for _, kind := range models.EvidenceTypes {
		t := evidenceTables[kind]
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE case_id = $1 ORDER BY created_at, id`, t.selectList(), t.name)

		if err := func() error {
			rows, err := r.db.QueryContext(ctx, query, caseID)
			if err != nil {
				return fmt.Errorf("failed to list %s evidence: %w", kind, err)
			}
			defer closeRows(rows)

			for rows.Next() {
				e, err := t.scan(rows)
				if err != nil {
					return fmt.Errorf("failed to scan %s evidence: %w", kind, err)
				}
				items = append(items, e)
			}
			return rows.Err()
		}(); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Envelope().CreatedAt.Before(items[j].Envelope().CreatedAt)
	})
	return items, nil
}

// UpdateBiological persists the lab result and coroner approval of a
// biological evidence item
func (r *EvidenceRepository) UpdateBiological(ctx context.Context, e *models.Biological) error {
	query := `
		UPDATE biological_evidence
		SET lab_result = $1, coroner_approved = $2, approved_by = $3, approved_at = $4
		WHERE id = $5
	`

	res, err := r.db.ExecContext(ctx, query, e.LabResult, e.CoronerApproved, e.ApprovedBy, e.ApprovedAt, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update biological evidence: %w", err)
	}
	return expectOneRow(res, "Biological evidence")
}
