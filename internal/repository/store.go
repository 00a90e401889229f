package repository

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"precinct/internal/apperr"
	"precinct/internal/database"
)

// Store groups every repository over one query executor. Services build a
// Store from the *sql.Tx of the unit of work they are running so all reads
// and writes of a workflow step share the transaction.
type Store struct {
	Users         *UserRepository
	Roles         *RoleRepository
	Complaints    *ComplaintRepository
	Cases         *CaseRepository
	Evidence      *EvidenceRepository
	Links         *EvidenceLinkRepository
	Reports       *ReportRepository
	Suspects      *SuspectRepository
	BailFines     *BailFineRepository
	Trials        *TrialRepository
	Rewards       *RewardRepository
	Notifications *NotificationRepository
	Audit         *AuditRepository
}

// NewStore creates all repositories on q
func NewStore(q database.DBTX) *Store {
	return &Store{
		Users:         NewUserRepository(q),
		Roles:         NewRoleRepository(q),
		Complaints:    NewComplaintRepository(q),
		Cases:         NewCaseRepository(q),
		Evidence:      NewEvidenceRepository(q),
		Links:         NewEvidenceLinkRepository(q),
		Reports:       NewReportRepository(q),
		Suspects:      NewSuspectRepository(q),
		BailFines:     NewBailFineRepository(q),
		Trials:        NewTrialRepository(q),
		Rewards:       NewRewardRepository(q),
		Notifications: NewNotificationRepository(q),
		Audit:         NewAuditRepository(q),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("Failed to close rows", "error", err)
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// nullString stores "" as NULL for nullable unique columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func uintsToInt64(ids []uint) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

// expectOneRow turns an UPDATE or DELETE that matched nothing into a not
// found error for resource.
func expectOneRow(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(resource)
	}
	return nil
}

// jsonMap stores a string map in a JSONB column.
type jsonMap map[string]string

func (m jsonMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(m))
}

func (m *jsonMap) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = jsonMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported attributes type %T", src)
	}
	out := map[string]string{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode attributes: %w", err)
	}
	*m = out
	return nil
}
