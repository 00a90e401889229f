package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/authz"
	"precinct/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var caseCols = []string{
	"id", "case_number", "title", "description", "severity", "status", "incident_date",
	"incident_location", "created_by", "assigned_detective_id", "notes", "solved_at",
	"closed_at", "created_at", "updated_at",
}

func TestLoadPrincipal(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active, is_superuser FROM users WHERE id = $1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "is_superuser"}).AddRow(true, false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.name")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Detective"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT p.code")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("case.list").AddRow("resolution.detective_board"))

	p, err := repo.LoadPrincipal(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, p.HasRole(authz.RoleDetective))
	assert.True(t, p.Can(authz.PermDetectiveBoard))
	assert.False(t, p.Can(authz.PermCaseApprove))
}

func TestLoadPrincipalUnknownUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active, is_superuser FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "is_superuser"}))

	_, err := repo.LoadPrincipal(context.Background(), 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateUserDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Username: "cadet", Email: "c@example.org"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCaseGetByIDLoadsTeam(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCaseRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM cases c WHERE c.id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(caseCols).AddRow(
			1, "C-2026-0001-ABCD", "Robbery", "", "LEVEL1", "UNDER_INVESTIGATION", nil,
			"", 3, 5, "", nil, nil, now, now,
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM case_team_members")).
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "user_id"}).AddRow(1, 7).AddRow(1, 8))

	c, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityLevel1, c.Severity)
	assert.Equal(t, models.CaseUnderInvestigation, c.Status)
	assert.True(t, c.IsAssignedTo(5))
	assert.Equal(t, uint(3), *c.CreatedBy)
	assert.Nil(t, c.IncidentDate)
	assert.Equal(t, []uint{7, 8}, c.TeamMemberIDs)
}

func TestCaseGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cases c WHERE c.id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(caseCols))

	_, err := repo.GetForUpdate(context.Background(), 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCaseListInvolvingUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCaseRepository(db)
	user := uint(5)

	mock.ExpectQuery(`assigned_detective_id = \$1\s+OR EXISTS .+ tm\.user_id = \$1\)\s+OR c\.status = ANY\(\$2\)`).
		WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(caseCols))

	cases, err := repo.List(context.Background(), CaseFilter{
		InvolvingUserID: &user,
		Statuses:        []models.CaseStatus{models.CaseOpen},
	})
	require.NoError(t, err)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)
}

func TestCaseListWithTrial(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("EXISTS (SELECT 1 FROM trials t WHERE t.case_id = c.id)")).
		WillReturnRows(sqlmock.NewRows(caseCols))

	_, err := repo.List(context.Background(), CaseFilter{WithTrial: true})
	require.NoError(t, err)
}

func TestEvidenceCreateVehicle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEvidenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO vehicle_evidence (evidence_number, case_id, title, description, collected_by, collected_at, created_at, make, model, color, license_plate, vin, owner_name)")).
		WithArgs("EV-2026-00000001", 10, "Sedan", "", nil, sqlmock.AnyArg(), sqlmock.AnyArg(),
			"Toyota", "Corolla", "red", "ABC123", nil, "John Doe").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	v := &models.Vehicle{
		EvidenceBase: models.EvidenceBase{EvidenceNumber: "EV-2026-00000001", CaseID: 10, Title: "Sedan"},
		Make:         "Toyota",
		Model:        "Corolla",
		Color:        "red",
		LicensePlate: "ABC123",
		OwnerName:    "John Doe",
	}
	require.NoError(t, repo.Create(context.Background(), v))
	assert.Equal(t, uint(4), v.ID)
	assert.Equal(t, models.RefVehicle, v.Type)
	assert.False(t, v.CollectedAt.IsZero())
}

func TestEvidenceFindMissingIsNil(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEvidenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM testimony_evidence WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	e, err := repo.Find(context.Background(), models.Ref{Type: models.RefTestimony, ID: 3})
	require.NoError(t, err)
	assert.True(t, e == nil)
}

func TestEvidenceGetDocumentAttributes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEvidenceRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM document_evidence WHERE id = $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "evidence_number", "case_id", "title", "description", "collected_by", "collected_at", "created_at",
			"document_type", "issuer", "recipient", "attributes",
		}).AddRow(2, "EV-2026-00000002", 10, "Passport", "", 4, now, now,
			"passport", "Registry", "", []byte(`{"full_name":"Jane Roe","national_id":"1234567890"}`)))

	e, err := repo.Get(context.Background(), models.Ref{Type: models.RefDocument, ID: 2})
	require.NoError(t, err)

	doc, ok := e.(*models.Document)
	require.True(t, ok)
	assert.Equal(t, models.RefDocument, doc.Type)
	assert.Equal(t, "1234567890", doc.Attributes["national_id"])
	assert.Equal(t, uint(4), *doc.CollectedBy)
}

func TestEvidenceUnknownType(t *testing.T) {
	db, _ := newMock(t)
	repo := NewEvidenceRepository(db)

	_, err := repo.Find(context.Background(), models.Ref{Type: models.RefSuspect, ID: 1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEnsureLinkExisting(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSuspectRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO suspect_case_links")).
		WithArgs(3, 10, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM suspect_case_links l WHERE l.case_id = $1 AND l.suspect_id = $2")).
		WithArgs(10, 3).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "suspect_id", "case_id", "detective_score", "detective_id", "detective_scored_at",
			"sergeant_score", "sergeant_id", "sergeant_scored_at", "captain_opinion", "captain_id",
			"captain_opinion_at", "chief_approved", "chief_id", "chief_decided_at", "created_at", "updated_at",
		}).AddRow(8, 3, 10, 7, 5, now, nil, nil, nil, "", nil, nil, nil, nil, nil, now, now))

	l, created, err := repo.EnsureLink(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, uint(8), l.ID)
	assert.Equal(t, 7, *l.DetectiveScore)
	assert.Nil(t, l.SergeantScore)
	assert.Nil(t, l.ChiefApproved)
}

func TestLinkedCasesEmptyInput(t *testing.T) {
	db, _ := newMock(t)
	repo := NewSuspectRepository(db)

	out, err := repo.LinkedCases(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRewardCodeStoredAsNullWhenEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRewardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("NULLIF($4, '')")).
		WithArgs(12, nil, nil, "", models.RewardInformationProvided, 0, models.RewardPending,
			"saw the getaway car", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	rw := &models.Reward{
		RecipientID:      12,
		RewardType:       models.RewardInformationProvided,
		Status:           models.RewardPending,
		Information:      "saw the getaway car",
		IsCivilianReward: true,
	}
	require.NoError(t, repo.Create(context.Background(), rw))
	assert.Equal(t, uint(1), rw.ID)
}

func TestRewardListForDetective(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRewardRepository(db)
	detective := uint(5)

	mock.ExpectQuery(`INNER JOIN cases c ON c\.id = rw\.case_id AND c\.assigned_detective_id = \$1 WHERE 1=1 AND rw\.status = ANY\(\$2\)`).
		WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rewards, err := repo.List(context.Background(), RewardFilter{
		DetectiveID: &detective,
		Statuses:    []models.RewardStatus{models.RewardPendingDetective},
	})
	require.NoError(t, err)
	assert.Empty(t, rewards)
}

func TestMarkReadNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications")).
		WithArgs(sqlmock.AnyArg(), 4, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), 2, 4)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTrialCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTrialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO trials")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Trial{CaseID: 1, Status: models.TrialScheduled, ScheduledDate: time.Now()})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}
