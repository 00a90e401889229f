package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func TestNewCaseStartingStatus(t *testing.T) {
	in := CaseInput{Title: "Burglary", Severity: models.SeverityLevel2}

	c, err := NewCase(4, false, in)
	require.NoError(t, err)
	assert.Equal(t, models.CaseOpen, c.Status)

	c, err = NewCase(1, true, in)
	require.NoError(t, err)
	assert.Equal(t, models.CaseUnderInvestigation, c.Status)

	_, err = NewCase(4, false, CaseInput{Title: "x", Severity: "LEVEL9"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestApproveCase(t *testing.T) {
	tests := []struct {
		name      string
		status    models.CaseStatus
		decision  Decision
		message   string
		want      models.CaseStatus
		wantNotes string
		wantErr   error
	}{
		{"approve with note", models.CaseOpen, Approve, "looks solid", models.CaseUnderInvestigation, "Approval note: looks solid", nil},
		{"approve without note", models.CaseOpen, Approve, "", models.CaseUnderInvestigation, "", nil},
		{"reject", models.CaseOpen, Reject, "no grounds", models.CaseClosed, "Rejection note: no grounds", nil},
		{"not open", models.CaseUnderInvestigation, Approve, "", models.CaseUnderInvestigation, "", apperr.ErrPrecondition},
		{"closed", models.CaseClosed, Reject, "", models.CaseClosed, "", apperr.ErrPrecondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.Case{Status: tt.status}
			_, err := ApproveCase(c, tt.decision, tt.message, testNow)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, c.Status)
			assert.Equal(t, tt.wantNotes, c.Notes)
		})
	}
}

func TestApproveCaseAppendsNotes(t *testing.T) {
	c := &models.Case{Status: models.CaseOpen, Notes: "Created from tip"}
	_, err := ApproveCase(c, Reject, "duplicate", testNow)
	require.NoError(t, err)
	assert.Equal(t, "Created from tip\n\nRejection note: duplicate", c.Notes)
	require.NotNil(t, c.ClosedAt)
}

func TestAssignDetectiveIsIdempotent(t *testing.T) {
	c := &models.Case{Status: models.CaseOpen}
	require.NoError(t, AssignDetective(c, 9))
	assert.Equal(t, models.CaseUnderInvestigation, c.Status)
	require.NoError(t, AssignDetective(c, 9))
	assert.Equal(t, models.CaseUnderInvestigation, c.Status)
	assert.True(t, c.IsAssignedTo(9))

	closed := &models.Case{Status: models.CaseClosed}
	assert.ErrorIs(t, AssignDetective(closed, 9), apperr.ErrPrecondition)
	assert.Nil(t, closed.AssignedDetectiveID)
}

func TestResolveCase(t *testing.T) {
	c := &models.Case{Status: models.CaseOpen}
	assert.ErrorIs(t, ResolveCase(c, models.CaseSolved, testNow), apperr.ErrPrecondition)
	assert.ErrorIs(t, ResolveCase(c, models.CaseArchived, testNow), apperr.ErrPrecondition)

	c.Status = models.CaseUnderInvestigation
	require.NoError(t, ResolveCase(c, models.CaseSolved, testNow))
	require.NotNil(t, c.SolvedAt)

	require.NoError(t, ResolveCase(c, models.CaseArchived, testNow))
	assert.Equal(t, models.CaseArchived, c.Status)
	assert.ErrorIs(t, ResolveCase(c, models.CaseClosed, testNow), apperr.ErrPrecondition)

	assert.ErrorIs(t, ResolveCase(c, models.CaseOpen, testNow), apperr.ErrValidation)
}
