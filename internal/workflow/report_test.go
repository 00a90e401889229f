package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

func assignedCase(detectiveID uint) *models.Case {
	return &models.Case{ID: 10, Status: models.CaseUnderInvestigation, AssignedDetectiveID: &detectiveID}
}

func TestNewReport(t *testing.T) {
	refs := []models.Ref{
		{Type: models.RefVehicle, ID: 1},
		{Type: models.RefVehicle, ID: 1},
		{Type: models.RefDocument, ID: 4},
	}

	r, err := NewReport(assignedCase(5), 5, "owner of the getaway car", refs)
	require.NoError(t, err)
	assert.Equal(t, models.ReportPendingSergeant, r.Status)
	assert.Len(t, r.Suspects, 2)

	_, err = NewReport(assignedCase(5), 6, "not mine", nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	bare, err := NewReport(assignedCase(5), 5, "", nil)
	require.NoError(t, err)
	assert.Empty(t, bare.DetectiveMessage)
	assert.Empty(t, bare.Suspects)

	_, err = NewReport(assignedCase(5), 5, "bad ref", []models.Ref{{Type: models.RefCase, ID: 10}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	closed := assignedCase(5)
	closed.Status = models.CaseClosed
	_, err = NewReport(closed, 5, "late", nil)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
}

func TestSergeantReview(t *testing.T) {
	newReport := func() *models.DetectiveReport {
		return &models.DetectiveReport{Status: models.ReportPendingSergeant}
	}

	r := newReport()
	msg, err := SergeantReview(r, 8, Approve, "agreed", testNow)
	require.NoError(t, err)
	assert.Equal(t, models.ReportApproved, r.Status)
	assert.True(t, strings.HasPrefix(msg, "Approved"))
	require.NotNil(t, r.ReviewedAt)
	require.NotNil(t, r.SergeantID)

	_, err = SergeantReview(r, 8, Disagree, "changed my mind", testNow)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
	assert.Equal(t, models.ReportApproved, r.Status)

	r = newReport()
	_, err = SergeantReview(r, 8, Approve, "", testNow)
	require.NoError(t, err)
	assert.Equal(t, models.ReportApproved, r.Status)
	assert.Empty(t, r.SergeantMessage)

	r = newReport()
	_, err = SergeantReview(r, 8, Disagree, "", testNow)
	require.NoError(t, err)
	assert.Equal(t, models.ReportDisagreement, r.Status)

	r = newReport()
	_, err = SergeantReview(r, 8, "escalate", "", testNow)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, models.ReportPendingSergeant, r.Status)
}
