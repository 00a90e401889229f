package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

func newTestComplaint() *models.Complaint {
	return NewComplaint(7, ComplaintContent{
		Title:            "Stolen bicycle",
		Description:      "Taken from the rack outside the library",
		IncidentDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		IncidentLocation: "Main St",
	})
}

func TestComplaintHappyPath(t *testing.T) {
	c := newTestComplaint()
	require.Equal(t, models.ComplaintPendingCadet, c.Status)

	msg, err := CadetReview(c, DefaultRules(), 2, Approve, "")
	require.NoError(t, err)
	assert.Equal(t, "Complaint approved and sent to officer for review", msg)
	assert.Equal(t, models.ComplaintPendingOfficer, c.Status)

	msg, err = OfficerReview(c, 3, Approve, "")
	require.NoError(t, err)
	assert.Equal(t, "Complaint approved and case created", msg)
	assert.Equal(t, models.ComplaintApproved, c.Status)
	require.NotNil(t, c.OfficerReviewerID)
	assert.Equal(t, uint(3), *c.OfficerReviewerID)

	cs := CaseFromComplaint(c, 3)
	assert.Equal(t, models.CaseOpen, cs.Status)
	assert.Equal(t, c.Title, cs.Title)
	assert.Equal(t, models.SeverityLevel3, cs.Severity)
}

func TestCadetRejectionVoidsAtLimit(t *testing.T) {
	c := newTestComplaint()
	rules := DefaultRules()

	for i := 1; i <= 3; i++ {
		msg, err := CadetReview(c, rules, 2, Reject, "missing details")
		require.NoError(t, err)
		assert.Equal(t, i, c.RejectionCount)
		assert.NotEqual(t, models.ComplaintPendingOfficer, c.Status)

		if i < 3 {
			assert.Equal(t, models.ComplaintReturnedToComplainant, c.Status)
			require.NoError(t, EditComplaint(c, ComplaintContent{Title: "Stolen bicycle", Description: "More details"}))
			assert.Equal(t, models.ComplaintPendingCadet, c.Status)
		} else {
			assert.Equal(t, models.ComplaintVoided, c.Status)
			assert.Equal(t, "Complaint voided due to 3 rejections", msg)
		}
	}

	_, err := CadetReview(c, rules, 2, Approve, "")
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
	_, err = OfficerReview(c, 3, Approve, "")
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
	assert.Equal(t, models.ComplaintVoided, c.Status)
}

func TestCadetRejectionRequiresMessage(t *testing.T) {
	c := newTestComplaint()
	_, err := CadetReview(c, DefaultRules(), 2, Reject, "   ")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, c.RejectionCount)
	assert.Equal(t, models.ComplaintPendingCadet, c.Status)
}

func TestOfficerRejectionReturnsToCadet(t *testing.T) {
	c := newTestComplaint()
	_, err := CadetReview(c, DefaultRules(), 2, Approve, "")
	require.NoError(t, err)

	_, err = OfficerReview(c, 3, Reject, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, models.ComplaintPendingOfficer, c.Status)

	msg, err := OfficerReview(c, 3, Reject, "needs witness")
	require.NoError(t, err)
	assert.Equal(t, "Complaint returned to cadet for re-review", msg)
	assert.Equal(t, models.ComplaintReturnedToCadet, c.Status)
	assert.Equal(t, 0, c.RejectionCount)

	// back in the cadet queue like a fresh submission
	_, err = CadetReview(c, DefaultRules(), 2, Approve, "")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintPendingOfficer, c.Status)
}

func TestCadetRejectionAfterOfficerBounceCanVoid(t *testing.T) {
	c := newTestComplaint()
	c.RejectionCount = 2
	c.Status = models.ComplaintReturnedToCadet

	_, err := CadetReview(c, DefaultRules(), 2, Reject, "still incomplete")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintVoided, c.Status)
}

func TestEditComplaintOnlyWhenReturned(t *testing.T) {
	statuses := []models.ComplaintStatus{
		models.ComplaintPendingCadet,
		models.ComplaintPendingOfficer,
		models.ComplaintReturnedToCadet,
		models.ComplaintApproved,
		models.ComplaintVoided,
	}
	for _, st := range statuses {
		t.Run(string(st), func(t *testing.T) {
			c := newTestComplaint()
			c.Status = st
			err := EditComplaint(c, ComplaintContent{Title: "changed"})
			require.ErrorIs(t, err, apperr.ErrPrecondition)
			assert.Equal(t, "Stolen bicycle", c.Title)
		})
	}
}

func TestUnknownDecision(t *testing.T) {
	c := newTestComplaint()
	_, err := CadetReview(c, DefaultRules(), 2, Decision("maybe"), "")
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "action", appErr.Field)
}
