package workflow

import (
	"time"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

// NewReport builds a detective report. Only the assigned detective of an
// active case may file one.
func NewReport(c *models.Case, detectiveID uint, message string, refs []models.Ref) (*models.DetectiveReport, error) {
	if !c.IsAssignedTo(detectiveID) {
		return nil, apperr.Forbidden("Only the detective assigned to this case can submit a report.")
	}
	if !c.Status.IsActive() {
		return nil, apperr.Preconditionf("Reports cannot be filed on a %s case.", c.Status)
	}

	seen := make(map[models.Ref]bool, len(refs))
	report := &models.DetectiveReport{
		CaseID:           c.ID,
		DetectiveID:      detectiveID,
		Status:           models.ReportPendingSergeant,
		DetectiveMessage: message,
	}
	for _, ref := range refs {
		if !ref.Type.IsEvidence() {
			return nil, apperr.FieldValidation("suspects", "Reported suspect reference "+ref.String()+" is not evidence.")
		}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		report.Suspects = append(report.Suspects, models.ReportedSuspect{Ref: ref})
	}
	return report, nil
}

// SergeantReview resolves a pending report. Approval unlocks arrests and the
// caller must then materialize the reported suspects; disagreement leaves the
// case as it is.
func SergeantReview(r *models.DetectiveReport, sergeantID uint, d Decision, message string, now time.Time) (string, error) {
	if r.Status != models.ReportPendingSergeant {
		return "", apperr.Preconditionf("Report has already been reviewed (status %s).", r.Status)
	}

	var status string
	switch d {
	case Approve:
		r.Status = models.ReportApproved
		status = "Approved; arrest may begin."
	case Disagree, Reject:
		r.Status = models.ReportDisagreement
		status = "Disagreement recorded; case remains open."
	default:
		return "", invalidDecision(d)
	}
	r.SergeantID = &sergeantID
	r.SergeantMessage = message
	r.ReviewedAt = &now
	return status, nil
}
