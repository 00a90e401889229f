package workflow

import (
	"fmt"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

// ComplaintContent is the complainant-editable part of a complaint.
type ComplaintContent struct {
	Title            string
	Description      string
	IncidentDate     time.Time
	IncidentLocation string
}

// NewComplaint builds a complaint waiting in the cadet queue.
func NewComplaint(complainantID uint, content ComplaintContent) *models.Complaint {
	c := &models.Complaint{
		ComplainantID: complainantID,
		Status:        models.ComplaintPendingCadet,
	}
	applyContent(c, content)
	return c
}

func applyContent(c *models.Complaint, content ComplaintContent) {
	c.Title = content.Title
	c.Description = content.Description
	c.IncidentDate = content.IncidentDate
	c.IncidentLocation = content.IncidentLocation
}

// EditComplaint replaces the content of a returned complaint and puts it back
// in the cadet queue.
func EditComplaint(c *models.Complaint, content ComplaintContent) error {
	if c.Status != models.ComplaintReturnedToComplainant {
		return apperr.Preconditionf("Complaint can only be edited while %s (current status %s).",
			models.ComplaintReturnedToComplainant, c.Status)
	}
	applyContent(c, content)
	c.Status = models.ComplaintPendingCadet
	return nil
}

// CadetReview applies a cadet screening decision. A rejection bumps the
// rejection counter and voids the complaint once the limit is reached.
func CadetReview(c *models.Complaint, rules Rules, cadetID uint, d Decision, message string) (string, error) {
	if c.Status != models.ComplaintPendingCadet && c.Status != models.ComplaintReturnedToCadet {
		return "", apperr.Preconditionf("Complaint is not awaiting cadet review (status %s).", c.Status)
	}

	switch d {
	case Approve:
		c.Status = models.ComplaintPendingOfficer
		c.CadetMessage = message
		c.CadetReviewerID = &cadetID
		return "Complaint approved and sent to officer for review", nil
	case Reject:
		if err := requireMessage(message, "rejecting a complaint"); err != nil {
			return "", err
		}
		c.RejectionCount++
		c.CadetMessage = message
		c.CadetReviewerID = &cadetID
		if c.RejectionCount >= rules.MaxCadetRejections {
			c.Status = models.ComplaintVoided
			return fmt.Sprintf("Complaint voided due to %d rejections", c.RejectionCount), nil
		}
		c.Status = models.ComplaintReturnedToComplainant
		return "Complaint returned to complainant for correction", nil
	default:
		return "", invalidDecision(d)
	}
}

// OfficerReview applies an officer screening decision. On approval the caller
// must persist the case returned by CaseFromComplaint and link it.
func OfficerReview(c *models.Complaint, officerID uint, d Decision, message string) (string, error) {
	if c.Status != models.ComplaintPendingOfficer {
		return "", apperr.Preconditionf("Complaint is not awaiting officer review (status %s).", c.Status)
	}

	switch d {
	case Approve:
		c.Status = models.ComplaintApproved
		c.OfficerMessage = message
		c.OfficerReviewerID = &officerID
		return "Complaint approved and case created", nil
	case Reject:
		if err := requireMessage(message, "rejecting a complaint"); err != nil {
			return "", err
		}
		c.Status = models.ComplaintReturnedToCadet
		c.OfficerMessage = message
		c.OfficerReviewerID = &officerID
		return "Complaint returned to cadet for re-review", nil
	default:
		return "", invalidDecision(d)
	}
}

// CaseFromComplaint builds the OPEN case an approved complaint turns into.
func CaseFromComplaint(c *models.Complaint, officerID uint) *models.Case {
	incident := c.IncidentDate
	return &models.Case{
		Title:            c.Title,
		Description:      c.Description,
		IncidentDate:     &incident,
		IncidentLocation: c.IncidentLocation,
		Severity:         models.SeverityLevel3,
		Status:           models.CaseOpen,
		CreatedBy:        &officerID,
	}
}
