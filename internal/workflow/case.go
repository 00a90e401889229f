package workflow

import (
	"fmt"
	"strings"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

// CaseInput is the creator-supplied content of a case.
type CaseInput struct {
	Title            string
	Description      string
	Severity         models.Severity
	IncidentDate     *time.Time
	IncidentLocation string
}

// NewCase builds a directly created case. Cases created by the top police rank
// skip the approval step.
func NewCase(creatorID uint, creatorIsChief bool, in CaseInput) (*models.Case, error) {
	if !in.Severity.Valid() {
		return nil, apperr.FieldValidation("severity", fmt.Sprintf("Unknown severity %q.", in.Severity))
	}
	status := models.CaseOpen
	if creatorIsChief {
		status = models.CaseUnderInvestigation
	}
	return &models.Case{
		Title:            in.Title,
		Description:      in.Description,
		Severity:         in.Severity,
		Status:           status,
		IncidentDate:     in.IncidentDate,
		IncidentLocation: in.IncidentLocation,
		CreatedBy:        &creatorID,
	}, nil
}

// ApproveCase resolves the pending approval of an OPEN case.
func ApproveCase(c *models.Case, d Decision, message string, now time.Time) (string, error) {
	if c.Status != models.CaseOpen {
		return "", apperr.Preconditionf("Case is not pending approval (status %s).", c.Status)
	}

	switch d {
	case Approve:
		c.Status = models.CaseUnderInvestigation
		appendNote(c, "Approval note", message)
		return "Case approved successfully", nil
	case Reject:
		c.Status = models.CaseClosed
		c.ClosedAt = &now
		appendNote(c, "Rejection note", message)
		return "Case rejected", nil
	default:
		return "", invalidDecision(d)
	}
}

func appendNote(c *models.Case, label, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	entry := label + ": " + message
	if c.Notes == "" {
		c.Notes = entry
		return
	}
	c.Notes += "\n\n" + entry
}

// AssignDetective sets the investigator. Assigning advances an OPEN case to
// UNDER_INVESTIGATION; reassigning the same detective changes nothing else.
func AssignDetective(c *models.Case, detectiveID uint) error {
	switch c.Status {
	case models.CaseClosed, models.CaseArchived:
		return apperr.Preconditionf("Cannot assign a detective to a %s case.", c.Status)
	}
	c.AssignedDetectiveID = &detectiveID
	if c.Status == models.CaseOpen {
		c.Status = models.CaseUnderInvestigation
	}
	return nil
}

// ResolveCase moves an active case to a resolution state.
func ResolveCase(c *models.Case, to models.CaseStatus, now time.Time) error {
	switch to {
	case models.CaseSolved:
		if c.Status != models.CaseUnderInvestigation {
			return apperr.Preconditionf("Only cases under investigation can be solved (status %s).", c.Status)
		}
		c.SolvedAt = &now
	case models.CaseClosed:
		if c.Status == models.CaseClosed || c.Status == models.CaseArchived {
			return apperr.Preconditionf("Case is already %s.", c.Status)
		}
		c.ClosedAt = &now
	case models.CaseArchived:
		if c.Status != models.CaseSolved && c.Status != models.CaseClosed {
			return apperr.Preconditionf("Only solved or closed cases can be archived (status %s).", c.Status)
		}
	default:
		return apperr.FieldValidation("status", fmt.Sprintf("Cannot move a case to %q.", to))
	}
	c.Status = to
	return nil
}
