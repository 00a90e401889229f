package workflow

import (
	"strings"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

// ValidateEvidence checks the variant-specific invariants of a new evidence item.
func ValidateEvidence(e models.Evidence) error {
	if strings.TrimSpace(e.Envelope().Title) == "" {
		return apperr.FieldValidation("title", "Title is required.")
	}

	switch v := e.(type) {
	case *models.Vehicle:
		if v.LicensePlate != "" && v.VIN != "" {
			return apperr.FieldValidation("vin", "A vehicle carries either a license plate or a VIN, not both.")
		}
	case *models.Testimony:
		if v.Credibility != nil && (*v.Credibility < 1 || *v.Credibility > 10) {
			return apperr.FieldValidation("credibility", "Credibility must be between 1 and 10.")
		}
	case *models.Biological:
		if v.LabResult != "" || v.CoronerApproved {
			return apperr.Validation("Biological evidence starts without lab result or approval.")
		}
	}
	return nil
}

// CheckBelongsToCase verifies a resolved evidence reference is filed under the
// given case. side names the reference in the error message ("From", "To",
// "Reported suspect").
func CheckBelongsToCase(side string, e models.Evidence, caseID uint) error {
	if e == nil || e.Envelope().CaseID != caseID {
		return apperr.FieldValidation(strings.ToLower(strings.ReplaceAll(side, " ", "_")),
			side+" evidence must belong to this case.")
	}
	return nil
}

// ValidateLink checks the two ends of a detective-board link. A nil evidence
// value means the reference did not resolve.
func ValidateLink(caseID uint, from, to models.Evidence) error {
	if err := CheckBelongsToCase("From", from, caseID); err != nil {
		return err
	}
	if err := CheckBelongsToCase("To", to, caseID); err != nil {
		return err
	}
	if models.RefOf(from) == models.RefOf(to) {
		return apperr.Validation("An evidence item cannot be linked to itself.")
	}
	return nil
}

// RecordLabResult stores the lab result of a biological item. A result can be
// replaced until the coroner approves the item.
func RecordLabResult(e *models.Biological, result string) error {
	if strings.TrimSpace(result) == "" {
		return apperr.FieldValidation("lab_result", "Lab result is required.")
	}
	if e.CoronerApproved {
		return apperr.Precondition("Lab result is final once the coroner approved the evidence.")
	}
	e.LabResult = result
	return nil
}

// CoronerApprove signs off a biological item that has a lab result.
func CoronerApprove(e *models.Biological, coronerID uint, now time.Time) error {
	if e.CoronerApproved {
		return apperr.Precondition("Evidence is already approved.")
	}
	if e.LabResult == "" {
		return apperr.Precondition("Record a lab result before approving.")
	}
	e.CoronerApproved = true
	e.ApprovedBy = &coronerID
	e.ApprovedAt = &now
	return nil
}
