package workflow

import (
	"fmt"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

// SetReleaseAmounts records the bail and/or fine a sergeant sets for a
// detained suspect. A nil amount leaves that side unchanged.
func SetReleaseAmounts(bf *models.BailFine, s *models.Suspect, bail, fine *int64, setterID uint) error {
	if s.Status != models.SuspectDetained {
		return apperr.Preconditionf("Release amounts can only be set for detained suspects (status %s).", s.Status)
	}
	if bail == nil && fine == nil {
		return apperr.Validation("Provide a bail amount, a fine amount or both.")
	}
	if bail != nil {
		if *bail <= 0 {
			return apperr.FieldValidation("bail_amount", "Bail amount must be positive.")
		}
		if bf.BailPaid {
			return apperr.Precondition("Bail has already been paid.")
		}
	}
	if fine != nil {
		if *fine <= 0 {
			return apperr.FieldValidation("fine_amount", "Fine amount must be positive.")
		}
		if bf.FinePaid {
			return apperr.Precondition("Fine has already been paid.")
		}
	}

	if bail != nil {
		bf.BailAmount = bail
	}
	if fine != nil {
		bf.FineAmount = fine
	}
	bf.AmountSetBy = &setterID
	return nil
}

// ApproveRelease sets the supervisor approval flag. It only has an effect for
// suspects of the top severity tier.
func ApproveRelease(bf *models.BailFine, approverID uint, now time.Time) {
	bf.SupervisorApproved = true
	bf.ApprovedBy = &approverID
	bf.ApprovedAt = &now
}

// ReleaseRequiresApproval reports whether a payment alone cannot release a
// suspect of the given tier.
func ReleaseRequiresApproval(tier models.Severity) bool {
	return tier == models.MaxSeverity
}

// RecordPayment records a bail or fine payment and reports whether the suspect
// is released by it. Payments below the set amount, or for a side with no
// amount set, are rejected. A payment on the top tier is recorded but releases
// only once the supervisor approval flag is set; replaying it afterwards
// releases the suspect.
func RecordPayment(bf *models.BailFine, s *models.Suspect, tier models.Severity, kind models.PaymentKind, amount int64, ref string, now time.Time) (bool, error) {
	if s.Status != models.SuspectDetained {
		return false, apperr.Preconditionf("Suspect is not detained (status %s).", s.Status)
	}

	var set *int64
	switch kind {
	case models.PaymentBail:
		set = bf.BailAmount
	case models.PaymentFine:
		set = bf.FineAmount
	default:
		return false, apperr.FieldValidation("kind", fmt.Sprintf("Unknown payment kind %q.", kind))
	}
	if set == nil {
		return false, apperr.Validationf("No %s amount has been set for this suspect.", kind)
	}
	if amount < *set {
		return false, apperr.FieldValidation("amount", fmt.Sprintf("Payment %d is below the %s amount %d.", amount, kind, *set))
	}

	switch kind {
	case models.PaymentBail:
		if !bf.BailPaid {
			bf.BailPaid = true
			bf.BailPaidAt = &now
		}
		if ref != "" {
			bf.BailPaymentRef = ref
		}
	case models.PaymentFine:
		if !bf.FinePaid {
			bf.FinePaid = true
			bf.FinePaidAt = &now
		}
		if ref != "" {
			bf.FinePaymentRef = ref
		}
	}

	if ReleaseRequiresApproval(tier) && !bf.SupervisorApproved {
		return false, nil
	}
	s.Status = models.SuspectReleased
	s.ReleaseDate = &now
	return true, nil
}
