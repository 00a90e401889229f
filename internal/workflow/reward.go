package workflow

import (
	"fmt"
	"strings"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

// NewTip builds the civilian reward a tip submission starts as.
func NewTip(recipientID uint, caseID, suspectID *uint, information string) (*models.Reward, error) {
	if strings.TrimSpace(information) == "" {
		return nil, apperr.FieldValidation("information", "Information is required.")
	}
	return &models.Reward{
		RecipientID:      recipientID,
		CaseID:           caseID,
		SuspectID:        suspectID,
		RewardType:       models.RewardInformationProvided,
		Status:           models.RewardPending,
		Information:      information,
		IsCivilianReward: true,
	}, nil
}

// OfficerTriage rejects a tip or forwards it to the case detective. Forwarding
// needs the case to have an assigned detective.
func OfficerTriage(r *models.Reward, c *models.Case, officerID uint, d Decision, message string, now time.Time) (string, error) {
	if r.Status != models.RewardPending {
		return "", apperr.Preconditionf("Reward is not awaiting officer review (status %s).", r.Status)
	}

	switch d {
	case Reject:
		if err := requireMessage(message, "rejecting a reward submission"); err != nil {
			return "", err
		}
		r.Status = models.RewardRejected
		r.RejectionReason = message
		r.OfficerMessage = message
	case Approve:
		if c == nil || c.AssignedDetectiveID == nil {
			return "", apperr.Precondition("Cannot send to detective queue because this case has no assigned detective.")
		}
		r.Status = models.RewardPendingDetective
		r.OfficerMessage = message
	default:
		return "", invalidDecision(d)
	}
	r.OfficerReviewedBy = &officerID
	r.OfficerReviewedAt = &now

	if r.Status == models.RewardRejected {
		return "Reward submission rejected.", nil
	}
	return "Sent to detective responsible for the case.", nil
}

// DetectiveDecision approves or rejects a forwarded tip. Only the assigned
// detective of the reward's case may decide. On approval the caller assigns
// the claim code and notifies the recipient with ClaimNotice.
func DetectiveDecision(r *models.Reward, c *models.Case, detectiveID uint, d Decision, message string, amount *int64, now time.Time) (string, error) {
	if r.Status != models.RewardPendingDetective {
		return "", apperr.Preconditionf("Reward is not awaiting detective review (status %s).", r.Status)
	}
	if c == nil || !c.IsAssignedTo(detectiveID) {
		return "", apperr.Forbidden("Only the detective assigned to this case may review.")
	}

	switch d {
	case Reject:
		r.Status = models.RewardRejected
		r.RejectionReason = message
	case Approve:
		if amount != nil {
			if *amount <= 0 {
				return "", apperr.FieldValidation("amount", "Amount must be positive.")
			}
			r.Amount = *amount
		}
		r.Status = models.RewardReadyForPayment
	default:
		return "", invalidDecision(d)
	}
	r.DetectiveMessage = message
	r.DetectiveReviewedBy = &detectiveID
	r.DetectiveReviewedAt = &now

	if r.Status == models.RewardRejected {
		return "Reward submission rejected.", nil
	}
	return "Approved. User has been notified and can claim with the unique code.", nil
}

// ClaimNotice is the notification text sent with a freshly minted claim code.
func ClaimNotice(code string) string {
	return fmt.Sprintf("Your reward has been approved. Present this code at the police department: %s", code)
}

// ClaimAtStation pays out a civilian reward presented in person.
func ClaimAtStation(r *models.Reward, claimerID uint, station string, verified bool, paymentRef string, now time.Time) error {
	if !r.IsCivilianReward {
		return apperr.Precondition("Only civilian rewards can be claimed at a station.")
	}
	if r.Status != models.RewardReadyForPayment {
		return apperr.Preconditionf("Reward is not ready for payment (status %s).", r.Status)
	}
	if !verified {
		return apperr.FieldValidation("identity_verified", "Identity must be verified before paying out a reward.")
	}
	if strings.TrimSpace(station) == "" {
		return apperr.FieldValidation("station", "Station is required.")
	}

	r.Status = models.RewardPaid
	r.IdentityVerified = true
	r.ClaimedAtStation = station
	r.ClaimedAt = &now
	r.ClaimedBy = &claimerID
	if paymentRef != "" {
		r.PaymentRef = paymentRef
	}
	return nil
}
