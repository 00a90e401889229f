package workflow

import (
	"strings"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

// ValidateScore checks a guilt score is within 1..10.
func ValidateScore(score int) error {
	if score < 1 || score > 10 {
		return apperr.FieldValidation("score", "Score must be between 1 and 10.")
	}
	return nil
}

func checkNotFinal(l *models.SuspectCaseLink) error {
	if l.ChiefApproved != nil {
		return apperr.Precondition("The chief has already decided on this suspect.")
	}
	return nil
}

// DetectiveAssessment records the detective's guilt score.
func DetectiveAssessment(l *models.SuspectCaseLink, detectiveID uint, score int, now time.Time) error {
	if err := checkNotFinal(l); err != nil {
		return err
	}
	if err := ValidateScore(score); err != nil {
		return err
	}
	l.DetectiveScore = &score
	l.DetectiveID = &detectiveID
	l.DetectiveScoredAt = &now
	return nil
}

// SergeantAssessment records the sergeant's guilt score. Detective and
// sergeant may score in either order.
func SergeantAssessment(l *models.SuspectCaseLink, sergeantID uint, score int, now time.Time) error {
	if err := checkNotFinal(l); err != nil {
		return err
	}
	if err := ValidateScore(score); err != nil {
		return err
	}
	l.SergeantScore = &score
	l.SergeantID = &sergeantID
	l.SergeantScoredAt = &now
	return nil
}

// CaptainOpinion records the captain's final opinion, which needs both scores.
func CaptainOpinion(l *models.SuspectCaseLink, captainID uint, opinion string, now time.Time) error {
	if err := checkNotFinal(l); err != nil {
		return err
	}
	if !l.HasBothAssessments() {
		return apperr.Validation("Both detective and sergeant assessments are required before the captain's opinion.")
	}
	if strings.TrimSpace(opinion) == "" {
		return apperr.FieldValidation("opinion", "Opinion is required.")
	}
	l.CaptainOpinion = opinion
	l.CaptainID = &captainID
	l.CaptainOpinionAt = &now
	return nil
}

// ChiefApproval records the chief's decision. It only applies to cases of the
// maximum severity tier and needs the captain's opinion first.
func ChiefApproval(l *models.SuspectCaseLink, severity models.Severity, chiefID uint, approved bool, now time.Time) error {
	if severity != models.MaxSeverity {
		return apperr.Preconditionf("Chief approval only applies to %s cases (this case is %s).", models.MaxSeverity, severity)
	}
	if err := checkNotFinal(l); err != nil {
		return err
	}
	if strings.TrimSpace(l.CaptainOpinion) == "" {
		return apperr.Precondition("The captain's opinion is required before chief approval.")
	}
	l.ChiefApproved = &approved
	l.ChiefID = &chiefID
	l.ChiefDecidedAt = &now
	return nil
}
