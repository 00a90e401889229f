package workflow

import (
	"fmt"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

// ScheduleTrial opens the trial of a case under investigation or solved.
func ScheduleTrial(c *models.Case, judgeID uint, date time.Time) (*models.Trial, error) {
	if c.Status != models.CaseUnderInvestigation && c.Status != models.CaseSolved {
		return nil, apperr.Preconditionf("Cannot schedule a trial for a %s case.", c.Status)
	}
	if date.IsZero() {
		return nil, apperr.FieldValidation("scheduled_date", "Scheduled date is required.")
	}
	return &models.Trial{
		CaseID:        c.ID,
		JudgeID:       &judgeID,
		Status:        models.TrialScheduled,
		ScheduledDate: date,
	}, nil
}

// RecordVerdict closes a trial. Only the presiding judge may record it.
func RecordVerdict(t *models.Trial, judgeID uint, v models.Verdict, punishment, notes string, now time.Time) (string, error) {
	if t.JudgeID == nil || *t.JudgeID != judgeID {
		return "", apperr.Forbidden("Only the presiding judge can record the verdict.")
	}
	if t.Status == models.TrialCompleted {
		return "", apperr.Precondition("A verdict has already been recorded for this trial.")
	}
	if v != models.VerdictGuilty && v != models.VerdictInnocent {
		return "", apperr.FieldValidation("verdict", fmt.Sprintf("Unknown verdict %q.", v))
	}

	t.Verdict = &v
	t.Punishment = punishment
	t.JudgeNotes = notes
	t.VerdictAt = &now
	t.Status = models.TrialCompleted
	return fmt.Sprintf("Verdict %s recorded.", v), nil
}
