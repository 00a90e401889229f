package workflow

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

func pendingTip(t *testing.T) *models.Reward {
	t.Helper()
	caseID := uint(10)
	r, err := NewTip(20, &caseID, nil, "saw the car at the docks")
	require.NoError(t, err)
	return r
}

func TestNewTip(t *testing.T) {
	r := pendingTip(t)
	assert.Equal(t, models.RewardPending, r.Status)
	assert.True(t, r.IsCivilianReward)

	_, err := NewTip(20, nil, nil, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOfficerTriageWithoutDetective(t *testing.T) {
	r := pendingTip(t)
	c := &models.Case{ID: 10, Status: models.CaseOpen}

	_, err := OfficerTriage(r, c, 3, Approve, "", testNow)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Cannot send to detective queue because this case has no assigned detective.", appErr.Message)
	assert.Equal(t, models.RewardPending, r.Status)
	assert.Nil(t, r.OfficerReviewedBy)

	_, err = OfficerTriage(r, nil, 3, Approve, "", testNow)
	assert.Error(t, err)
	assert.Equal(t, models.RewardPending, r.Status)
}

func TestOfficerTriageReject(t *testing.T) {
	r := pendingTip(t)
	_, err := OfficerTriage(r, nil, 3, Reject, "", testNow)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	msg, err := OfficerTriage(r, nil, 3, Reject, "not credible", testNow)
	require.NoError(t, err)
	assert.Equal(t, "Reward submission rejected.", msg)
	assert.Equal(t, models.RewardRejected, r.Status)
	assert.Equal(t, "not credible", r.RejectionReason)
}

func TestRewardFullPath(t *testing.T) {
	r := pendingTip(t)
	c := assignedCase(5)

	_, err := OfficerTriage(r, c, 3, Approve, "", testNow)
	require.NoError(t, err)
	assert.Equal(t, models.RewardPendingDetective, r.Status)

	_, err = DetectiveDecision(r, c, 6, Approve, "", nil, testNow)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = DetectiveDecision(r, c, 5, Approve, "", amount(-3), testNow)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, models.RewardPendingDetective, r.Status)

	_, err = DetectiveDecision(r, c, 5, Approve, "useful", amount(40_000_000), testNow)
	require.NoError(t, err)
	assert.Equal(t, models.RewardReadyForPayment, r.Status)
	assert.Equal(t, int64(40_000_000), r.Amount)

	assert.ErrorIs(t, ClaimAtStation(r, 2, "Central", false, "", testNow), apperr.ErrValidation)
	assert.Equal(t, models.RewardReadyForPayment, r.Status)

	require.NoError(t, ClaimAtStation(r, 2, "Central", true, "PAY-77", testNow))
	assert.Equal(t, models.RewardPaid, r.Status)
	assert.Equal(t, "PAY-77", r.PaymentRef)
	assert.Equal(t, "Central", r.ClaimedAtStation)

	assert.ErrorIs(t, ClaimAtStation(r, 2, "Central", true, "", testNow), apperr.ErrPrecondition)
}

func TestClaimRejectsNonCivilian(t *testing.T) {
	r := &models.Reward{Status: models.RewardReadyForPayment}
	assert.ErrorIs(t, ClaimAtStation(r, 2, "Central", true, "", testNow), apperr.ErrPrecondition)
	assert.Equal(t, models.RewardReadyForPayment, r.Status)
}

func TestRecordVerdict(t *testing.T) {
	c := &models.Case{ID: 10, Status: models.CaseSolved}
	trial, err := ScheduleTrial(c, 30, testNow.Add(72*time.Hour))
	require.NoError(t, err)

	_, err = RecordVerdict(trial, 31, models.VerdictGuilty, "", "", testNow)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	msg, err := RecordVerdict(trial, 30, models.VerdictGuilty, "5 years", "", testNow)
	require.NoError(t, err)
	assert.Equal(t, "Verdict GUILTY recorded.", msg)
	assert.Equal(t, models.TrialCompleted, trial.Status)

	_, err = RecordVerdict(trial, 30, models.VerdictInnocent, "", "", testNow)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	_, err = ScheduleTrial(&models.Case{Status: models.CaseOpen}, 30, testNow)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
}

func TestGeneratedCodes(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^C-2026-0042-[0-9A-F]{4}$`), CaseNumber(testNow, 42))
	assert.Regexp(t, regexp.MustCompile(`^EV-2026-[0-9A-F]{8}$`), EvidenceNumber(testNow))
	assert.Regexp(t, regexp.MustCompile(`^RWD-20261001-[A-Z0-9]{5}$`), RewardCode(testNow))
	assert.NotEqual(t, EvidenceNumber(testNow), EvidenceNumber(testNow))
}
