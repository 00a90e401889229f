package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

func amount(v int64) *int64 { return &v }

func detained() *models.Suspect {
	return &models.Suspect{ID: 1, Status: models.SuspectDetained}
}

func TestSetReleaseAmounts(t *testing.T) {
	bf := &models.BailFine{}
	free := &models.Suspect{Status: models.SuspectUnderInvestigation}
	assert.ErrorIs(t, SetReleaseAmounts(bf, free, amount(100), nil, 8), apperr.ErrPrecondition)

	s := detained()
	assert.ErrorIs(t, SetReleaseAmounts(bf, s, nil, nil, 8), apperr.ErrValidation)
	assert.ErrorIs(t, SetReleaseAmounts(bf, s, amount(0), nil, 8), apperr.ErrValidation)

	require.NoError(t, SetReleaseAmounts(bf, s, amount(500), amount(50), 8))
	assert.Equal(t, int64(500), *bf.BailAmount)
	assert.Equal(t, int64(50), *bf.FineAmount)

	bf.BailPaid = true
	assert.ErrorIs(t, SetReleaseAmounts(bf, s, amount(900), nil, 8), apperr.ErrPrecondition)
	assert.Equal(t, int64(500), *bf.BailAmount)
}

func TestPaymentReleasesLowerTiers(t *testing.T) {
	for _, tier := range []models.Severity{models.SeverityLevel3, models.SeverityLevel2, models.SeverityLevel1} {
		t.Run(string(tier), func(t *testing.T) {
			s := detained()
			bf := &models.BailFine{BailAmount: amount(1000)}

			released, err := RecordPayment(bf, s, tier, models.PaymentBail, 1000, "TX-1", testNow)
			require.NoError(t, err)
			assert.True(t, released)
			assert.Equal(t, models.SuspectReleased, s.Status)
			assert.True(t, bf.BailPaid)
			assert.Equal(t, "TX-1", bf.BailPaymentRef)
		})
	}
}

func TestPaymentValidation(t *testing.T) {
	s := detained()
	bf := &models.BailFine{BailAmount: amount(1000)}

	_, err := RecordPayment(bf, s, models.SeverityLevel2, models.PaymentBail, 999, "", testNow)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.False(t, bf.BailPaid)

	_, err = RecordPayment(bf, s, models.SeverityLevel2, models.PaymentFine, 1000, "", testNow)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.False(t, bf.FinePaid)

	_, err = RecordPayment(bf, s, models.SeverityLevel2, models.PaymentKind("bribe"), 1000, "", testNow)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, models.SuspectDetained, s.Status)
}

func TestTopTierNeedsSupervisorApproval(t *testing.T) {
	s := detained()
	bf := &models.BailFine{BailAmount: amount(1000)}

	released, err := RecordPayment(bf, s, models.SeverityCritical, models.PaymentBail, 1000, "TX-9", testNow)
	require.NoError(t, err)
	assert.False(t, released)
	assert.Equal(t, models.SuspectDetained, s.Status)
	assert.True(t, bf.BailPaid)

	ApproveRelease(bf, 8, testNow)

	released, err = RecordPayment(bf, s, models.SeverityCritical, models.PaymentBail, 1000, "TX-9", testNow)
	require.NoError(t, err)
	assert.True(t, released)
	assert.Equal(t, models.SuspectReleased, s.Status)
	require.NotNil(t, s.ReleaseDate)
}
