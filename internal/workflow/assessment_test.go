package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

func TestAssessmentsInEitherOrder(t *testing.T) {
	a := &models.SuspectCaseLink{}
	require.NoError(t, DetectiveAssessment(a, 5, 7, testNow))
	require.NoError(t, SergeantAssessment(a, 8, 9, testNow))
	assert.True(t, a.HasBothAssessments())

	b := &models.SuspectCaseLink{}
	require.NoError(t, SergeantAssessment(b, 8, 9, testNow))
	require.NoError(t, DetectiveAssessment(b, 5, 7, testNow))
	assert.True(t, b.HasBothAssessments())

	require.NotNil(t, a.AverageGuiltScore())
	assert.InDelta(t, 8.0, *a.AverageGuiltScore(), 0.001)
}

func TestScoreRange(t *testing.T) {
	for _, score := range []int{0, -1, 11} {
		l := &models.SuspectCaseLink{}
		assert.ErrorIs(t, DetectiveAssessment(l, 5, score, testNow), apperr.ErrValidation)
		assert.Nil(t, l.DetectiveScore)
	}
	for _, score := range []int{1, 10} {
		assert.NoError(t, ValidateScore(score))
	}
}

func TestCaptainOpinionNeedsBothScores(t *testing.T) {
	l := &models.SuspectCaseLink{}
	assert.ErrorIs(t, CaptainOpinion(l, 3, "guilty", testNow), apperr.ErrValidation)

	require.NoError(t, DetectiveAssessment(l, 5, 6, testNow))
	assert.ErrorIs(t, CaptainOpinion(l, 3, "guilty", testNow), apperr.ErrValidation)
	assert.Empty(t, l.CaptainOpinion)

	require.NoError(t, SergeantAssessment(l, 8, 6, testNow))
	assert.ErrorIs(t, CaptainOpinion(l, 3, " ", testNow), apperr.ErrValidation)
	require.NoError(t, CaptainOpinion(l, 3, "guilty", testNow))
	assert.Equal(t, "guilty", l.CaptainOpinion)
}

func TestChiefApprovalOnlyForTopTier(t *testing.T) {
	ready := func() *models.SuspectCaseLink {
		six := 6
		return &models.SuspectCaseLink{DetectiveScore: &six, SergeantScore: &six, CaptainOpinion: "guilty"}
	}

	for _, sev := range []models.Severity{models.SeverityLevel3, models.SeverityLevel2, models.SeverityLevel1} {
		t.Run(string(sev), func(t *testing.T) {
			// rejected with or without a captain opinion
			l := ready()
			assert.ErrorIs(t, ChiefApproval(l, sev, 1, true, testNow), apperr.ErrPrecondition)
			assert.Nil(t, l.ChiefApproved)

			empty := &models.SuspectCaseLink{}
			assert.ErrorIs(t, ChiefApproval(empty, sev, 1, true, testNow), apperr.ErrPrecondition)
		})
	}

	empty := &models.SuspectCaseLink{}
	assert.ErrorIs(t, ChiefApproval(empty, models.SeverityCritical, 1, true, testNow), apperr.ErrPrecondition)

	l := ready()
	require.NoError(t, ChiefApproval(l, models.SeverityCritical, 1, false, testNow))
	require.NotNil(t, l.ChiefApproved)
	assert.False(t, *l.ChiefApproved)

	// terminal
	assert.ErrorIs(t, ChiefApproval(l, models.SeverityCritical, 1, true, testNow), apperr.ErrPrecondition)
	assert.ErrorIs(t, DetectiveAssessment(l, 5, 2, testNow), apperr.ErrPrecondition)
}
