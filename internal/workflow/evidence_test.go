package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

func vehicle(id, caseID uint) *models.Vehicle {
	return &models.Vehicle{EvidenceBase: models.EvidenceBase{ID: id, CaseID: caseID, Title: "Sedan"}}
}

func TestValidateEvidence(t *testing.T) {
	five := 5
	eleven := 11

	tests := []struct {
		name      string
		evidence  models.Evidence
		wantField string
	}{
		{"vehicle with plate", &models.Vehicle{EvidenceBase: models.EvidenceBase{Title: "car"}, LicensePlate: "ABC-123"}, ""},
		{"vehicle with vin", &models.Vehicle{EvidenceBase: models.EvidenceBase{Title: "car"}, VIN: "1HGCM82633A004352"}, ""},
		{"vehicle with both", &models.Vehicle{EvidenceBase: models.EvidenceBase{Title: "car"}, LicensePlate: "ABC-123", VIN: "1HGCM82633A004352"}, "vin"},
		{"missing title", &models.OtherItem{ItemName: "knife"}, "title"},
		{"credible witness", &models.Testimony{EvidenceBase: models.EvidenceBase{Title: "w"}, Credibility: &five}, ""},
		{"credibility out of range", &models.Testimony{EvidenceBase: models.EvidenceBase{Title: "w"}, Credibility: &eleven}, "credibility"},
		{"document attributes", &models.Document{EvidenceBase: models.EvidenceBase{Title: "id card"}, Attributes: map[string]string{"name": "x"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEvidence(tt.evidence)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}

	bio := &models.Biological{EvidenceBase: models.EvidenceBase{Title: "blood"}, LabResult: "A+"}
	assert.ErrorIs(t, ValidateEvidence(bio), apperr.ErrValidation)
}

func TestValidateLink(t *testing.T) {
	inCase := vehicle(1, 10)
	alsoInCase := &models.Testimony{EvidenceBase: models.EvidenceBase{ID: 1, CaseID: 10}}
	otherCase := vehicle(2, 11)

	require.NoError(t, ValidateLink(10, inCase, alsoInCase))

	var appErr *apperr.Error
	err := ValidateLink(10, otherCase, inCase)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "from", appErr.Field)
	assert.Equal(t, "From evidence must belong to this case.", appErr.Message)

	err = ValidateLink(10, inCase, otherCase)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "to", appErr.Field)

	err = ValidateLink(10, inCase, nil)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "to", appErr.Field)

	assert.ErrorIs(t, ValidateLink(10, inCase, inCase), apperr.ErrValidation)
}

func TestBiologicalApproval(t *testing.T) {
	bio := &models.Biological{EvidenceBase: models.EvidenceBase{ID: 4, CaseID: 10, Title: "blood"}}

	assert.ErrorIs(t, CoronerApprove(bio, 9, testNow), apperr.ErrPrecondition)
	assert.ErrorIs(t, RecordLabResult(bio, "  "), apperr.ErrValidation)

	require.NoError(t, RecordLabResult(bio, "O negative"))
	require.NoError(t, RecordLabResult(bio, "AB positive"))
	require.NoError(t, CoronerApprove(bio, 9, testNow))

	assert.True(t, bio.CoronerApproved)
	assert.Equal(t, uint(9), *bio.ApprovedBy)
	assert.Equal(t, testNow, *bio.ApprovedAt)
	assert.Equal(t, "AB positive", bio.LabResult)

	assert.ErrorIs(t, RecordLabResult(bio, "changed"), apperr.ErrPrecondition)
	assert.ErrorIs(t, CoronerApprove(bio, 9, testNow), apperr.ErrPrecondition)
}
