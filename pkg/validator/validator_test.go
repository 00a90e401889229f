package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
)

func TestValidateStruct(t *testing.T) {
	type TestStruct struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Name     string `json:"name" validate:"notblank"`
		Severity string `json:"severity" validate:"omitempty,severity"`
	}

	tests := []struct {
		name  string
		input TestStruct
		field string
	}{
		{
			name:  "valid struct",
			input: TestStruct{Email: "test@example.com", Password: "password123", Name: "John Doe", Severity: "LEVEL2"},
		},
		{
			name:  "blank required field",
			input: TestStruct{Email: "test@example.com", Password: "password123", Name: "   "},
			field: "name",
		},
		{
			name:  "invalid email",
			input: TestStruct{Email: "invalid-email", Password: "password123", Name: "John Doe"},
			field: "email",
		},
		{
			name:  "password too short",
			input: TestStruct{Email: "test@example.com", Password: "short", Name: "John Doe"},
			field: "password",
		},
		{
			name:  "unknown severity",
			input: TestStruct{Email: "test@example.com", Password: "password123", Name: "John Doe", Severity: "LEVEL9"},
			field: "severity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperr.ErrValidation)
			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestValidateStructNestedAndExclusive(t *testing.T) {
	type Ref struct {
		Type string `json:"type" validate:"evidence_type"`
		ID   uint   `json:"id" validate:"required"`
	}
	type Vehicle struct {
		LicensePlate string `json:"license_plate" validate:"excluded_with=VIN"`
		VIN          string `json:"vin"`
		Refs         []Ref  `json:"refs" validate:"dive"`
	}

	assert.NoError(t, ValidateStruct(&Vehicle{LicensePlate: "PR-1"}))
	assert.NoError(t, ValidateStruct(&Vehicle{VIN: "1HGCM82633A004352"}))

	err := ValidateStruct(&Vehicle{LicensePlate: "PR-1", VIN: "1HGCM82633A004352"})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "license_plate", appErr.Field)

	err = ValidateStruct(&Vehicle{Refs: []Ref{{Type: "vehicle", ID: 1}, {Type: "case", ID: 2}}})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "refs[1].type", appErr.Field)
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected bool
	}{
		{"test@example.com", true},
		{"user.name@example.co.uk", true},
		{"invalid-email", false},
		{"@example.com", false},
		{"user@", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		assert.Equal(t, tt.expected, err == nil, "ValidateEmail(%q)", tt.email)
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  test  ", "test"},
		{"test\x00string", "teststring"},
		{"normal", "normal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeString(tt.input))
	}
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "test@example.com", SanitizeEmail("Test@Example.com"))
	assert.Equal(t, "user@example.com", SanitizeEmail("  USER@EXAMPLE.COM  "))
}
