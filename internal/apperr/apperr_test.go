package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden", Forbidden("no"), http.StatusForbidden},
		{"precondition", Precondition("wrong state"), http.StatusBadRequest},
		{"validation", FieldValidation("message", "required"), http.StatusBadRequest},
		{"not found", NotFound("Case"), http.StatusNotFound},
		{"conflict", Conflict("duplicate"), http.StatusConflict},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("Suspect")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("failed to approve case: %w", Precondition("Case is not OPEN"))

	assert.True(t, errors.Is(err, ErrPrecondition))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "failed to approve case: Case is not OPEN", err.Error())
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Reward not found", NotFound("Reward").Error())
	assert.Equal(t, KindNotFound, KindOf(NotFound("Reward")))
}
