package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/billdesk/pkg/apperror"
)

func TestKindStatus(t *testing.T) {
	cases := map[apperror.Kind]int{
		apperror.Validation:         http.StatusBadRequest,
		apperror.InvalidCredentials: http.StatusUnauthorized,
		apperror.SessionInvalid:     http.StatusUnauthorized,
		apperror.SessionExpired:     http.StatusUnauthorized,
		apperror.Forbidden:          http.StatusForbidden,
		apperror.NotFound:           http.StatusNotFound,
		apperror.Conflict:           http.StatusConflict,
		apperror.Internal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Status(), kind.String())
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", apperror.NotFoundf("Purchase not found"))
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.False(t, errors.Is(err, apperror.ErrConflict))
}

func TestFromHidesUnclassified(t *testing.T) {
	cause := errors.New("connection reset by peer")
	e := apperror.From(cause)

	assert.Equal(t, apperror.Internal, e.Kind)
	assert.Equal(t, "Internal Server Error", e.Message)
	assert.ErrorIs(t, e, cause)
}

func TestInvalidField(t *testing.T) {
	e := apperror.InvalidField("lines", "The lines field is required.")
	assert.Equal(t, apperror.Validation, e.Kind)
	assert.Equal(t, map[string]string{"lines": "The lines field is required."}, e.Fields)
}
