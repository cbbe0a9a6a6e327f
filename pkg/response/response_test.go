package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/billdesk/pkg/apperror"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"id": "p1"})

	env := decode(t, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 200, env.Status)
	assert.JSONEq(t, `{"id":"p1"}`, string(env.Data))
}

func TestFailHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, apperror.Wrap(errors.New("mongo: socket closed"), "Failed to create purchase"))

	env := decode(t, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Failed to create purchase", env.Message)
	assert.NotContains(t, rec.Body.String(), "socket")
}

func TestFailValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, apperror.InvalidField("lines", "The lines field is required."))

	env := decode(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The lines field is required.", env.Errors["lines"])
}

func TestPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2}, NewPagination(2, 10, 21))

	env := decode(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.TotalPages)
	assert.Equal(t, int64(21), env.Pagination.Total)
}
