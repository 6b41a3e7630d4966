package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/logger"
	"github.com/zarick1/natours/internal/validator"
)

// quietRequest builds a request whose context carries a discard logger so
// 5xx logging stays out of test output.
func quietRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	l := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	return req.WithContext(logger.NewContext(req.Context(), l))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWriteJSON_SuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "t-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decodeEnvelope(t, rec)
	assert.Equal(t, StatusSuccess, env.Status)
	assert.Equal(t, map[string]any{"id": "t-1"}, env.Data)
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := quietRequest(http.MethodGet, "/api/v1/tours/missing")

	WriteError(rec, req, apperrors.NotFound("tour", "missing"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, StatusFail, env.Status)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Contains(t, env.Message, "missing")
}

func TestWriteError_DependencyFailureIsError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := quietRequest(http.MethodPost, "/api/v1/auth/forgot-password")

	WriteError(rec, req, apperrors.Dependency("mail service", fmt.Errorf("smtp down")))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "DEPENDENCY_FAILURE", env.Code)
	assert.NotContains(t, env.Message, "smtp down")
}

func TestWriteError_UnknownErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := quietRequest(http.MethodGet, "/api/v1/tours")

	WriteError(rec, req, fmt.Errorf("pq: table exploded"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "an internal error occurred", env.Message)
}

func TestWriteValidationError_FieldMessages(t *testing.T) {
	type form struct {
		Email string `validate:"required,email"`
	}
	err := validator.Validate(form{Email: "nope"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
	assert.Equal(t, "must be a valid email address", env.Fields["Email"])
}

func TestNewListData(t *testing.T) {
	data := NewListData([]string{"a", "b", "c"}, 25, 2, 10)
	assert.Equal(t, 3, data.Results)
	assert.Equal(t, 25, data.TotalCount)
	assert.Equal(t, 3, data.TotalPages)
	assert.Equal(t, 2, data.Page)

	empty := NewListData[string](nil, 0, 1, 100)
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.Results)
	assert.Zero(t, empty.TotalPages)
}
