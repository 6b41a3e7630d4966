package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/logger"
	"github.com/zarick1/natours/internal/validator"
)

// Envelope status values. 4xx outcomes are "fail" (the client can fix the
// request), 5xx outcomes are "error".
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope is the JSON response shape used by every endpoint.
type Envelope struct {
	Status  string            `json:"status"`
	Data    any               `json:"data,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v wrapped in a success envelope with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, Envelope{Status: StatusSuccess, Data: data})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(env)
}

// statusWord maps an HTTP status code to the envelope status field.
func statusWord(httpStatus int) string {
	if httpStatus >= http.StatusInternalServerError {
		return StatusError
	}
	return StatusFail
}

// WriteError writes a standardized error envelope based on the error type.
// AppError carries its own code/message/status; wrapped sentinels map through
// apperrors.HTTPStatus. Internal errors are logged with the request-scoped
// logger and surfaced without detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			l.ErrorContext(r.Context(), "request failed",
				slog.String("error", appErr.Error()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
		}
		writeEnvelope(w, appErr.Status, Envelope{
			Status:  statusWord(appErr.Status),
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code, message = "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		code, message = "ALREADY_EXISTS", "resource already exists"
	case errors.Is(err, apperrors.ErrInvalidInput):
		code, message = "INVALID_INPUT", err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		code, message = "UNAUTHORIZED", err.Error()
	case errors.Is(err, apperrors.ErrForbidden):
		code, message = "FORBIDDEN", err.Error()
	}

	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeEnvelope(w, status, Envelope{
		Status:  statusWord(status),
		Code:    code,
		Message: message,
	})
}

// WriteValidationError writes a field-level validation failure envelope.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeEnvelope(w, http.StatusBadRequest, Envelope{
			Status:  StatusFail,
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		})
		return
	}

	writeEnvelope(w, http.StatusBadRequest, Envelope{
		Status:  StatusFail,
		Code:    "INVALID_INPUT",
		Message: err.Error(),
	})
}

// ListData is the data payload for paginated list responses.
type ListData[T any] struct {
	Results    int `json:"results"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
	Items      []T `json:"items"`
}

// NewListData builds the pagination payload for the given page of items.
func NewListData[T any](items []T, totalCount, page, limit int) ListData[T] {
	totalPages := totalCount / limit
	if totalCount%limit > 0 {
		totalPages++
	}
	if items == nil {
		items = []T{}
	}
	return ListData[T]{
		Results:    len(items),
		TotalCount: totalCount,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Items:      items,
	}
}
