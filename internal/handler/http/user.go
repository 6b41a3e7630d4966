package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/httputil"
	"github.com/zarick1/natours/internal/middleware"
	"github.com/zarick1/natours/internal/repository/postgres"
	"github.com/zarick1/natours/internal/service"
	"github.com/zarick1/natours/internal/validator"
)

// UserHandler handles HTTP requests for account endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// UpdateMeRequest is the JSON request body for self-service profile updates.
// Password fields are rejected outright; the password endpoints own those.
type UpdateMeRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
	Photo *string `json:"photo" validate:"omitempty,max=255"`

	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// AdminUpdateUserRequest is the JSON request body for administrative account
// updates.
type AdminUpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("you are not logged in"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("you are not logged in"))
		return
	}

	var req UpdateMeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Password != nil || req.PasswordConfirm != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(
			"this route is not for password updates, use /api/v1/auth/update-password"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	updated, err := h.users.UpdateMe(r.Context(), user.ID, service.UpdateMeInput{
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, updated)
}

// DeleteMe handles DELETE /api/v1/users/me
//
// The account is deactivated, not removed; reviews and bookings keep their
// author rows.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("you are not logged in"))
		return
	}

	if err := h.users.DeactivateMe(r.Context(), user.ID); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	spec := buildSpec(w, r, postgres.UserColumns)
	if spec == nil {
		return
	}

	users, total, err := h.users.ListUsers(r.Context(), spec)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	writeList(w, r, users, total, spec)
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// Update handles PATCH /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req AdminUpdateUserRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), chi.URLParam(r, "id"), service.AdminUpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
