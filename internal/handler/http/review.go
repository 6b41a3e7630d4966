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

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// CreateReviewRequest is the JSON request body for writing a review. The tour
// comes from the URL and the author from the access token, never the body.
type CreateReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"required,max=2000"`
}

// UpdateReviewRequest is the JSON request body for editing a review.
type UpdateReviewRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Review *string `json:"review" validate:"omitempty,max=2000"`
}

// ListByTour handles GET /api/v1/tours/{tourID}/reviews
func (h *ReviewHandler) ListByTour(w http.ResponseWriter, r *http.Request) {
	spec := buildSpec(w, r, postgres.ReviewColumns)
	if spec == nil {
		return
	}

	reviews, total, err := h.reviews.ListByTour(r.Context(), chi.URLParam(r, "tourID"), spec)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	writeList(w, r, reviews, total, spec)
}

// Create handles POST /api/v1/tours/{tourID}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("you are not logged in"))
		return
	}

	var req CreateReviewRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), service.CreateReviewInput{
		TourID:  chi.URLParam(r, "tourID"),
		UserID:  user.ID,
		Rating:  req.Rating,
		Comment: req.Review,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, review)
}

// Get handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

// Update handles PATCH /api/v1/reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req UpdateReviewRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.reviews.UpdateReview(r.Context(), chi.URLParam(r, "id"), user, service.UpdateReviewInput{
		Rating:  req.Rating,
		Comment: req.Review,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, review)
}

// Delete handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	if err := h.reviews.DeleteReview(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
