package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zarick1/natours/internal/domain"
	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/httputil"
	"github.com/zarick1/natours/internal/middleware"
	"github.com/zarick1/natours/internal/query"
	"github.com/zarick1/natours/internal/repository/postgres"
	"github.com/zarick1/natours/internal/service"
	"github.com/zarick1/natours/internal/validator"
)

// topCheapLimit is the page size of the curated "top 5 cheap" listing.
const topCheapLimit = 5

// TourHandler handles HTTP requests for tour endpoints.
type TourHandler struct {
	tours  *service.TourService
	logger *slog.Logger
}

// NewTourHandler creates a new tour HTTP handler.
func NewTourHandler(tours *service.TourService, logger *slog.Logger) *TourHandler {
	return &TourHandler{tours: tours, logger: logger}
}

// CreateTourRequest is the JSON request body for creating a tour.
type CreateTourRequest struct {
	Name          string      `json:"name" validate:"required,min=3,max=100"`
	Duration      int         `json:"duration" validate:"required,min=1"`
	MaxGroupSize  int         `json:"maxGroupSize" validate:"required,min=1"`
	Difficulty    string      `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Price         float64     `json:"price" validate:"required,gt=0"`
	PriceDiscount *float64    `json:"priceDiscount" validate:"omitempty,gt=0"`
	Summary       string      `json:"summary" validate:"required,max=500"`
	Description   string      `json:"description"`
	ImageCover    string      `json:"imageCover"`
	Images        []string    `json:"images"`
	StartDates    []time.Time `json:"startDates"`
	Secret        bool        `json:"secretTour"`
}

// UpdateTourRequest is the JSON request body for a partial tour update.
type UpdateTourRequest struct {
	Name          *string     `json:"name" validate:"omitempty,min=3,max=100"`
	Duration      *int        `json:"duration" validate:"omitempty,min=1"`
	MaxGroupSize  *int        `json:"maxGroupSize" validate:"omitempty,min=1"`
	Difficulty    *string     `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	Price         *float64    `json:"price" validate:"omitempty,gt=0"`
	PriceDiscount *float64    `json:"priceDiscount" validate:"omitempty,gt=0"`
	Summary       *string     `json:"summary" validate:"omitempty,max=500"`
	Description   *string     `json:"description"`
	ImageCover    *string     `json:"imageCover"`
	Images        []string    `json:"images"`
	StartDates    []time.Time `json:"startDates"`
	Secret        *bool       `json:"secretTour"`
}

// List handles GET /api/v1/tours
func (h *TourHandler) List(w http.ResponseWriter, r *http.Request) {
	spec := buildSpec(w, r, postgres.TourColumns)
	if spec == nil {
		return
	}

	tours, total, err := h.tours.ListTours(r.Context(), spec, canSeeSecretTours(r))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	writeList(w, r, tours, total, spec)
}

// TopCheap handles GET /api/v1/tours/top-5-cheap
//
// A fixed listing preset: the five cheapest among the best-rated tours,
// trimmed to the fields a landing page cares about.
func (h *TourHandler) TopCheap(w http.ResponseWriter, r *http.Request) {
	spec := &query.Spec{
		Sort: []query.SortKey{
			{Field: "ratingsAverage", Desc: true},
			{Field: "price"},
		},
		Fields: []string{"name", "price", "ratingsAverage", "summary", "difficulty"},
		Page:   1,
		Limit:  topCheapLimit,
	}

	tours, total, err := h.tours.ListTours(r.Context(), spec, false)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	writeList(w, r, tours, total, spec)
}

// Get handles GET /api/v1/tours/{tourID}
//
// The path segment may be either a tour id or its URL slug.
func (h *TourHandler) Get(w http.ResponseWriter, r *http.Request) {
	tour, err := h.tours.GetTour(r.Context(), chi.URLParam(r, "tourID"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tour)
}

// Create handles POST /api/v1/tours
func (h *TourHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTourRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	tour, err := h.tours.CreateTour(r.Context(), service.CreateTourInput{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		ImageCover:    req.ImageCover,
		Images:        req.Images,
		StartDates:    req.StartDates,
		Secret:        req.Secret,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, tour)
}

// Update handles PATCH /api/v1/tours/{tourID}
func (h *TourHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateTourRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	tour, err := h.tours.UpdateTour(r.Context(), chi.URLParam(r, "tourID"), service.UpdateTourInput{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		ImageCover:    req.ImageCover,
		Images:        req.Images,
		StartDates:    req.StartDates,
		Secret:        req.Secret,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tour)
}

// Delete handles DELETE /api/v1/tours/{tourID}
func (h *TourHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tours.DeleteTour(r.Context(), chi.URLParam(r, "tourID")); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/tours/stats
func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tours.TourStats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// MonthlyPlan handles GET /api/v1/tours/monthly-plan/{year}
func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("year must be a number"))
		return
	}

	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"year": year, "plan": plan})
}

// canSeeSecretTours reports whether the request carries a staff user allowed
// to see unpublished tours. Anonymous listings always hide them.
func canSeeSecretTours(r *http.Request) bool {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		return false
	}
	return user.Role == domain.RoleAdmin || user.Role == domain.RoleLeadGuide
}
