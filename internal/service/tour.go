package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zarick1/natours/internal/domain"
	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/query"
	"github.com/zarick1/natours/internal/repository"
	"github.com/zarick1/natours/internal/slug"
)

// seedRatingsAverage is the rating a tour carries before anyone reviews it.
const seedRatingsAverage = 4.5

// TourEventPublisher publishes tour domain events.
type TourEventPublisher interface {
	PublishTourCreated(ctx context.Context, tour *domain.Tour) error
}

// StatsCacher caches the tour-stats aggregate.
type StatsCacher interface {
	GetTourStats(ctx context.Context) ([]domain.TourStats, bool)
	SetTourStats(ctx context.Context, stats []domain.TourStats)
	InvalidateTourStats(ctx context.Context)
}

// TourService implements the business logic for tour operations.
type TourService struct {
	tours    repository.TourRepository
	stats    StatsCacher
	producer TourEventPublisher
	logger   *slog.Logger
}

// NewTourService creates a new tour service.
func NewTourService(
	tours repository.TourRepository,
	stats StatsCacher,
	producer TourEventPublisher,
	logger *slog.Logger,
) *TourService {
	return &TourService{
		tours:    tours,
		stats:    stats,
		producer: producer,
		logger:   logger,
	}
}

// CreateTourInput holds the parameters for creating a tour.
type CreateTourInput struct {
	Name          string
	Duration      int
	MaxGroupSize  int
	Difficulty    string
	Price         float64
	PriceDiscount *float64
	Summary       string
	Description   string
	ImageCover    string
	Images        []string
	StartDates    []time.Time
	Secret        bool
}

// UpdateTourInput holds the parameters for updating a tour.
type UpdateTourInput struct {
	Name          *string
	Duration      *int
	MaxGroupSize  *int
	Difficulty    *string
	Price         *float64
	PriceDiscount *float64
	Summary       *string
	Description   *string
	ImageCover    *string
	Images        []string
	StartDates    []time.Time
	Secret        *bool
}

// ListTours returns tours matching the query description. Secret tours stay
// hidden unless the caller asks for them (admin listings).
func (s *TourService) ListTours(ctx context.Context, spec *query.Spec, includeSecret bool) ([]domain.Tour, int, error) {
	return s.tours.List(ctx, spec, includeSecret)
}

// GetTour returns a single tour by id or URL slug.
func (s *TourService) GetTour(ctx context.Context, idOrSlug string) (*domain.Tour, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return s.tours.GetByID(ctx, idOrSlug)
	}
	return s.tours.GetBySlug(ctx, idOrSlug)
}

// CreateTour validates and persists a new tour, derives its slug, publishes
// the creation event, and invalidates the stats aggregate.
func (s *TourService) CreateTour(ctx context.Context, input CreateTourInput) (*domain.Tour, error) {
	if err := validateTourFields(input.Name, input.Difficulty, input.Price, input.PriceDiscount); err != nil {
		return nil, err
	}
	if input.Duration < 1 {
		return nil, apperrors.InvalidInput("duration must be at least 1 day")
	}
	if input.MaxGroupSize < 1 {
		return nil, apperrors.InvalidInput("group size must be at least 1")
	}

	now := time.Now().UTC()
	tour := &domain.Tour{
		ID:             uuid.New().String(),
		Name:           input.Name,
		Slug:           slug.Generate(input.Name),
		Duration:       input.Duration,
		MaxGroupSize:   input.MaxGroupSize,
		Difficulty:     input.Difficulty,
		RatingsAverage: seedRatingsAverage,
		Price:          input.Price,
		PriceDiscount:  input.PriceDiscount,
		Summary:        input.Summary,
		Description:    input.Description,
		ImageCover:     input.ImageCover,
		Images:         input.Images,
		StartDates:     input.StartDates,
		Secret:         input.Secret,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.tours.Create(ctx, tour); err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}

	s.stats.InvalidateTourStats(ctx)

	// Publish creation event (non-blocking on failure).
	if err := s.producer.PublishTourCreated(ctx, tour); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tour.created event",
			slog.String("tour_id", tour.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tour created",
		slog.String("tour_id", tour.ID),
		slog.String("slug", tour.Slug),
	)

	return tour, nil
}

// UpdateTour applies partial changes to a tour. A name change re-derives
// the slug.
func (s *TourService) UpdateTour(ctx context.Context, id string, input UpdateTourInput) (*domain.Tour, error) {
	tour, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tour: %w", err)
	}

	if input.Name != nil {
		tour.Name = *input.Name
		tour.Slug = slug.Generate(*input.Name)
	}
	if input.Duration != nil {
		tour.Duration = *input.Duration
	}
	if input.MaxGroupSize != nil {
		tour.MaxGroupSize = *input.MaxGroupSize
	}
	if input.Difficulty != nil {
		tour.Difficulty = *input.Difficulty
	}
	if input.Price != nil {
		tour.Price = *input.Price
	}
	if input.PriceDiscount != nil {
		tour.PriceDiscount = input.PriceDiscount
	}
	if input.Summary != nil {
		tour.Summary = *input.Summary
	}
	if input.Description != nil {
		tour.Description = *input.Description
	}
	if input.ImageCover != nil {
		tour.ImageCover = *input.ImageCover
	}
	if input.Images != nil {
		tour.Images = input.Images
	}
	if input.StartDates != nil {
		tour.StartDates = input.StartDates
	}
	if input.Secret != nil {
		tour.Secret = *input.Secret
	}

	if err := validateTourFields(tour.Name, tour.Difficulty, tour.Price, tour.PriceDiscount); err != nil {
		return nil, err
	}

	if err := s.tours.Update(ctx, tour); err != nil {
		return nil, fmt.Errorf("update tour: %w", err)
	}

	s.stats.InvalidateTourStats(ctx)

	s.logger.InfoContext(ctx, "tour updated",
		slog.String("tour_id", tour.ID),
	)

	return tour, nil
}

// DeleteTour removes a tour and its reviews.
func (s *TourService) DeleteTour(ctx context.Context, id string) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}

	s.stats.InvalidateTourStats(ctx)

	s.logger.InfoContext(ctx, "tour deleted",
		slog.String("tour_id", id),
	)

	return nil
}

// TourStats returns the per-difficulty aggregate, served from cache when
// warm.
func (s *TourService) TourStats(ctx context.Context) ([]domain.TourStats, error) {
	if stats, ok := s.stats.GetTourStats(ctx); ok {
		return stats, nil
	}

	stats, err := s.tours.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("tour stats: %w", err)
	}

	s.stats.SetTourStats(ctx, stats)
	return stats, nil
}

// MonthlyPlan counts tour starts per month of the given year.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	if year < 1900 || year > 2200 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid year %d", year))
	}
	return s.tours.MonthlyPlan(ctx, year)
}

func validateTourFields(name, difficulty string, price float64, discount *float64) error {
	if name == "" {
		return apperrors.InvalidInput("name is required")
	}
	if !domain.IsValidDifficulty(difficulty) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid difficulty %q", difficulty))
	}
	if price <= 0 {
		return apperrors.InvalidInput("price must be positive")
	}
	if discount != nil && *discount >= price {
		return apperrors.InvalidInput("discount must be below the regular price")
	}
	return nil
}
