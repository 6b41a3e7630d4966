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
)

// ReviewEventPublisher publishes review domain events.
type ReviewEventPublisher interface {
	PublishReviewWritten(ctx context.Context, review *domain.Review) error
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	reviews  repository.ReviewRepository
	tours    repository.TourRepository
	stats    StatsCacher
	producer ReviewEventPublisher
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	tours repository.TourRepository,
	stats StatsCacher,
	producer ReviewEventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		tours:    tours,
		stats:    stats,
		producer: producer,
		logger:   logger,
	}
}

// CreateReviewInput holds the parameters for writing a review.
type CreateReviewInput struct {
	TourID  string
	UserID  string
	Rating  int
	Comment string
}

// UpdateReviewInput holds the parameters for editing a review.
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

// ListByTour returns reviews for the given tour.
func (s *ReviewService) ListByTour(ctx context.Context, tourID string, spec *query.Spec) ([]domain.Review, int, error) {
	return s.reviews.ListByTour(ctx, tourID, spec)
}

// GetReview returns a single review by id.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	return s.reviews.GetByID(ctx, id)
}

// CreateReview persists a new review and refreshes the tour's denormalized
// rating figures. Reviewing a missing tour is a not-found, not a dangling
// row.
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if input.Comment == "" {
		return nil, apperrors.InvalidInput("review text is required")
	}

	if _, err := s.tours.GetByID(ctx, input.TourID); err != nil {
		return nil, fmt.Errorf("get tour: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		TourID:    input.TourID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.refreshRatings(ctx, review.TourID)

	// Publish review event (non-blocking on failure).
	if err := s.producer.PublishReviewWritten(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.written event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("tour_id", review.TourID),
	)

	return review, nil
}

// UpdateReview edits a review. Only the author or an admin may change it.
func (s *ReviewService) UpdateReview(ctx context.Context, id string, actor *domain.User, input UpdateReviewInput) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	if err := authorizeReviewChange(review, actor); err != nil {
		return nil, err
	}

	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = *input.Comment
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.refreshRatings(ctx, review.TourID)

	return review, nil
}

// DeleteReview removes a review. Only the author or an admin may delete it.
func (s *ReviewService) DeleteReview(ctx context.Context, id string, actor *domain.User) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}

	if err := authorizeReviewChange(review, actor); err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.refreshRatings(ctx, review.TourID)

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
	)

	return nil
}

// refreshRatings recomputes the tour's rating figures and drops the stats
// cache. Failures are logged; the review write already succeeded.
func (s *ReviewService) refreshRatings(ctx context.Context, tourID string) {
	if err := s.reviews.RecomputeTourRatings(ctx, tourID); err != nil {
		s.logger.ErrorContext(ctx, "failed to recompute tour ratings",
			slog.String("tour_id", tourID),
			slog.String("error", err.Error()),
		)
	}
	s.stats.InvalidateTourStats(ctx)
}

func authorizeReviewChange(review *domain.Review, actor *domain.User) error {
	if actor == nil {
		return apperrors.Unauthorized("authentication required")
	}
	if actor.Role != domain.RoleAdmin && review.UserID != actor.ID {
		return apperrors.Forbidden("you can only modify your own reviews")
	}
	return nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return apperrors.InvalidInput("rating must be between 1 and 5")
	}
	return nil
}
