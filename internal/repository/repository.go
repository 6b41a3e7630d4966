package repository

import (
	"context"

	"github.com/zarick1/natours/internal/domain"
	"github.com/zarick1/natours/internal/query"
)

// UserRepository defines the interface for user persistence operations.
// Lookups only ever see active accounts; deactivated rows stay in the store
// but are invisible to every read path except a hard admin delete.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves an active user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves an active user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByResetTokenHash retrieves the active user holding an unexpired
	// password-reset token with the given hash.
	GetByResetTokenHash(ctx context.Context, hash string) (*domain.User, error)

	// List returns active users matching the query description with the
	// total count.
	List(ctx context.Context, spec *query.Spec) ([]domain.User, int, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Deactivate soft-deletes a user, hiding them from all lookups.
	Deactivate(ctx context.Context, id string) error

	// Delete removes a user row entirely.
	Delete(ctx context.Context, id string) error
}

// TourRepository defines the interface for tour persistence operations.
type TourRepository interface {
	// Create inserts a new tour into the store.
	Create(ctx context.Context, tour *domain.Tour) error

	// GetByID retrieves a tour by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Tour, error)

	// GetBySlug retrieves a tour by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Tour, error)

	// List returns tours matching the query description with the total
	// count. Secret tours are excluded unless includeSecret is set.
	List(ctx context.Context, spec *query.Spec, includeSecret bool) ([]domain.Tour, int, error)

	// Update modifies an existing tour in the store.
	Update(ctx context.Context, tour *domain.Tour) error

	// Delete removes a tour from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// Stats aggregates rating and price figures per difficulty over
	// non-secret tours.
	Stats(ctx context.Context) ([]domain.TourStats, error)

	// MonthlyPlan counts tour starts per month of the given year.
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByTour returns reviews for the given tour with the total count.
	ListByTour(ctx context.Context, tourID string, spec *query.Spec) ([]domain.Review, int, error)

	// Update modifies an existing review in the store.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// RecomputeTourRatings refreshes the denormalized rating figures on the
	// reviewed tour.
	RecomputeTourRatings(ctx context.Context, tourID string) error
}
