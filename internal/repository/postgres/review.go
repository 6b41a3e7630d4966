package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zarick1/natours/internal/domain"
	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/query"
)

// ReviewColumns is the query allow-list for the reviews collection.
var ReviewColumns = query.NewColumns("id",
	query.Col{Field: "id", SQL: "id"},
	query.Col{Field: "rating", SQL: "rating", Kind: query.Numeric},
	query.Col{Field: "user_id", SQL: "user_id"},
	query.Col{Field: "created_at", SQL: "created_at"},
)

const reviewSelect = `id, tour_id, user_id, rating, comment, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db DB
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review into the database. The unique (tour_id,
// user_id) constraint turns a second review from the same user into an
// already-exists error.
func (r *ReviewRepository) Create(ctx context.Context, rev *domain.Review) error {
	query := `
		INSERT INTO reviews (id, tour_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		rev.ID,
		rev.TourID,
		rev.UserID,
		rev.Rating,
		rev.Comment,
		rev.CreatedAt,
		rev.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "tour", rev.TourID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT ` + reviewSelect + `
		FROM reviews
		WHERE id = $1`

	var rev domain.Review
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rev.ID,
		&rev.TourID,
		&rev.UserID,
		&rev.Rating,
		&rev.Comment,
		&rev.CreatedAt,
		&rev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &rev, nil
}

// ListByTour returns reviews for the given tour with the total count.
func (r *ReviewRepository) ListByTour(ctx context.Context, tourID string, spec *query.Spec) ([]domain.Review, int, error) {
	where, args, err := spec.Where(ReviewColumns, 2)
	if err != nil {
		return nil, 0, err
	}
	orderBy, err := spec.OrderBy(ReviewColumns)
	if err != nil {
		return nil, 0, err
	}

	whereClause := "WHERE tour_id = $1"
	if where != "" {
		whereClause += " AND " + where
	}
	args = append([]any{tourID}, args...)

	q := fmt.Sprintf(`
		SELECT `+reviewSelect+`, count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		whereClause, orderBy, len(args)+1, len(args)+2)
	args = append(args, spec.Limit, spec.Offset())

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews []domain.Review
		total   int
	)
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(
			&rev.ID,
			&rev.TourID,
			&rev.UserID,
			&rev.Rating,
			&rev.Comment,
			&rev.CreatedAt,
			&rev.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, total, nil
}

// Update modifies an existing review in the database.
func (r *ReviewRepository) Update(ctx context.Context, rev *domain.Review) error {
	rev.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, updated_at = $3
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, rev.Rating, rev.Comment, rev.UpdatedAt, rev.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", rev.ID)
	}

	return nil
}

// Delete removes a review from the database by its ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// RecomputeTourRatings refreshes the denormalized rating figures on the
// reviewed tour. A tour with no reviews falls back to the 4.5 seed average.
func (r *ReviewRepository) RecomputeTourRatings(ctx context.Context, tourID string) error {
	query := `
		UPDATE tours
		SET ratings_quantity = agg.qty,
		    ratings_average = agg.avg,
		    updated_at = $2
		FROM (
			SELECT count(*) AS qty,
			       round(coalesce(avg(rating), 4.5)::numeric, 2) AS avg
			FROM reviews
			WHERE tour_id = $1
		) AS agg
		WHERE tours.id = $1`

	_, err := r.db.Exec(ctx, query, tourID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recompute tour ratings: %w", err)
	}

	return nil
}
