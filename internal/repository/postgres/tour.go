package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zarick1/natours/internal/domain"
	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/query"
)

// TourColumns is the query allow-list for the tours collection.
var TourColumns = query.NewColumns("id",
	query.Col{Field: "id", SQL: "id"},
	query.Col{Field: "name", SQL: "name"},
	query.Col{Field: "slug", SQL: "slug"},
	query.Col{Field: "duration", SQL: "duration", Kind: query.Numeric},
	query.Col{Field: "maxGroupSize", SQL: "max_group_size", Kind: query.Numeric},
	query.Col{Field: "difficulty", SQL: "difficulty"},
	query.Col{Field: "ratingsAverage", SQL: "ratings_average", Kind: query.Numeric},
	query.Col{Field: "ratingsQuantity", SQL: "ratings_quantity", Kind: query.Numeric},
	query.Col{Field: "price", SQL: "price", Kind: query.Numeric},
	query.Col{Field: "summary", SQL: "summary"},
	query.Col{Field: "created_at", SQL: "created_at"},
)

const tourSelect = `id, name, slug, duration, max_group_size, difficulty, ratings_average, ratings_quantity, price, price_discount, summary, description, image_cover, images, start_dates, secret, created_at, updated_at`

// TourRepository implements repository.TourRepository using PostgreSQL.
type TourRepository struct {
	db DB
}

// NewTourRepository creates a new PostgreSQL-backed tour repository.
func NewTourRepository(db DB) *TourRepository {
	return &TourRepository{db: db}
}

// Create inserts a new tour into the database.
func (r *TourRepository) Create(ctx context.Context, t *domain.Tour) error {
	imagesJSON, err := json.Marshal(t.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	startDatesJSON, err := json.Marshal(t.StartDates)
	if err != nil {
		return fmt.Errorf("marshal start dates: %w", err)
	}

	query := `
		INSERT INTO tours (id, name, slug, duration, max_group_size, difficulty, ratings_average, ratings_quantity, price, price_discount, summary, description, image_cover, images, start_dates, secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = r.db.Exec(ctx, query,
		t.ID,
		t.Name,
		t.Slug,
		t.Duration,
		t.MaxGroupSize,
		t.Difficulty,
		t.RatingsAverage,
		t.RatingsQuantity,
		t.Price,
		t.PriceDiscount,
		t.Summary,
		t.Description,
		t.ImageCover,
		imagesJSON,
		startDatesJSON,
		t.Secret,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("tour", "name", t.Name)
		}
		return fmt.Errorf("insert tour: %w", err)
	}

	return nil
}

// GetByID retrieves a tour by its ID.
func (r *TourRepository) GetByID(ctx context.Context, id string) (*domain.Tour, error) {
	query := `
		SELECT ` + tourSelect + `
		FROM tours
		WHERE id = $1`

	return r.scanTour(ctx, query, id)
}

// GetBySlug retrieves a tour by its URL slug.
func (r *TourRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	query := `
		SELECT ` + tourSelect + `
		FROM tours
		WHERE slug = $1`

	return r.scanTour(ctx, query, slug)
}

// List returns tours matching the query description with the total count.
func (r *TourRepository) List(ctx context.Context, spec *query.Spec, includeSecret bool) ([]domain.Tour, int, error) {
	where, args, err := spec.Where(TourColumns, 1)
	if err != nil {
		return nil, 0, err
	}
	orderBy, err := spec.OrderBy(TourColumns)
	if err != nil {
		return nil, 0, err
	}

	whereClause := ""
	if !includeSecret {
		whereClause = "WHERE secret = false"
	}
	if where != "" {
		if whereClause == "" {
			whereClause = "WHERE " + where
		} else {
			whereClause += " AND " + where
		}
	}

	q := fmt.Sprintf(`
		SELECT `+tourSelect+`, count(*) OVER() AS total_count
		FROM tours
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		whereClause, orderBy, len(args)+1, len(args)+2)
	args = append(args, spec.Limit, spec.Offset())

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tours: %w", err)
	}
	defer rows.Close()

	var (
		tours []domain.Tour
		total int
	)
	for rows.Next() {
		t, err := scanTourRow(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		tours = append(tours, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tour rows: %w", err)
	}

	if tours == nil {
		tours = []domain.Tour{}
	}

	return tours, total, nil
}

// Update modifies an existing tour in the database.
func (r *TourRepository) Update(ctx context.Context, t *domain.Tour) error {
	imagesJSON, err := json.Marshal(t.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	startDatesJSON, err := json.Marshal(t.StartDates)
	if err != nil {
		return fmt.Errorf("marshal start dates: %w", err)
	}

	t.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tours
		SET name = $1, slug = $2, duration = $3, max_group_size = $4, difficulty = $5,
		    price = $6, price_discount = $7, summary = $8, description = $9,
		    image_cover = $10, images = $11, start_dates = $12, secret = $13, updated_at = $14
		WHERE id = $15`

	ct, err := r.db.Exec(ctx, query,
		t.Name,
		t.Slug,
		t.Duration,
		t.MaxGroupSize,
		t.Difficulty,
		t.Price,
		t.PriceDiscount,
		t.Summary,
		t.Description,
		t.ImageCover,
		imagesJSON,
		startDatesJSON,
		t.Secret,
		t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("tour", "name", t.Name)
		}
		return fmt.Errorf("update tour: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tour", t.ID)
	}

	return nil
}

// Delete removes a tour from the database by its ID. Reviews cascade with it.
func (r *TourRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tours WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tour", id)
	}

	return nil
}

// Stats aggregates rating and price figures per difficulty over non-secret tours.
func (r *TourRepository) Stats(ctx context.Context) ([]domain.TourStats, error) {
	query := `
		SELECT difficulty,
		       count(*) AS num_tours,
		       coalesce(sum(ratings_quantity), 0) AS num_ratings,
		       round(coalesce(avg(ratings_average), 0)::numeric, 2) AS avg_rating,
		       round(coalesce(avg(price), 0)::numeric, 2) AS avg_price,
		       coalesce(min(price), 0) AS min_price,
		       coalesce(max(price), 0) AS max_price
		FROM tours
		WHERE secret = false
		GROUP BY difficulty
		ORDER BY avg_price ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tour stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.TourStats
	for rows.Next() {
		var s domain.TourStats
		if err := rows.Scan(
			&s.Difficulty,
			&s.NumTours,
			&s.NumRatings,
			&s.AvgRating,
			&s.AvgPrice,
			&s.MinPrice,
			&s.MaxPrice,
		); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}

	if stats == nil {
		stats = []domain.TourStats{}
	}

	return stats, nil
}

// MonthlyPlan counts tour starts per month of the given year, busiest month
// first. Each tour contributes one entry per start date it has in the year.
func (r *TourRepository) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	query := `
		SELECT extract(month FROM start)::int AS month,
		       count(*) AS num_starts,
		       array_agg(name ORDER BY name) AS tours
		FROM tours,
		     jsonb_array_elements_text(start_dates) AS d(value),
		     lateral (SELECT d.value::timestamptz AS start) s
		WHERE secret = false
		  AND extract(year FROM start) = $1
		GROUP BY month
		ORDER BY num_starts DESC, month ASC`

	rows, err := r.db.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("monthly plan: %w", err)
	}
	defer rows.Close()

	var plan []domain.MonthlyPlanEntry
	for rows.Next() {
		var e domain.MonthlyPlanEntry
		if err := rows.Scan(&e.Month, &e.NumStarts, &e.Tours); err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		plan = append(plan, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan rows: %w", err)
	}

	if plan == nil {
		plan = []domain.MonthlyPlanEntry{}
	}

	return plan, nil
}

// scanTour is a helper that executes a query expected to return a single tour row.
func (r *TourRepository) scanTour(ctx context.Context, query string, args ...any) (*domain.Tour, error) {
	var (
		t              domain.Tour
		imagesJSON     []byte
		startDatesJSON []byte
	)

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID,
		&t.Name,
		&t.Slug,
		&t.Duration,
		&t.MaxGroupSize,
		&t.Difficulty,
		&t.RatingsAverage,
		&t.RatingsQuantity,
		&t.Price,
		&t.PriceDiscount,
		&t.Summary,
		&t.Description,
		&t.ImageCover,
		&imagesJSON,
		&startDatesJSON,
		&t.Secret,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan tour: %w", err)
	}

	if err := unmarshalTourJSON(&t, imagesJSON, startDatesJSON); err != nil {
		return nil, err
	}

	return &t, nil
}

func scanTourRow(rows pgx.Rows, total *int) (*domain.Tour, error) {
	var (
		t              domain.Tour
		imagesJSON     []byte
		startDatesJSON []byte
	)

	if err := rows.Scan(
		&t.ID,
		&t.Name,
		&t.Slug,
		&t.Duration,
		&t.MaxGroupSize,
		&t.Difficulty,
		&t.RatingsAverage,
		&t.RatingsQuantity,
		&t.Price,
		&t.PriceDiscount,
		&t.Summary,
		&t.Description,
		&t.ImageCover,
		&imagesJSON,
		&startDatesJSON,
		&t.Secret,
		&t.CreatedAt,
		&t.UpdatedAt,
		total,
	); err != nil {
		return nil, fmt.Errorf("scan tour row: %w", err)
	}

	if err := unmarshalTourJSON(&t, imagesJSON, startDatesJSON); err != nil {
		return nil, err
	}

	return &t, nil
}

func unmarshalTourJSON(t *domain.Tour, imagesJSON, startDatesJSON []byte) error {
	if imagesJSON != nil {
		if err := json.Unmarshal(imagesJSON, &t.Images); err != nil {
			return fmt.Errorf("unmarshal images: %w", err)
		}
	}
	if startDatesJSON != nil {
		if err := json.Unmarshal(startDatesJSON, &t.StartDates); err != nil {
			return fmt.Errorf("unmarshal start dates: %w", err)
		}
	}
	return nil
}
