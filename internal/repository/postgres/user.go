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

// UserColumns is the query allow-list for the users collection. Credential
// columns are deliberately absent so they can never be filtered, sorted or
// projected on.
var UserColumns = query.NewColumns("id",
	query.Col{Field: "id", SQL: "id"},
	query.Col{Field: "name", SQL: "name"},
	query.Col{Field: "email", SQL: "email"},
	query.Col{Field: "role", SQL: "role"},
	query.Col{Field: "created_at", SQL: "created_at"},
)

const userSelect = `id, name, email, photo, role, password_hash, password_changed_at, password_reset_token, password_reset_expires, active, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, photo, role, password_hash, password_changed_at, password_reset_token, password_reset_expires, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.Photo,
		u.Role,
		u.PasswordHash,
		u.PasswordChangedAt,
		u.PasswordResetToken,
		u.PasswordResetExpires,
		u.Active,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves an active user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userSelect + `
		FROM users
		WHERE id = $1 AND active = true`

	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves an active user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userSelect + `
		FROM users
		WHERE email = $1 AND active = true`

	return r.scanUser(ctx, query, email)
}

// GetByResetTokenHash retrieves the active user holding an unexpired reset
// token with the given hash. An expired token behaves exactly like an
// unknown one.
func (r *UserRepository) GetByResetTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	query := `
		SELECT ` + userSelect + `
		FROM users
		WHERE password_reset_token = $1 AND password_reset_expires > $2 AND active = true`

	return r.scanUser(ctx, query, hash, time.Now().UTC())
}

// List returns active users matching the query description with the total count.
func (r *UserRepository) List(ctx context.Context, spec *query.Spec) ([]domain.User, int, error) {
	where, args, err := spec.Where(UserColumns, 1)
	if err != nil {
		return nil, 0, err
	}
	orderBy, err := spec.OrderBy(UserColumns)
	if err != nil {
		return nil, 0, err
	}

	whereClause := "WHERE active = true"
	if where != "" {
		whereClause += " AND " + where
	}

	// count(*) OVER() yields rows and total in a single query.
	q := fmt.Sprintf(`
		SELECT `+userSelect+`, count(*) OVER() AS total_count
		FROM users
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		whereClause, orderBy, len(args)+1, len(args)+2)
	args = append(args, spec.Limit, spec.Offset())

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var (
		users []domain.User
		total int
	)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Photo,
			&u.Role,
			&u.PasswordHash,
			&u.PasswordChangedAt,
			&u.PasswordResetToken,
			&u.PasswordResetExpires,
			&u.Active,
			&u.CreatedAt,
			&u.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}

	return users, total, nil
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $1, email = $2, photo = $3, role = $4, password_hash = $5,
		    password_changed_at = $6, password_reset_token = $7, password_reset_expires = $8,
		    active = $9, updated_at = $10
		WHERE id = $11`

	ct, err := r.db.Exec(ctx, query,
		u.Name,
		u.Email,
		u.Photo,
		u.Role,
		u.PasswordHash,
		u.PasswordChangedAt,
		u.PasswordResetToken,
		u.PasswordResetExpires,
		u.Active,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// Deactivate soft-deletes a user by clearing the active flag.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE users SET active = false, updated_at = $1 WHERE id = $2 AND active = true`

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// Delete removes a user row from the database.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Photo,
		&u.Role,
		&u.PasswordHash,
		&u.PasswordChangedAt,
		&u.PasswordResetToken,
		&u.PasswordResetExpires,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}
