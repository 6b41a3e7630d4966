package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarick1/natours/internal/domain"
	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/query"
)

func newUserTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewUserRepository(mock)
	return repo, mock
}

func sampleUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:           "u-1234",
		Name:         "Leo Gillespie",
		Email:        "leo@example.com",
		Photo:        "default.jpg",
		Role:         domain.RoleUser,
		PasswordHash: "hash-abc",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userTestColumns() []string {
	return []string{
		"id", "name", "email", "photo", "role", "password_hash",
		"password_changed_at", "password_reset_token", "password_reset_expires",
		"active", "created_at", "updated_at",
	}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userTestColumns()).AddRow(
		u.ID, u.Name, u.Email, u.Photo, u.Role, u.PasswordHash,
		u.PasswordChangedAt, u.PasswordResetToken, u.PasswordResetExpires,
		u.Active, u.CreatedAt, u.UpdatedAt,
	)
}

func TestUserRepository_Create_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, u.Name, u.Email, u.Photo, u.Role, u.PasswordHash,
			u.PasswordChangedAt, u.PasswordResetToken, u.PasswordResetExpires,
			u.Active, u.CreatedAt, u.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, u.Name, u.Email, u.Photo, u.Role, u.PasswordHash,
			u.PasswordChangedAt, u.PasswordResetToken, u.PasswordResetExpires,
			u.Active, u.CreatedAt, u.UpdatedAt,
		).
		WillReturnError(fmt.Errorf("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists), "expected ErrAlreadyExists, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectQuery("SELECT .+ FROM users.+WHERE id = .+ AND active = true").
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Role, got.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM users").
		WithArgs("missing").
		WillReturnError(errNoRowsForTest())

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectQuery("SELECT .+ FROM users.+WHERE email = .+ AND active = true").
		WithArgs(u.Email).
		WillReturnRows(userRow(u))

	got, err := repo.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByResetTokenHash(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	hash := "sha256-hex-of-token"
	expires := time.Now().UTC().Add(5 * time.Minute)
	u.PasswordResetToken = &hash
	u.PasswordResetExpires = &expires

	mock.ExpectQuery("SELECT .+ FROM users.+WHERE password_reset_token = .+ AND password_reset_expires >").
		WithArgs(hash, pgxmock.AnyArg()).
		WillReturnRows(userRow(u))

	got, err := repo.GetByResetTokenHash(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByResetTokenHash_ExpiredLooksUnknown(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM users.+WHERE password_reset_token =").
		WithArgs("stale-hash", pgxmock.AnyArg()).
		WillReturnError(errNoRowsForTest())

	_, err := repo.GetByResetTokenHash(context.Background(), "stale-hash")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List_WithSpec(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	spec := &query.Spec{
		Filters: []query.Filter{{Field: "role", Op: query.OpEq, Value: domain.RoleGuide}},
		Page:    2,
		Limit:   10,
	}

	rows := pgxmock.NewRows(append(userTestColumns(), "total_count")).AddRow(
		u.ID, u.Name, u.Email, u.Photo, u.Role, u.PasswordHash,
		u.PasswordChangedAt, u.PasswordResetToken, u.PasswordResetExpires,
		u.Active, u.CreatedAt, u.UpdatedAt, 25,
	)

	mock.ExpectQuery("SELECT .+ count\\(\\*\\) OVER\\(\\) AS total_count.+FROM users.+WHERE active = true AND role =").
		WithArgs(domain.RoleGuide, 10, 10).
		WillReturnRows(rows)

	users, total, err := repo.List(context.Background(), spec)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 25, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List_UnknownFilterField(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	spec := &query.Spec{
		Filters: []query.Filter{{Field: "password_hash", Op: query.OpEq, Value: "x"}},
		Page:    1,
		Limit:   100,
	}

	_, _, err := repo.List(context.Background(), spec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("UPDATE users").
		WithArgs(
			u.Name, u.Email, u.Photo, u.Role, u.PasswordHash,
			u.PasswordChangedAt, u.PasswordResetToken, u.PasswordResetExpires,
			u.Active, pgxmock.AnyArg(), u.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Deactivate(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE users SET active = false").
		WithArgs(pgxmock.AnyArg(), "u-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Deactivate(context.Background(), "u-1234"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM users").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
