package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/zarick1/natours/internal/domain"
	"github.com/zarick1/natours/internal/mail"
	"github.com/zarick1/natours/internal/query"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// hashForTest uses the minimum bcrypt cost; verification does not care.
func hashForTest(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

// --- user repository mock ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByResetTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	args := m.Called(ctx, hash)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, spec *query.Spec) ([]domain.User, int, error) {
	args := m.Called(ctx, spec)
	var users []domain.User
	if u := args.Get(0); u != nil {
		users = u.([]domain.User)
	}
	return users, args.Int(1), args.Error(2)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// --- tour repository mock ---

type mockTourRepo struct {
	mock.Mock
}

func (m *mockTourRepo) Create(ctx context.Context, tour *domain.Tour) error {
	return m.Called(ctx, tour).Error(0)
}

func (m *mockTourRepo) GetByID(ctx context.Context, id string) (*domain.Tour, error) {
	args := m.Called(ctx, id)
	if tr := args.Get(0); tr != nil {
		return tr.(*domain.Tour), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTourRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	args := m.Called(ctx, slug)
	if tr := args.Get(0); tr != nil {
		return tr.(*domain.Tour), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTourRepo) List(ctx context.Context, spec *query.Spec, includeSecret bool) ([]domain.Tour, int, error) {
	args := m.Called(ctx, spec, includeSecret)
	var tours []domain.Tour
	if tr := args.Get(0); tr != nil {
		tours = tr.([]domain.Tour)
	}
	return tours, args.Int(1), args.Error(2)
}

func (m *mockTourRepo) Update(ctx context.Context, tour *domain.Tour) error {
	return m.Called(ctx, tour).Error(0)
}

func (m *mockTourRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTourRepo) Stats(ctx context.Context) ([]domain.TourStats, error) {
	args := m.Called(ctx)
	var stats []domain.TourStats
	if s := args.Get(0); s != nil {
		stats = s.([]domain.TourStats)
	}
	return stats, args.Error(1)
}

func (m *mockTourRepo) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	args := m.Called(ctx, year)
	var plan []domain.MonthlyPlanEntry
	if p := args.Get(0); p != nil {
		plan = p.([]domain.MonthlyPlanEntry)
	}
	return plan, args.Error(1)
}

// --- review repository mock ---

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*domain.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReviewRepo) ListByTour(ctx context.Context, tourID string, spec *query.Spec) ([]domain.Review, int, error) {
	args := m.Called(ctx, tourID, spec)
	var reviews []domain.Review
	if r := args.Get(0); r != nil {
		reviews = r.([]domain.Review)
	}
	return reviews, args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) Update(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockReviewRepo) RecomputeTourRatings(ctx context.Context, tourID string) error {
	return m.Called(ctx, tourID).Error(0)
}

// --- collaborator mocks ---

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockPublisher) PublishTourCreated(ctx context.Context, tour *domain.Tour) error {
	return m.Called(ctx, tour).Error(0)
}

func (m *mockPublisher) PublishReviewWritten(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

type mockStatsCache struct {
	mock.Mock
}

func (m *mockStatsCache) GetTourStats(ctx context.Context) ([]domain.TourStats, bool) {
	args := m.Called(ctx)
	var stats []domain.TourStats
	if s := args.Get(0); s != nil {
		stats = s.([]domain.TourStats)
	}
	return stats, args.Bool(1)
}

func (m *mockStatsCache) SetTourStats(ctx context.Context, stats []domain.TourStats) {
	m.Called(ctx, stats)
}

func (m *mockStatsCache) InvalidateTourStats(ctx context.Context) {
	m.Called(ctx)
}
