package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zarick1/natours/internal/auth"
	"github.com/zarick1/natours/internal/domain"
	"github.com/zarick1/natours/internal/health"
	"github.com/zarick1/natours/internal/httputil"
	"github.com/zarick1/natours/internal/mail"
	"github.com/zarick1/natours/internal/middleware"
	"github.com/zarick1/natours/internal/query"
	"github.com/zarick1/natours/internal/service"
)

const testJWTSecret = "test-secret-key-of-sufficient-length!"

// =============================================================================
// Mock repositories
// =============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByResetTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, spec *query.Spec) ([]domain.User, int, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockTourRepo struct {
	mock.Mock
}

func (m *mockTourRepo) Create(ctx context.Context, tour *domain.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}

func (m *mockTourRepo) GetByID(ctx context.Context, id string) (*domain.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

func (m *mockTourRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

func (m *mockTourRepo) List(ctx context.Context, spec *query.Spec, includeSecret bool) ([]domain.Tour, int, error) {
	args := m.Called(ctx, spec, includeSecret)
	return args.Get(0).([]domain.Tour), args.Int(1), args.Error(2)
}

func (m *mockTourRepo) Update(ctx context.Context, tour *domain.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}

func (m *mockTourRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockTourRepo) Stats(ctx context.Context) ([]domain.TourStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TourStats), args.Error(1)
}

func (m *mockTourRepo) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	args := m.Called(ctx, year)
	return args.Get(0).([]domain.MonthlyPlanEntry), args.Error(1)
}

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByTour(ctx context.Context, tourID string, spec *query.Spec) ([]domain.Review, int, error) {
	args := m.Called(ctx, tourID, spec)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepo) RecomputeTourRatings(ctx context.Context, tourID string) error {
	args := m.Called(ctx, tourID)
	return args.Error(0)
}

// =============================================================================
// Stub collaborators
// =============================================================================

// stubPublisher satisfies every service event-publisher interface.
type stubPublisher struct{}

func (stubPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error { return nil }
func (stubPublisher) PublishTourCreated(ctx context.Context, tour *domain.Tour) error    { return nil }
func (stubPublisher) PublishReviewWritten(ctx context.Context, review *domain.Review) error {
	return nil
}

// stubStatsCache always misses and swallows writes.
type stubStatsCache struct{}

func (stubStatsCache) GetTourStats(ctx context.Context) ([]domain.TourStats, bool) {
	return nil, false
}
func (stubStatsCache) SetTourStats(ctx context.Context, stats []domain.TourStats) {}
func (stubStatsCache) InvalidateTourStats(ctx context.Context)                    {}

// =============================================================================
// Fixture
// =============================================================================

type fixture struct {
	users   *mockUserRepo
	tours   *mockTourRepo
	reviews *mockReviewRepo
	tokens  *auth.JWTManager
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := new(mockUserRepo)
	tours := new(mockTourRepo)
	reviews := new(mockReviewRepo)
	tokens := auth.NewJWTManager(testJWTSecret, time.Hour, "natours")

	userSvc := service.NewUserService(users, tokens, mail.NewLogSender(logger), stubPublisher{}, logger, "http://localhost:8080")
	tourSvc := service.NewTourService(tours, stubStatsCache{}, stubPublisher{}, logger)
	reviewSvc := service.NewReviewService(reviews, tours, stubStatsCache{}, stubPublisher{}, logger)

	router := NewRouter(userSvc, tourSvc, reviewSvc, tokens, users, health.NewHandler(), logger, RouterConfig{
		CORS:          middleware.CORSConfig{AllowedOrigins: []string{"*"}},
		AuthRateRPS:   100,
		AuthRateBurst: 100,
	})

	return &fixture{users: users, tours: tours, reviews: reviews, tokens: tokens, router: router}
}

// loginAs issues a real token for the user and primes the account lookup the
// auth middleware performs on every request.
func (f *fixture) loginAs(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := f.tokens.Issue(user.ID)
	require.NoError(t, err)
	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	return "Bearer " + token
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var env httputil.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

// dataMap re-decodes the envelope data as a JSON object.
func dataMap(t *testing.T, env httputil.Envelope) map[string]any {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func sampleAccount(role string) *domain.User {
	now := time.Now().UTC().Add(-time.Hour)
	return &domain.User{
		ID:        "a81bc81b-dead-4e5d-abff-90865d1e13b1",
		Name:      "Ada Test",
		Email:     "ada@example.com",
		Role:      role,
		Photo:     "default.jpg",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sampleTourRow() *domain.Tour {
	now := time.Now().UTC()
	return &domain.Tour{
		ID:              "550e8400-e29b-41d4-a716-446655440001",
		Name:            "The Forest Hiker",
		Slug:            "the-forest-hiker",
		Duration:        5,
		MaxGroupSize:    25,
		Difficulty:      domain.DifficultyEasy,
		RatingsAverage:  4.7,
		RatingsQuantity: 37,
		Price:           397,
		Summary:         "Breathtaking hike through the Canadian Banff National Park",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
