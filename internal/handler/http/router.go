package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zarick1/natours/internal/auth"
	"github.com/zarick1/natours/internal/domain"
	"github.com/zarick1/natours/internal/health"
	"github.com/zarick1/natours/internal/middleware"
	"github.com/zarick1/natours/internal/service"
)

// RouterConfig carries the HTTP-surface knobs the route table needs.
type RouterConfig struct {
	CORS          middleware.CORSConfig
	AuthRateRPS   float64
	AuthRateBurst int
}

// NewRouter assembles the full route table with its middleware chain.
func NewRouter(
	users *service.UserService,
	tours *service.TourService,
	reviews *service.ReviewService,
	tokens *auth.JWTManager,
	accounts middleware.UserLoader,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware. Recovery sits outermost so a panic anywhere below
	// still produces a JSON 500.
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	authHandler := NewAuthHandler(users, logger)
	userHandler := NewUserHandler(users, logger)
	tourHandler := NewTourHandler(tours, logger)
	reviewHandler := NewReviewHandler(reviews, logger)

	authenticate := middleware.Authenticate(tokens, accounts)
	maybeAuthenticate := middleware.AuthenticateOptional(tokens, accounts)

	// Auth endpoints. These are the credential-handling routes, so they get
	// the per-IP rate limit.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.AuthRateRPS, cfg.AuthRateBurst, logger))

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Patch("/reset-password/{token}", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Patch("/update-password", authHandler.UpdatePassword)
		})
	})

	// Account endpoints.
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/me", userHandler.GetMe)
		r.Patch("/me", userHandler.UpdateMe)
		r.Delete("/me", userHandler.DeleteMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.Patch("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)
		})
	})

	// Tour endpoints. Reads are public; a valid token still attaches the
	// caller so staff listings can include unpublished tours.
	r.Route("/api/v1/tours", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(maybeAuthenticate)

			r.Get("/", tourHandler.List)
			r.Get("/top-5-cheap", tourHandler.TopCheap)
			r.Get("/stats", tourHandler.Stats)
			r.Get("/{tourID}", tourHandler.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide))
			r.Get("/monthly-plan/{year}", tourHandler.MonthlyPlan)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleLeadGuide))

			r.Post("/", tourHandler.Create)
			r.Patch("/{tourID}", tourHandler.Update)
			r.Delete("/{tourID}", tourHandler.Delete)
		})

		r.Get("/{tourID}/reviews", reviewHandler.ListByTour)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(domain.RoleUser))
			r.Post("/{tourID}/reviews", reviewHandler.Create)
		})
	})

	// Review endpoints addressed by review id. Ownership checks live in the
	// service, which sees the acting user.
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/{id}", reviewHandler.Get)
		r.Patch("/{id}", reviewHandler.Update)
		r.Delete("/{id}", reviewHandler.Delete)
	})

	return r
}
