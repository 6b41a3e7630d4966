// Package app wires the application's dependency graph and owns its
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/zarick1/natours/internal/auth"
	"github.com/zarick1/natours/internal/cache"
	"github.com/zarick1/natours/internal/config"
	"github.com/zarick1/natours/internal/database"
	"github.com/zarick1/natours/internal/event"
	handler "github.com/zarick1/natours/internal/handler/http"
	"github.com/zarick1/natours/internal/health"
	"github.com/zarick1/natours/internal/kafka"
	"github.com/zarick1/natours/internal/mail"
	"github.com/zarick1/natours/internal/middleware"
	"github.com/zarick1/natours/internal/repository/postgres"
	"github.com/zarick1/natours/internal/service"
	"github.com/zarick1/natours/internal/tracing"
	"github.com/zarick1/natours/migrations"
)

// App holds every component with a lifecycle.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *kafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// New builds the application: connections, migrations, repositories,
// services, and the HTTP server, in that order.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    "natours-api",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to postgres",
		slog.String("host", cfg.PostgresHost),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.Files, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to redis", slog.String("addr", fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)))

	producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiryDuration(), cfg.JWTIssuer)

	userRepo := postgres.NewUserRepository(pool)
	tourRepo := postgres.NewTourRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)

	statsCache := cache.NewStatsCache(redisClient, time.Duration(cfg.StatsCacheTTLMin)*time.Minute, logger)
	eventProducer := event.NewProducer(producer)
	mailer := mail.NewLogSender(logger)

	userService := service.NewUserService(userRepo, jwtManager, mailer, eventProducer, logger,
		cfg.PublicBaseURL)
	tourService := service.NewTourService(tourRepo, statsCache, eventProducer, logger)
	reviewService := service.NewReviewService(reviewRepo, tourRepo, statsCache, eventProducer, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(userService, tourService, reviewService, jwtManager, userRepo,
		healthHandler, logger, handler.RouterConfig{
			CORS:          middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
			AuthRateRPS:   cfg.AuthRateRPS,
			AuthRateBurst: cfg.AuthRateBurst,
		})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown stops components in dependency order: drain HTTP first so
// in-flight requests finish against live connections, flush spans, then
// close the producer and the stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
