// Command seed populates a development database with a handful of tours,
// accounts, and reviews so the API has something to serve.
//
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/zarick1/natours/internal/auth"
	"github.com/zarick1/natours/internal/config"
	"github.com/zarick1/natours/internal/database"
	"github.com/zarick1/natours/internal/domain"
	"github.com/zarick1/natours/internal/logger"
	"github.com/zarick1/natours/internal/repository/postgres"
	"github.com/zarick1/natours/internal/slug"
	"github.com/zarick1/natours/migrations"
)

const seedPassword = "pass1234"

type tourDef struct {
	name       string
	duration   int
	groupSize  int
	difficulty string
	price      float64
	summary    string
}

var tours = []tourDef{
	{"The Forest Hiker", 5, 25, domain.DifficultyEasy, 397,
		"Breathtaking hike through the Canadian Banff National Park"},
	{"The Sea Explorer", 7, 15, domain.DifficultyMedium, 497,
		"Exploring the jaw-dropping US east coast by foot and by boat"},
	{"The Snow Adventurer", 4, 10, domain.DifficultyDifficult, 997,
		"Exciting adventure in the snow with snowboarding and skiing"},
	{"The City Wanderer", 9, 20, domain.DifficultyEasy, 1197,
		"Living the life of Wanderlust in the US' most beautiful cities"},
	{"The Park Camper", 10, 15, domain.DifficultyMedium, 1497,
		"Breathing in Nature in America's most spectacular National Parks"},
	{"The Sports Lover", 14, 8, domain.DifficultyDifficult, 2997,
		"Surfing, skating, parajumping, rock climbing and more, all in one tour"},
}

type accountDef struct {
	name  string
	email string
	role  string
}

var accounts = []accountDef{
	{"Admin", "admin@natours.io", domain.RoleAdmin},
	{"Leyla Guide", "leyla@natours.io", domain.RoleLeadGuide},
	{"Miyagi Guide", "miyagi@natours.io", domain.RoleGuide},
	{"Ayla Traveler", "ayla@example.com", domain.RoleUser},
	{"Jonas Traveler", "jonas@example.com", domain.RoleUser},
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("natours-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		MaxConns: 5,
		MinConns: 1,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.Files, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	userRepo := postgres.NewUserRepository(pool)
	tourRepo := postgres.NewTourRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	now := time.Now().UTC()
	userIDs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		user := &domain.User{
			ID:           uuid.New().String(),
			Name:         a.name,
			Email:        a.email,
			Photo:        "default.jpg",
			Role:         a.role,
			PasswordHash: hash,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Warn("skipping user", slog.String("email", a.email), slog.String("error", err.Error()))
			continue
		}
		if a.role == domain.RoleUser {
			userIDs = append(userIDs, user.ID)
		}
	}

	tourIDs := make([]string, 0, len(tours))
	for i, t := range tours {
		tour := &domain.Tour{
			ID:             uuid.New().String(),
			Name:           t.name,
			Slug:           slug.Generate(t.name),
			Duration:       t.duration,
			MaxGroupSize:   t.groupSize,
			Difficulty:     t.difficulty,
			RatingsAverage: 4.5,
			Price:          t.price,
			Summary:        t.summary,
			StartDates: []time.Time{
				now.AddDate(0, 1+i, 0),
				now.AddDate(0, 4+i, 0),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tourRepo.Create(ctx, tour); err != nil {
			log.Warn("skipping tour", slog.String("name", t.name), slog.String("error", err.Error()))
			continue
		}
		tourIDs = append(tourIDs, tour.ID)
	}

	reviews := 0
	for i, tourID := range tourIDs {
		for j, userID := range userIDs {
			review := &domain.Review{
				ID:        uuid.New().String(),
				TourID:    tourID,
				UserID:    userID,
				Rating:    3 + (i+j)%3,
				Comment:   "Seeded review, great trip overall",
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := reviewRepo.Create(ctx, review); err != nil {
				log.Warn("skipping review", slog.String("tour_id", tourID), slog.String("error", err.Error()))
				continue
			}
			reviews++
		}
		if err := reviewRepo.RecomputeTourRatings(ctx, tourID); err != nil {
			log.Warn("recompute ratings", slog.String("tour_id", tourID), slog.String("error", err.Error()))
		}
	}

	log.Info("seed complete",
		slog.Int("users", len(accounts)),
		slog.Int("tours", len(tourIDs)),
		slog.Int("reviews", reviews),
	)
	return nil
}
