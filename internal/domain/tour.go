package domain

import (
	"time"
)

// Tour difficulty levels.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Tour represents a guided tour offering. Secret tours are hidden from
// public listings and aggregates.
type Tour struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      string      `json:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"priceDiscount,omitempty"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"imageCover"`
	Images          []string    `json:"images,omitempty"`
	StartDates      []time.Time `json:"startDates,omitempty"`
	Secret          bool        `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TourStats is one row of the per-difficulty aggregate.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlanEntry counts the tours starting in one month of a year.
type MonthlyPlanEntry struct {
	Month     int      `json:"month"`
	NumStarts int      `json:"numTourStarts"`
	Tours     []string `json:"tours"`
}

// ValidDifficulties returns the set of valid tour difficulties.
func ValidDifficulties() []string {
	return []string{DifficultyEasy, DifficultyMedium, DifficultyDifficult}
}

// IsValidDifficulty checks whether the given string is a valid difficulty.
func IsValidDifficulty(difficulty string) bool {
	for _, d := range ValidDifficulties() {
		if d == difficulty {
			return true
		}
	}
	return false
}
