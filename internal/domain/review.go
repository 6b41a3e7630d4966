package domain

import (
	"time"
)

// Review represents a user's rating of a tour. A user can review a given
// tour at most once; the database enforces the pair's uniqueness.
type Review struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tour_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
