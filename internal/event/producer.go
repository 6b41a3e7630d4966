package event

import (
	"context"
	"fmt"

	"github.com/zarick1/natours/internal/domain"
	"github.com/zarick1/natours/internal/kafka"
)

// Kafka topic constants for domain events.
const (
	TopicUserRegistered = "natours.user.registered"
	TopicTourCreated    = "natours.tour.created"
	TopicReviewWritten  = "natours.review.written"
)

// Aggregate type constants.
const (
	AggregateTypeUser   = "user"
	AggregateTypeTour   = "tour"
	AggregateTypeReview = "review"
)

// Source identifier for events originating from this API.
const SourceAPI = "natours-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TourCreatedData is the payload for a tour.created event.
type TourCreatedData struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	Difficulty string  `json:"difficulty"`
	Price      float64 `json:"price"`
}

// ReviewWrittenData is the payload for a review.written event.
type ReviewWrittenData struct {
	ID     string `json:"id"`
	TourID string `json:"tour_id"`
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
}

// publisher is the slice of the Kafka producer the event layer needs.
type publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka publisher
}

// NewProducer creates a new domain event producer.
func NewProducer(kafka publisher) *Producer {
	return &Producer{kafka: kafka}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

// PublishTourCreated publishes a tour.created event.
func (p *Producer) PublishTourCreated(ctx context.Context, tour *domain.Tour) error {
	data := TourCreatedData{
		ID:         tour.ID,
		Name:       tour.Name,
		Slug:       tour.Slug,
		Difficulty: tour.Difficulty,
		Price:      tour.Price,
	}
	return p.publish(ctx, TopicTourCreated, tour.ID, AggregateTypeTour, data)
}

// PublishReviewWritten publishes a review.written event.
func (p *Producer) PublishReviewWritten(ctx context.Context, review *domain.Review) error {
	data := ReviewWrittenData{
		ID:     review.ID,
		TourID: review.TourID,
		UserID: review.UserID,
		Rating: review.Rating,
	}
	return p.publish(ctx, TopicReviewWritten, review.ID, AggregateTypeReview, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := kafka.NewEvent(topic, aggregateID, aggregateType, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
