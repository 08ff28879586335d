// Package event publishes storefront domain events to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/plantstore/internal/domain"
	pkgkafka "github.com/utafrali/plantstore/pkg/kafka"
	"github.com/utafrali/plantstore/pkg/logger"
)

// Kafka topics for storefront domain events.
var (
	TopicReviewCreated  = pkgkafka.Topic("review", "created")
	TopicUserRegistered = pkgkafka.Topic("user", "registered")
	TopicUserActivated  = pkgkafka.Topic("user", "activated")
	TopicOrderCreated   = pkgkafka.Topic("order", "created")
)

// Aggregate types.
const (
	AggregateTypeReview = "review"
	AggregateTypeUser   = "user"
	AggregateTypeOrder  = "order"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	SubscribeEmail bool   `json:"subscribe_email"`
}

// UserActivatedData is the payload for a user.activated event.
type UserActivatedData struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	ActivatedAt time.Time `json:"activated_at"`
}

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Items       []domain.OrderItem `json:"items"`
	TotalAmount int64              `json:"total_amount"`
	Status      string             `json:"status"`
}

// Producer publishes storefront domain events. A nil Producer, or one
// without a Kafka producer, drops every event; the storefront runs that way
// with Kafka disabled.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer. kafka may be nil.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:        review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		CreatedAt: review.CreatedAt,
	}
	return p.publish(ctx, TopicReviewCreated, review.ID, AggregateTypeReview, data,
		map[string]string{"product_id": review.ProductID})
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:             user.ID,
		Email:          user.Email,
		FullName:       user.FullName,
		SubscribeEmail: user.SubscribeEmail,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data, nil)
}

// PublishUserActivated publishes a user.activated event.
func (p *Producer) PublishUserActivated(ctx context.Context, user *domain.User) error {
	data := UserActivatedData{
		ID:    user.ID,
		Email: user.Email,
	}
	if user.ActivatedAt != nil {
		data.ActivatedAt = *user.ActivatedAt
	}
	return p.publish(ctx, TopicUserActivated, user.ID, AggregateTypeUser, data, nil)
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		ID:          order.ID,
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	}
	return p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, data,
		map[string]string{"user_id": order.UserID, "status": order.Status})
}

// publish wraps data in an event envelope. metadata entries become envelope
// metadata so consumers can route without decoding the payload.
func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any, metadata map[string]string) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	for k, v := range metadata {
		event.WithMetadata(k, v)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
