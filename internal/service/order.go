package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/event"
	"github.com/utafrali/plantstore/internal/repository"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
	"github.com/utafrali/plantstore/pkg/validator"
)

// CreateOrderInput holds the parameters for placing an order.
type CreateOrderInput struct {
	Items []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// OrderItemInput is one line of a new order.
type OrderItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
	Price     int64  `json:"price" validate:"gte=0"`
}

// UpdateStatusInput holds the target status of an order.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

// OrderService implements order placement and status changes.
type OrderService struct {
	orders   repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// Create places a pending order for userID.
func (s *OrderService) Create(ctx context.Context, userID string, input CreateOrderInput) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("log in to place an order")
	}
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     make([]domain.OrderItem, 0, len(input.Items)),
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	order.TotalAmount = order.CalculateTotal()

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// ListMine returns the orders of userID, optionally restricted to status.
func (s *OrderService) ListMine(ctx context.Context, userID, status string) ([]domain.Order, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("log in to see your orders")
	}
	if status != "" && !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", status))
	}

	orders, err := s.orders.ListByUserID(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// UpdateStatus moves an order to a new status. Only pending orders change:
// to completed, which makes the buyer eligible to review its products, or to
// cancelled.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, input UpdateStatusInput) (*domain.Order, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.CanTransitionTo(input.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot change order status from %s to %s", order.Status, input.Status))
	}

	if err := s.orders.UpdateStatus(ctx, id, input.Status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("from", order.Status),
		slog.String("to", input.Status),
	)

	return s.orders.GetByID(ctx, id)
}
