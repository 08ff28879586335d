package docstore

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/utafrali/plantstore/internal/domain"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

// OrderRepository implements repository.OrderRepository on the document store.
type OrderRepository struct {
	client *Client
}

// NewOrderRepository creates a document-store order repository.
func NewOrderRepository(client *Client) *OrderRepository {
	return &OrderRepository{client: client}
}

// Create stores a new order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return r.client.send(ctx, "create order", http.MethodPost, "/orders", newOrderDoc(o), nil)
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDoc
	if err := r.client.get(ctx, "get order", "/orders/"+url.PathEscape(id), nil, &doc); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, err
	}
	o := doc.toDomain()
	return &o, nil
}

// ListByUserID returns the user's orders newest first, optionally restricted
// to one status.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID, status string) ([]domain.Order, error) {
	query := url.Values{"userId": {userID}, "_sort": {"createdAt"}, "_order": {"desc"}}
	if status != "" {
		query.Set("status", status)
	}

	var docs []orderDoc
	if err := r.client.get(ctx, "list orders", "/orders", query, &docs); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.toDomain())
	}
	return orders, nil
}

// HasCompletedPurchase fetches the user's completed orders and looks for the
// product among their items.
func (r *OrderRepository) HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	orders, err := r.ListByUserID(ctx, userID, domain.OrderStatusCompleted)
	if err != nil {
		return false, err
	}
	for i := range orders {
		if orders[i].IsPurchaseOf(userID, productID) {
			return true, nil
		}
	}
	return false, nil
}

// UpdateStatus patches the order's status. Completing an order stamps
// completedAt.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	patch := map[string]any{"status": status}
	if status == domain.OrderStatusCompleted {
		patch["completedAt"] = time.Now().UTC()
	}

	err := r.client.send(ctx, "update order status", http.MethodPatch, "/orders/"+url.PathEscape(id), patch, nil)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("order", id)
	}
	return err
}
