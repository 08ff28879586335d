package domain

import (
	"slices"
	"time"
)

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order represents a customer order.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount int64       `json:"total_amount"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// LineTotal returns the total price for this line item.
func (i *OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	return slices.Contains(ValidStatuses(), status)
}

// AllowedTransitions defines which status transitions are valid. Completed and
// cancelled orders are final.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusCompleted, OrderStatusCancelled},
		OrderStatusCompleted: {},
		OrderStatusCancelled: {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	return slices.Contains(AllowedTransitions()[o.Status], target)
}

// CalculateTotal sums the line totals of the order's items.
func (o *Order) CalculateTotal() int64 {
	var total int64
	for i := range o.Items {
		total += o.Items[i].LineTotal()
	}
	return total
}

// ContainsProduct reports whether any item of the order is for productID.
func (o *Order) ContainsProduct(productID string) bool {
	return slices.ContainsFunc(o.Items, func(item OrderItem) bool {
		return item.ProductID == productID
	})
}

// IsPurchaseOf reports whether the order proves that userID bought productID:
// it belongs to the user, is completed and contains the product.
func (o *Order) IsPurchaseOf(userID, productID string) bool {
	return o.UserID == userID && o.Status == OrderStatusCompleted && o.ContainsProduct(productID)
}
