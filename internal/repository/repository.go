package repository

import (
	"context"

	"github.com/utafrali/plantstore/internal/domain"
)

// Errors returned by implementations:
//   - lookups of a missing record return an error matching apperrors.ErrNotFound
//   - a second review by the same user for the same product, or a second user
//     with the same email, returns an error matching apperrors.ErrAlreadyExists
//   - transport or server failures on reads match apperrors.ErrQuery
//   - rejected or failed writes match apperrors.ErrWrite

// ProductFilter defines filter criteria for listing products. Zero values
// disable a criterion.
type ProductFilter struct {
	// Query matches name or description, case-insensitively.
	Query    string
	Category string
	Color    string
	MinPrice *int64
	MaxPrice *int64
	// Limit caps the number of products returned; 0 means no cap.
	Limit int
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error
}

// ProductRepository defines the interface for catalog reads.
type ProductRepository interface {
	// GetByID retrieves a product by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching filter in catalog order.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	OrderQuery

	// Create inserts a new order and its items into the store.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByUserID returns the user's orders, newest first. A non-empty status
	// restricts the result to that status.
	ListByUserID(ctx context.Context, userID, status string) ([]domain.Order, error)

	// UpdateStatus changes the status of an order. Moving to completed also
	// records the completion time.
	UpdateStatus(ctx context.Context, id, status string) error
}

// OrderQuery answers whether a user has bought a product.
type OrderQuery interface {
	// HasCompletedPurchase reports whether userID has a completed order that
	// contains productID.
	HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create stores a review. An empty ID or zero CreatedAt is filled in by the
	// store, and Date is derived from CreatedAt when empty.
	Create(ctx context.Context, review *domain.Review) error

	// GetByUserAndProduct returns the user's review of the product, or nil
	// and no error when there is none.
	GetByUserAndProduct(ctx context.Context, userID, productID string) (*domain.Review, error)

	// ListByProductID returns every review of the product. The order is
	// unspecified.
	ListByProductID(ctx context.Context, productID string) ([]domain.Review, error)
}
