package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/pkg/database"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// orderSelect loads orders with their items aggregated into one JSONB column.
const orderSelect = `
		SELECT
			o.id, o.user_id, o.status, o.total_amount, o.created_at, o.completed_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'product_id', oi.product_id,
						'quantity', oi.quantity,
						'price', oi.price
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id`

const orderGroupBy = `
		GROUP BY o.id, o.user_id, o.status, o.total_amount, o.created_at, o.completed_at`

// Create inserts a new order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	orderQuery := `
		INSERT INTO orders (id, user_id, status, total_amount, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "orders.Create", orderQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.Write("begin order transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.UserID,
		o.Status,
		o.TotalAmount,
		o.CreatedAt,
		o.CompletedAt,
	); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("user", o.UserID)
		}
		return apperrors.Write("insert order", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)`

	for _, item := range o.Items {
		if _, err = tx.Exec(ctx, itemQuery, o.ID, item.ProductID, item.Quantity, item.Price); err != nil {
			return apperrors.Write("insert order item", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return apperrors.Write("commit order transaction", err)
	}

	return nil
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	query := orderSelect + `
		WHERE o.id = $1` + orderGroupBy

	ctx, end := database.TraceQuery(ctx, "orders.GetByID", query)
	defer func() { end(err) }()

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, apperrors.Query("get order", err)
	}

	return o, nil
}

// ListByUserID returns the user's orders newest first, optionally restricted
// to one status.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID, status string) (_ []domain.Order, err error) {
	args := []any{userID}
	where := `
		WHERE o.user_id = $1`
	if status != "" {
		where += ` AND o.status = $2`
		args = append(args, status)
	}
	query := orderSelect + where + orderGroupBy + `
		ORDER BY o.created_at DESC`

	ctx, end := database.TraceQuery(ctx, "orders.ListByUserID", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Query("list orders", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperrors.Query("scan order row", err)
		}
		orders = append(orders, *o)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.Query("iterate order rows", err)
	}

	return orders, nil
}

// HasCompletedPurchase reports whether the user has a completed order that
// contains the product.
func (r *OrderRepository) HasCompletedPurchase(ctx context.Context, userID, productID string) (_ bool, err error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND o.status = 'completed' AND oi.product_id = $2
		)`

	ctx, end := database.TraceQuery(ctx, "orders.HasCompletedPurchase", query)
	defer func() { end(err) }()

	var purchased bool
	if err = r.pool.QueryRow(ctx, query, userID, productID).Scan(&purchased); err != nil {
		return false, apperrors.Query("check completed purchase", err)
	}

	return purchased, nil
}

// UpdateStatus changes the status of an order. Completing an order stamps
// completed_at.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) (err error) {
	query := `
		UPDATE orders
		SET status = $1, completed_at = COALESCE($2, completed_at)
		WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "orders.UpdateStatus", query)
	defer func() { end(err) }()

	var completedAt *time.Time
	if status == domain.OrderStatusCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}

	ct, err := r.pool.Exec(ctx, query, status, completedAt, id)
	if err != nil {
		return apperrors.Write("update order status", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
	)

	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.TotalAmount,
		&o.CreatedAt,
		&o.CompletedAt,
		&itemsJSON,
	); err != nil {
		return nil, err
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}

	return &o, nil
}
