package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/repository"
	"github.com/utafrali/plantstore/pkg/database"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, price, old_price, image, images, is_new, discount_percent, rating,
		description, short_description, full_description, category, stock, color, tags`

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "products.GetByID", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, apperrors.Query("get product", err)
	}

	return p, nil
}

// List returns products matching the filter in catalog order.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Query+"%")
		argIndex++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.Color != "" {
		conditions = append(conditions, fmt.Sprintf("color = $%d", argIndex))
		args = append(args, filter.Color)
		argIndex++
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY sort_order"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	ctx, end := database.TraceQuery(ctx, "products.List", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Query("list products", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperrors.Query("scan product row", err)
		}
		products = append(products, *p)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.Query("iterate product rows", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.OldPrice,
		&p.Image,
		&p.Images,
		&p.IsNew,
		&p.DiscountPercent,
		&p.Rating,
		&p.Description,
		&p.ShortDescription,
		&p.FullDescription,
		&p.Category,
		&p.Stock,
		&p.Color,
		&p.Tags,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
