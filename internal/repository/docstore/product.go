package docstore

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/repository"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

// ProductRepository implements repository.ProductRepository on the document store.
type ProductRepository struct {
	client *Client
}

// NewProductRepository creates a document-store product repository.
func NewProductRepository(client *Client) *ProductRepository {
	return &ProductRepository{client: client}
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDoc
	if err := r.client.get(ctx, "get product", "/products/"+url.PathEscape(id), nil, &doc); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, err
	}
	p := doc.toDomain()
	return &p, nil
}

// List pushes equality, range and limit filters down to the store. The text
// query is applied here, matching name and description case-insensitively,
// because the store's full-text search also matches unrelated fields.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Color != "" {
		query.Set("color", filter.Color)
	}
	if filter.MinPrice != nil {
		query.Set("price_gte", strconv.FormatInt(*filter.MinPrice, 10))
	}
	if filter.MaxPrice != nil {
		query.Set("price_lte", strconv.FormatInt(*filter.MaxPrice, 10))
	}
	if filter.Limit > 0 && filter.Query == "" {
		query.Set("_limit", strconv.Itoa(filter.Limit))
	}

	var docs []productDoc
	if err := r.client.get(ctx, "list products", "/products", query, &docs); err != nil {
		return nil, err
	}

	needle := strings.ToLower(filter.Query)
	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		if needle != "" &&
			!strings.Contains(strings.ToLower(d.Name), needle) &&
			!strings.Contains(strings.ToLower(d.Description), needle) {
			continue
		}
		products = append(products, d.toDomain())
		if filter.Limit > 0 && len(products) == filter.Limit {
			break
		}
	}
	return products, nil
}
