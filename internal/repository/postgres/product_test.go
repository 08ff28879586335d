package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/plantstore/internal/repository"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

var productCols = []string{
	"id", "name", "price", "old_price", "image", "images", "is_new", "discount_percent", "rating",
	"description", "short_description", "full_description", "category", "stock", "color", "tags",
}

func monsteraRow(rows *pgxmock.Rows) *pgxmock.Rows {
	return rows.AddRow(
		"1", "Cây Monstera", int64(350000), int64(420000), "/images/monstera.jpg", []string{}, true, 17, 4.8,
		"Cây lá xẻ dễ chăm", "", "", "Cây nội thất", 24, "green", []string{},
	)
}

func TestProductRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
		WithArgs("1").
		WillReturnRows(monsteraRow(pgxmock.NewRows(productCols)))

	p, err := repo.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Cây Monstera", p.Name)
	assert.Equal(t, int64(350000), p.Price)
	assert.Equal(t, 17, p.DiscountPercent)
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
		WithArgs("404").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductRepository_List_NoFilter(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery(`SELECT (.+) FROM products ORDER BY sort_order$`).
		WithArgs().
		WillReturnRows(monsteraRow(pgxmock.NewRows(productCols)))

	products, err := repo.List(context.Background(), repository.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestProductRepository_List_AllFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery(`WHERE \(name ILIKE \$1 OR description ILIKE \$1\) AND category = \$2 AND color = \$3 AND price >= \$4 AND price <= \$5 ORDER BY sort_order LIMIT \$6`).
		WithArgs("%monstera%", "Cây nội thất", "green", int64(100000), int64(500000), 6).
		WillReturnRows(monsteraRow(pgxmock.NewRows(productCols)))

	products, err := repo.List(context.Background(), repository.ProductFilter{
		Query:    "monstera",
		Category: "Cây nội thất",
		Color:    "green",
		MinPrice: int64Ptr(100000),
		MaxPrice: int64Ptr(500000),
		Limit:    6,
	})
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_QueryError(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM products").WillReturnError(errors.New("connection refused"))

	_, err := repo.List(context.Background(), repository.ProductFilter{})
	assert.ErrorIs(t, err, apperrors.ErrQuery)
}
