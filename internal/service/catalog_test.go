package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/repository"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

func catalog() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Trầu bà", Category: "Ráy", Image: "/img/1.jpg"},
		{ID: "2", Name: "Kim tiền", Category: "Ráy"},
		{ID: "3", Name: "Lưỡi hổ", Category: "Măng tây"},
		{ID: "4", Name: "Sen đá", Category: "Thuốc bỏng"},
		{ID: "5", Name: "Monstera", Category: "Ráy"},
		{ID: "6", Name: "Xương rồng", Category: "Xương rồng"},
		{ID: "7", Name: "Lan ý", Category: "Ráy"},
	}
}

func TestCatalog_Featured(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("List", mock.Anything, repository.ProductFilter{Limit: 6}).Return(catalog()[:6], nil)
	svc := NewCatalogService(repo, discardLogger())

	products, err := svc.Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 6)
	repo.AssertExpectations(t)
}

func TestCatalog_ListPassesFilter(t *testing.T) {
	minPrice := int64(100000)
	filter := repository.ProductFilter{Query: "lan", Category: "Ráy", MinPrice: &minPrice}
	repo := new(mockProductRepository)
	repo.On("List", mock.Anything, filter).Return(nil, nil)
	svc := NewCatalogService(repo, discardLogger())

	products, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestCatalog_ListError(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("List", mock.Anything, mock.Anything).Return(nil, apperrors.Query("list products", errStoreDown))
	svc := NewCatalogService(repo, discardLogger())

	_, err := svc.List(context.Background(), repository.ProductFilter{})
	assert.ErrorIs(t, err, apperrors.ErrQuery)
}

func TestCatalog_GetDetailDefaults(t *testing.T) {
	product := &domain.Product{ID: "1", Name: "Trầu bà", Category: "Ráy", Image: "/img/1.jpg", Description: "Dễ chăm sóc"}
	repo := new(mockProductRepository)
	repo.On("GetByID", mock.Anything, "1").Return(product, nil)
	repo.On("List", mock.Anything, repository.ProductFilter{}).Return(catalog(), nil)
	svc := NewCatalogService(repo, discardLogger())

	detail, err := svc.GetDetail(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"/img/1.jpg", "/img/1.jpg", "/img/1.jpg", "/img/1.jpg", "/img/1.jpg"}, detail.Images)
	assert.Equal(t, "Dễ chăm sóc", detail.ShortDescription)
	assert.Contains(t, detail.FullDescription, "<p><strong>Tên phổ thông:</strong> Trầu bà</p>")
	assert.Contains(t, detail.FullDescription, "<p><strong>Họ thực vật:</strong> Ráy</p>")
	assert.Contains(t, detail.FullDescription, "0,8-1,2m")
	assert.Contains(t, detail.FullDescription, "<p>Dễ chăm sóc</p>")
	assert.Equal(t, []string{"Cây cảnh", "Trang trí", "Ráy"}, detail.Tags)
}

func TestCatalog_GetDetailDefaultsWithoutCategory(t *testing.T) {
	product := &domain.Product{ID: "9", Name: "Cây lạ"}
	repo := new(mockProductRepository)
	repo.On("GetByID", mock.Anything, "9").Return(product, nil)
	repo.On("List", mock.Anything, repository.ProductFilter{}).Return(catalog(), nil)
	svc := NewCatalogService(repo, discardLogger())

	detail, err := svc.GetDetail(context.Background(), "9")
	require.NoError(t, err)

	assert.Empty(t, detail.Images)
	assert.Contains(t, detail.FullDescription, "<p><strong>Họ thực vật:</strong> Cây cảnh</p>")
	assert.Contains(t, detail.FullDescription, "Sản phẩm chất lượng cao")
	assert.Equal(t, []string{"Cây cảnh", "Trang trí", "Phổ biến"}, detail.Tags)
}

func TestCatalog_GetDetailKeepsStoredFieldsAndSanitizes(t *testing.T) {
	product := &domain.Product{
		ID:              "1",
		Name:            "Trầu bà",
		Images:          []string{"/a.jpg"},
		Tags:            []string{"Hot"},
		FullDescription: `<p onclick="steal()">Đẹp</p><script>alert(1)</script><a href="javascript:x()">x</a>`,
	}
	repo := new(mockProductRepository)
	repo.On("GetByID", mock.Anything, "1").Return(product, nil)
	repo.On("List", mock.Anything, repository.ProductFilter{}).Return(catalog(), nil)
	svc := NewCatalogService(repo, discardLogger())

	detail, err := svc.GetDetail(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"/a.jpg"}, detail.Images)
	assert.Equal(t, []string{"Hot"}, detail.Tags)
	assert.True(t, strings.HasPrefix(detail.FullDescription, `<p>Đẹp</p>`), detail.FullDescription)
	assert.NotContains(t, detail.FullDescription, "onclick")
	assert.NotContains(t, detail.FullDescription, "script")
	assert.NotContains(t, detail.FullDescription, "javascript:")
}

func TestCatalog_GeneratedDescriptionEscapesName(t *testing.T) {
	product := &domain.Product{ID: "1", Name: `<img src=x onerror="alert(1)">`}
	repo := new(mockProductRepository)
	repo.On("GetByID", mock.Anything, "1").Return(product, nil)
	repo.On("List", mock.Anything, repository.ProductFilter{}).Return([]domain.Product{}, nil)
	svc := NewCatalogService(repo, discardLogger())

	detail, err := svc.GetDetail(context.Background(), "1")
	require.NoError(t, err)
	assert.NotContains(t, detail.FullDescription, "<img")
}

func TestCatalog_RelatedSameCategoryFirst(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("GetByID", mock.Anything, "3").Return(&domain.Product{ID: "3", Name: "Lưỡi hổ", Category: "Ráy"}, nil)
	repo.On("List", mock.Anything, repository.ProductFilter{}).Return(catalog(), nil)
	svc := NewCatalogService(repo, discardLogger())

	detail, err := svc.GetDetail(context.Background(), "3")
	require.NoError(t, err)

	ids := make([]string, 0, len(detail.RelatedProducts))
	for _, p := range detail.RelatedProducts {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1", "2", "5", "7"}, ids)
}

func TestCatalog_RelatedFillsWithOtherCategories(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("GetByID", mock.Anything, "6").Return(&domain.Product{ID: "6", Category: "Xương rồng"}, nil)
	repo.On("List", mock.Anything, repository.ProductFilter{}).Return(catalog(), nil)
	svc := NewCatalogService(repo, discardLogger())

	detail, err := svc.GetDetail(context.Background(), "6")
	require.NoError(t, err)

	require.Len(t, detail.RelatedProducts, 4)
	for _, p := range detail.RelatedProducts {
		assert.NotEqual(t, "6", p.ID)
	}
	assert.Equal(t, "1", detail.RelatedProducts[0].ID)
}

func TestCatalog_RelatedFailureDoesNotFailDetail(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("GetByID", mock.Anything, "1").Return(&domain.Product{ID: "1"}, nil)
	repo.On("List", mock.Anything, repository.ProductFilter{}).Return(nil, apperrors.Query("list products", errStoreDown))
	svc := NewCatalogService(repo, discardLogger())

	detail, err := svc.GetDetail(context.Background(), "1")
	require.NoError(t, err)
	assert.NotNil(t, detail.RelatedProducts)
	assert.Empty(t, detail.RelatedProducts)
}

func TestCatalog_GetDetailNotFound(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("GetByID", mock.Anything, "404").Return(nil, apperrors.NotFound("product", "404"))
	svc := NewCatalogService(repo, discardLogger())

	_, err := svc.GetDetail(context.Background(), "404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
