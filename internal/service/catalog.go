package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/repository"
	"github.com/utafrali/plantstore/pkg/sanitize"
)

const (
	featuredLimit = 6
	relatedLimit  = 4
	galleryImages = 5

	defaultCategory    = "Cây cảnh"
	defaultTag         = "Trang trí"
	defaultPopularTag  = "Phổ biến"
	defaultHeight      = "0,8-1,2m"
	defaultDescription = "Sản phẩm chất lượng cao, phù hợp cho không gian sống của bạn."
	defaultOrigin      = "Cây có nguồn gốc từ nhiều nơi trên thế giới, được du nhập và phân bố rộng khắp ở Việt Nam. " +
		"Cây phát triển tốt trong môi trường trong nhà, thích hợp với ánh sáng gián tiếp và độ ẩm vừa phải."
)

// CatalogService serves product listings and detail pages.
type CatalogService struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(products repository.ProductRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   logger,
	}
}

// Featured returns the first products of the catalog.
func (s *CatalogService) Featured(ctx context.Context) ([]domain.Product, error) {
	return s.List(ctx, repository.ProductFilter{Limit: featuredLimit})
}

// List returns the products matching filter.
func (s *CatalogService) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// GetDetail returns a product with its detail-page defaults filled in and up
// to four related products, those of the same category first.
func (s *CatalogService) GetDetail(ctx context.Context, id string) (*domain.ProductDetail, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyDetailDefaults(product)

	return &domain.ProductDetail{
		Product:         *product,
		RelatedProducts: s.related(ctx, product),
	}, nil
}

// related never fails the detail page; a listing error yields no related products.
func (s *CatalogService) related(ctx context.Context, product *domain.Product) []domain.Product {
	all, err := s.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load related products",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		return []domain.Product{}
	}

	same := make([]domain.Product, 0, relatedLimit)
	other := make([]domain.Product, 0, relatedLimit)
	for _, p := range all {
		switch {
		case p.ID == product.ID:
		case product.Category != "" && p.Category == product.Category:
			same = append(same, p)
		default:
			other = append(other, p)
		}
	}

	related := append(same, other...)
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}
	return related
}

func applyDetailDefaults(p *domain.Product) {
	if len(p.Images) == 0 && p.Image != "" {
		p.Images = make([]string, galleryImages)
		for i := range p.Images {
			p.Images[i] = p.Image
		}
	}

	if p.ShortDescription == "" {
		p.ShortDescription = p.Description
	}

	if p.FullDescription == "" {
		p.FullDescription = fullDescription(p)
	}
	p.FullDescription = sanitize.HTML(p.FullDescription)

	if len(p.Tags) == 0 {
		category := p.Category
		if category == "" {
			category = defaultPopularTag
		}
		p.Tags = []string{defaultCategory, defaultTag, category}
	}
}

func fullDescription(p *domain.Product) string {
	family := p.Category
	if family == "" {
		family = defaultCategory
	}
	description := p.Description
	if description == "" {
		description = defaultDescription
	}

	name := html.EscapeString(p.Name)
	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>Tên phổ thông:</strong> %s</p>\n", name)
	fmt.Fprintf(&b, "<p><strong>Tên khoa học:</strong> %s</p>\n", name)
	fmt.Fprintf(&b, "<p><strong>Họ thực vật:</strong> %s</p>\n", html.EscapeString(family))
	fmt.Fprintf(&b, "<p><strong>Chiều cao:</strong> %s</p>\n", defaultHeight)
	fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(description))
	fmt.Fprintf(&b, "<p>%s</p>", defaultOrigin)
	return b.String()
}
