package docstore

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/plantstore/internal/domain"
)

// ReviewRepository implements repository.ReviewRepository on the document
// store. The store has no unique constraints, so one-review-per-product is
// only enforced by callers checking GetByUserAndProduct first.
type ReviewRepository struct {
	client *Client
}

// NewReviewRepository creates a document-store review repository.
func NewReviewRepository(client *Client) *ReviewRepository {
	return &ReviewRepository{client: client}
}

// Create stores a new review and copies the stored document back into review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	rv := *review
	rv.SetDefaults(uuid.NewString(), time.Now())

	var stored reviewDoc
	if err := r.client.send(ctx, "create review", http.MethodPost, "/reviews", newReviewDoc(&rv), &stored); err != nil {
		return err
	}
	if stored.ID != "" {
		rv = stored.toDomain()
	}
	*review = rv
	return nil
}

// GetByUserAndProduct returns the user's review of the product, or nil.
func (r *ReviewRepository) GetByUserAndProduct(ctx context.Context, userID, productID string) (*domain.Review, error) {
	var docs []reviewDoc
	query := url.Values{"userId": {userID}, "productId": {productID}}
	if err := r.client.get(ctx, "get review by user and product", "/reviews", query, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	review := docs[0].toDomain()
	return &review, nil
}

// ListByProductID returns every review of the product in store order.
func (r *ReviewRepository) ListByProductID(ctx context.Context, productID string) ([]domain.Review, error) {
	var docs []reviewDoc
	if err := r.client.get(ctx, "list reviews", "/reviews", url.Values{"productId": {productID}}, &docs); err != nil {
		return nil, err
	}

	reviews := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		reviews = append(reviews, d.toDomain())
	}
	return reviews, nil
}
