package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/pkg/database"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
// The reviews table has a unique (user_id, product_id) constraint, so a second
// review by the same user is rejected by the database itself.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = `id, product_id, user_id, user_name, rating, comment, date, created_at`

// Create inserts a new review. A unique violation is reported as
// apperrors.ErrAlreadyExists; any other failure as apperrors.ErrWrite.
// The generated ID and dates are copied back to review only once stored.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	rv := *review
	rv.SetDefaults(uuid.NewString(), time.Now())

	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "reviews.Create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		rv.ID,
		rv.ProductID,
		rv.UserID,
		rv.UserName,
		rv.Rating,
		rv.Comment,
		rv.Date,
		rv.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "product_id", rv.ProductID)
		}
		return apperrors.Write("insert review", err)
	}

	*review = rv
	return nil
}

// GetByUserAndProduct returns the user's review of the product, or nil when
// the user has not reviewed it.
func (r *ReviewRepository) GetByUserAndProduct(ctx context.Context, userID, productID string) (_ *domain.Review, err error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = $1 AND product_id = $2`

	ctx, end := database.TraceQuery(ctx, "reviews.GetByUserAndProduct", query)
	defer func() { end(err) }()

	var rv domain.Review
	err = r.pool.QueryRow(ctx, query, userID, productID).Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&rv.UserName,
		&rv.Rating,
		&rv.Comment,
		&rv.Date,
		&rv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Query("get review by user and product", err)
	}

	return &rv, nil
}

// ListByProductID returns every review of a product, newest first.
func (r *ReviewRepository) ListByProductID(ctx context.Context, productID string) (_ []domain.Review, err error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "reviews.ListByProductID", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, apperrors.Query("list reviews", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err = rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.UserID,
			&rv.UserName,
			&rv.Rating,
			&rv.Comment,
			&rv.Date,
			&rv.CreatedAt,
		); err != nil {
			return nil, apperrors.Query("scan review row", err)
		}
		reviews = append(reviews, rv)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.Query("iterate review rows", err)
	}

	return reviews, nil
}
