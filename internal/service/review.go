package service

import (
	"context"
	"log/slog"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/event"
	"github.com/utafrali/plantstore/internal/review"
	"github.com/utafrali/plantstore/internal/session"
)

// ProductReviews is the review list of a product with its summary.
type ProductReviews struct {
	Reviews []domain.Review      `json:"reviews"`
	Summary domain.ReviewSummary `json:"summary"`
}

// SubmitReviewInput is a review as entered in the product page form.
type SubmitReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReviewService exposes the review workflow to the HTTP layer.
type ReviewService struct {
	reviewer *review.Reviewer
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reviewer *review.Reviewer, producer *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviewer: reviewer,
		producer: producer,
		logger:   logger,
	}
}

// List returns the reviews of a product and their summary. A failed read
// yields an empty list.
func (s *ReviewService) List(ctx context.Context, productID string) ProductReviews {
	reviews := s.reviewer.ListReviews(ctx, productID)
	return ProductReviews{
		Reviews: reviews,
		Summary: domain.Summarize(reviews),
	}
}

// Eligibility returns what the product page should show in its review area
// for the visitor of sess.
func (s *ReviewService) Eligibility(ctx context.Context, sess session.Session, productID string) review.ReviewFormView {
	return s.reviewer.Workflow(sess, productID).Check(ctx)
}

// Submit runs the submission workflow for the visitor of sess. On success a
// review.created event is published; a publish failure is only logged.
func (s *ReviewService) Submit(ctx context.Context, sess session.Session, productID string, input SubmitReviewInput) (review.Outcome, error) {
	out, err := s.reviewer.Workflow(sess, productID).Submit(ctx, input.Rating, input.Comment)
	if err != nil {
		return out, err
	}

	if err := s.producer.PublishReviewCreated(ctx, out.Review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", out.Review.ID),
			slog.String("error", err.Error()),
		)
	}

	return out, nil
}
