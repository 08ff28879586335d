// Package review decides who may review a product and runs the review
// submission workflow. A user may review a product only after a completed
// purchase of it, and only once.
package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/session"
	"github.com/utafrali/plantstore/pkg/logger"
	"github.com/utafrali/plantstore/pkg/tracing"
)

// OrderQuery reports whether a user has a completed order containing a product.
type OrderQuery interface {
	HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error)
}

// ReviewStore reads and creates reviews. GetByUserAndProduct returns nil, nil
// when the user has not reviewed the product. Create assigns ID and Date.
type ReviewStore interface {
	GetByUserAndProduct(ctx context.Context, userID, productID string) (*domain.Review, error)
	ListByProductID(ctx context.Context, productID string) ([]domain.Review, error)
	Create(ctx context.Context, review *domain.Review) error
}

// Config bounds the store calls made by the evaluator and the workflow.
// A zero timeout leaves the call bounded only by the caller's context.
type Config struct {
	QueryTimeout time.Duration
	WriteTimeout time.Duration
}

// Metrics counts eligibility checks and submission outcomes.
type Metrics struct {
	checks      *prometheus.CounterVec
	submissions *prometheus.CounterVec
}

// NewMetrics creates the review collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_eligibility_checks_total",
			Help: "Total number of review eligibility checks by result",
		}, []string{"result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_submissions_total",
			Help: "Total number of review submissions by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.checks, m.submissions)
	return m
}

func (m *Metrics) check(result string) {
	if m != nil {
		m.checks.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) submission(outcome string) {
	if m != nil {
		m.submissions.WithLabelValues(outcome).Inc()
	}
}

// Reviewer holds the collaborators shared by eligibility checks and
// submission workflows.
type Reviewer struct {
	orders  OrderQuery
	reviews ReviewStore
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
}

// New creates a Reviewer. metrics may be nil.
func New(orders OrderQuery, reviews ReviewStore, cfg Config, logger *slog.Logger, metrics *Metrics) *Reviewer {
	return &Reviewer{
		orders:  orders,
		reviews: reviews,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Workflow starts a submission workflow for the visitor of sess on productID.
func (r *Reviewer) Workflow(sess session.Session, productID string) *Workflow {
	return newWorkflow(r, sess, productID)
}

// ListReviews re-reads the reviews of a product. A read failure is logged and
// yields an empty list.
func (r *Reviewer) ListReviews(ctx context.Context, productID string) []domain.Review {
	ctx, cancel := withTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	reviews, err := r.reviews.ListByProductID(ctx, productID)
	if err != nil {
		r.reportQueryError(ctx, "list reviews failed", productID, err)
		return []domain.Review{}
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews
}

func (r *Reviewer) reportQueryError(ctx context.Context, msg, productID string, err error) {
	tracing.RecordError(ctx, err)
	logger.WithContext(ctx, r.logger).WarnContext(ctx, msg,
		slog.String("product_id", productID),
		slog.String("error", err.Error()),
	)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
