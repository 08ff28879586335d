package review

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/session"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

// fakeOrders answers HasCompletedPurchase from a set of completed orders.
type fakeOrders struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
	block  bool
	calls  int
}

func (f *fakeOrders) HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	f.mu.Lock()
	f.calls++
	block, err := f.block, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return false, apperrors.Query("check purchase", ctx.Err())
	}
	if err != nil {
		return false, err
	}
	for i := range f.orders {
		if f.orders[i].IsPurchaseOf(userID, productID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrders) complete(userID string, productIDs ...string) {
	order := domain.Order{
		ID:     fmt.Sprintf("o-%d", len(f.orders)+1),
		UserID: userID,
		Status: domain.OrderStatusCompleted,
	}
	for _, pid := range productIDs {
		order.Items = append(order.Items, domain.OrderItem{ProductID: pid, Quantity: 1, Price: 150000})
	}
	f.orders = append(f.orders, order)
}

// fakeReviews is an in-memory review store without a uniqueness constraint.
type fakeReviews struct {
	mu        sync.Mutex
	reviews   []domain.Review
	nextID    int
	creates   int
	getErr    error
	listErr   error
	createErr error
	// release, when set, blocks Create until it is closed.
	release chan struct{}
	entered chan struct{}
}

func (f *fakeReviews) GetByUserAndProduct(_ context.Context, userID, productID string) (*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.reviews {
		if f.reviews[i].UserID == userID && f.reviews[i].ProductID == productID {
			r := f.reviews[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeReviews) ListByProductID(_ context.Context, productID string) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Review
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviews) Create(ctx context.Context, review *domain.Review) error {
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return apperrors.Write("create review", ctx.Err())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	review.SetDefaults(fmt.Sprintf("r-%d", f.nextID), time.Now())
	f.reviews = append(f.reviews, *review)
	return nil
}

func (f *fakeReviews) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

type fixture struct {
	orders   *fakeOrders
	reviews  *fakeReviews
	reg      *prometheus.Registry
	reviewer *Reviewer
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		orders:  &fakeOrders{},
		reviews: &fakeReviews{},
		reg:     prometheus.NewRegistry(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.reviewer = New(f.orders, f.reviews, cfg, logger, NewMetrics(f.reg))
	return f
}

func (f *fixture) counter(name, label, value string) float64 {
	families, err := f.reg.Gather()
	if err != nil {
		return -1
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m, label, value) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func customer(id string) *domain.User {
	return &domain.User{
		ID:            id,
		FullName:      "Phạm Minh Châu",
		Email:         id + "@example.com",
		Role:          domain.RoleCustomer,
		EmailVerified: true,
	}
}

func loggedIn(id string) session.Session {
	return session.New("s-"+id, customer(id))
}
