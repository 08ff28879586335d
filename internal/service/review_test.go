package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/review"
	"github.com/utafrali/plantstore/internal/session"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

func newReviewService(orders *mockOrderRepository, reviews *mockReviewRepository) (*ReviewService, *recordingWriter) {
	producer, events := newTestProducer()
	reviewer := review.New(orders, reviews, review.Config{}, discardLogger(), nil)
	return NewReviewService(reviewer, producer, discardLogger()), events
}

func TestReviewService_ListWithSummary(t *testing.T) {
	reviews := new(mockReviewRepository)
	reviews.On("ListByProductID", mock.Anything, "42").Return([]domain.Review{
		{ID: "r1", Rating: 5}, {ID: "r2", Rating: 4}, {ID: "r3", Rating: 4},
	}, nil)
	svc, _ := newReviewService(new(mockOrderRepository), reviews)

	got := svc.List(context.Background(), "42")

	assert.Len(t, got.Reviews, 3)
	assert.Equal(t, domain.ReviewSummary{AverageRating: 4.3, TotalCount: 3}, got.Summary)
}

func TestReviewService_ListQueryErrorYieldsEmpty(t *testing.T) {
	reviews := new(mockReviewRepository)
	reviews.On("ListByProductID", mock.Anything, "42").Return(nil, apperrors.Query("list reviews", errStoreDown))
	svc, _ := newReviewService(new(mockOrderRepository), reviews)

	got := svc.List(context.Background(), "42")

	assert.NotNil(t, got.Reviews)
	assert.Empty(t, got.Reviews)
	assert.Zero(t, got.Summary.TotalCount)
}

func TestReviewService_Eligibility(t *testing.T) {
	orders := new(mockOrderRepository)
	orders.On("HasCompletedPurchase", mock.Anything, "u1", "42").Return(true, nil)
	reviews := new(mockReviewRepository)
	reviews.On("GetByUserAndProduct", mock.Anything, "u1", "42").Return(nil, nil)
	svc, _ := newReviewService(orders, reviews)

	view := svc.Eligibility(context.Background(), session.New("s1", &domain.User{ID: "u1", Email: "u1@example.com"}), "42")
	assert.True(t, view.ShowForm)

	view = svc.Eligibility(context.Background(), session.Anonymous(), "42")
	assert.True(t, view.ShowLoginPrompt)
	assert.False(t, view.ShowForm)
}

func TestReviewService_SubmitPublishesEvent(t *testing.T) {
	orders := new(mockOrderRepository)
	orders.On("HasCompletedPurchase", mock.Anything, "u1", "42").Return(true, nil)
	reviews := new(mockReviewRepository)
	reviews.On("GetByUserAndProduct", mock.Anything, "u1", "42").Return(nil, nil)
	reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Review).ID = "r1" }).
		Return(nil)
	reviews.On("ListByProductID", mock.Anything, "42").Return([]domain.Review{{ID: "r1", Rating: 5}}, nil)
	svc, events := newReviewService(orders, reviews)

	sess := session.New("s1", &domain.User{ID: "u1", FullName: "An", Email: "u1@example.com"})
	out, err := svc.Submit(context.Background(), sess, "42", SubmitReviewInput{Rating: 5, Comment: "Great plant, thriving!"})
	require.NoError(t, err)

	assert.Equal(t, review.StateSuccess, out.State)
	assert.Equal(t, "r1", out.Review.ID)
	assert.Equal(t, []string{"plantstore.review.created"}, events.topics())
}

func TestReviewService_SubmitPublishFailureIsNotFatal(t *testing.T) {
	orders := new(mockOrderRepository)
	orders.On("HasCompletedPurchase", mock.Anything, "u1", "42").Return(true, nil)
	reviews := new(mockReviewRepository)
	reviews.On("GetByUserAndProduct", mock.Anything, "u1", "42").Return(nil, nil)
	reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	reviews.On("ListByProductID", mock.Anything, "42").Return([]domain.Review{}, nil)
	svc, events := newReviewService(orders, reviews)
	events.err = errStoreDown

	sess := session.New("s1", &domain.User{ID: "u1", Email: "u1@example.com"})
	_, err := svc.Submit(context.Background(), sess, "42", SubmitReviewInput{Rating: 4, Comment: "Nice and healthy"})
	assert.NoError(t, err)
}

func TestReviewService_SubmitWriteFailure(t *testing.T) {
	orders := new(mockOrderRepository)
	orders.On("HasCompletedPurchase", mock.Anything, "u1", "42").Return(true, nil)
	reviews := new(mockReviewRepository)
	reviews.On("GetByUserAndProduct", mock.Anything, "u1", "42").Return(nil, nil)
	reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(apperrors.Write("create review", errStoreDown))
	svc, events := newReviewService(orders, reviews)

	sess := session.New("s1", &domain.User{ID: "u1", Email: "u1@example.com"})
	out, err := svc.Submit(context.Background(), sess, "42", SubmitReviewInput{Rating: 4, Comment: "Nice and healthy"})

	assert.ErrorIs(t, err, apperrors.ErrWrite)
	assert.Equal(t, review.StateFailed, out.State)
	assert.Equal(t, "Nice and healthy", out.Comment)
	assert.Empty(t, events.topics())
	reviews.AssertNotCalled(t, "ListByProductID", mock.Anything, mock.Anything)
}
