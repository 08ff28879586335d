package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/plantstore/internal/domain"
	pkgkafka "github.com/utafrali/plantstore/pkg/kafka"
	"github.com/utafrali/plantstore/pkg/logger"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestProducer(w *fakeWriter) *Producer {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	k := pkgkafka.NewProducerWithWriter(w, []string{"localhost:9092"}, log, prometheus.NewRegistry())
	return NewProducer(k, log)
}

func decodeEvent(t *testing.T, msg kafka.Message) *pkgkafka.Event {
	t.Helper()
	var ev pkgkafka.Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	return &ev
}

func TestPublishReviewCreated(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	ctx := logger.WithCorrelationID(context.Background(), "corr-9")

	review := &domain.Review{ID: "r1", ProductID: "42", UserID: "u1", Rating: 5, CreatedAt: time.Now().UTC()}
	require.NoError(t, p.PublishReviewCreated(ctx, review))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "plantstore.review.created", w.messages[0].Topic)

	ev := decodeEvent(t, w.messages[0])
	assert.Equal(t, "r1", ev.AggregateID)
	assert.Equal(t, AggregateTypeReview, ev.AggregateType)
	assert.Equal(t, SourceStorefront, ev.Source)
	assert.Equal(t, "corr-9", ev.CorrelationID)
	assert.Equal(t, map[string]string{"product_id": "42"}, ev.Metadata)

	var data ReviewCreatedData
	require.NoError(t, ev.UnmarshalData(&data))
	assert.Equal(t, "42", data.ProductID)
	assert.Equal(t, 5, data.Rating)
}

func TestPublishUserEvents(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	activated := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	user := &domain.User{ID: "u1", Email: "an@example.com", FullName: "An", ActivatedAt: &activated}

	require.NoError(t, p.PublishUserRegistered(context.Background(), user))
	require.NoError(t, p.PublishUserActivated(context.Background(), user))

	require.Len(t, w.messages, 2)
	assert.Equal(t, TopicUserRegistered, w.messages[0].Topic)
	assert.Equal(t, TopicUserActivated, w.messages[1].Topic)

	var data UserActivatedData
	ev := decodeEvent(t, w.messages[1])
	require.NoError(t, ev.UnmarshalData(&data))
	assert.True(t, activated.Equal(data.ActivatedAt))
}

func TestPublishOrderCreated(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	order := &domain.Order{
		ID:          "o1",
		UserID:      "u1",
		Items:       []domain.OrderItem{{ProductID: "42", Quantity: 2, Price: 120000}},
		TotalAmount: 240000,
		Status:      domain.OrderStatusPending,
	}

	require.NoError(t, p.PublishOrderCreated(context.Background(), order))

	ev := decodeEvent(t, w.messages[0])
	assert.Equal(t, "u1", ev.Metadata["user_id"])
	assert.Equal(t, domain.OrderStatusPending, ev.Metadata["status"])

	var data OrderCreatedData
	require.NoError(t, ev.UnmarshalData(&data))
	assert.Equal(t, int64(240000), data.TotalAmount)
	assert.Len(t, data.Items, 1)
}

func TestPublish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newTestProducer(w)

	err := p.PublishReviewCreated(context.Background(), &domain.Review{ID: "r1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish plantstore.review.created event")
}

func TestPublish_DisabledKafka(t *testing.T) {
	p := NewProducer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NoError(t, p.PublishReviewCreated(context.Background(), &domain.Review{ID: "r1"}))
	assert.NoError(t, p.PublishOrderCreated(context.Background(), &domain.Order{ID: "o1"}))
}

func TestPublish_NilProducer(t *testing.T) {
	var p *Producer
	assert.NoError(t, p.PublishUserRegistered(context.Background(), &domain.User{ID: "u1"}))
}
