package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/event"
	"github.com/utafrali/plantstore/internal/mailer"
	"github.com/utafrali/plantstore/internal/repository"
	"github.com/utafrali/plantstore/internal/review"
	"github.com/utafrali/plantstore/internal/service"
	"github.com/utafrali/plantstore/internal/session"
	"github.com/utafrali/plantstore/pkg/health"
	"github.com/utafrali/plantstore/pkg/httputil"
	pkgkafka "github.com/utafrali/plantstore/pkg/kafka"
	"github.com/utafrali/plantstore/pkg/middleware"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByUserID(ctx context.Context, userID, status string) ([]domain.Order, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepo) HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) GetByUserAndProduct(ctx context.Context, userID, productID string) (*domain.Review, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByProductID(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

// ============================================================================
// Mail and event fakes
// ============================================================================

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Name() string { return "recording" }

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) topics() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	topics := make([]string, 0, len(w.messages))
	for _, m := range w.messages {
		topics = append(topics, m.Topic)
	}
	return topics
}

var errStoreDown = errors.New("store down")

// ============================================================================
// Test environment
// ============================================================================

const testSecret = "handler-test-secret"

type testEnv struct {
	router   http.Handler
	users    *mockUserRepo
	products *mockProductRepo
	orders   *mockOrderRepo
	reviews  *mockReviewRepo
	mail     *recordingSender
	events   *recordingWriter
	store    *session.Store
	tokens   *session.TokenManager
	mr       *miniredis.Miniredis
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv builds the full router over mock repositories, a miniredis
// session store and an in-memory Kafka writer.
func newTestEnv(t *testing.T, opts ...func(*RouterConfig)) *testEnv {
	t.Helper()
	logger := discardLogger()
	reg := prometheus.NewRegistry()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		users:    new(mockUserRepo),
		products: new(mockProductRepo),
		orders:   new(mockOrderRepo),
		reviews:  new(mockReviewRepo),
		mail:     &recordingSender{},
		events:   &recordingWriter{},
		store:    session.NewStore(client, logger),
		tokens:   session.NewTokenManager(testSecret),
		mr:       mr,
	}

	kafkaProducer := pkgkafka.NewProducerWithWriter(env.events, []string{"localhost:9092"}, logger, reg)
	producer := event.NewProducer(kafkaProducer, logger)

	authSvc := service.NewAuthService(env.users, env.store, env.tokens, env.mail, producer, service.AuthConfig{
		PublicBaseURL: "http://shop.test",
		SessionTTL:    time.Hour,
		RememberTTL:   24 * time.Hour,
		BcryptCost:    bcrypt.MinCost,
	}, logger)
	reviewer := review.New(env.orders, env.reviews, review.Config{
		QueryTimeout: time.Second,
		WriteTimeout: time.Second,
	}, logger, review.NewMetrics(reg))

	cfg := RouterConfig{
		ServiceName:        "storefront-test",
		Auth:               authSvc,
		Catalog:            service.NewCatalogService(env.products, logger),
		Orders:             service.NewOrderService(env.orders, producer, logger),
		Reviews:            service.NewReviewService(reviewer, producer, logger),
		Tokens:             env.tokens.Validate,
		Sessions:           env.store,
		Health:             health.NewHandler(),
		HTTPMetrics:        middleware.NewHTTPMetrics(reg, "storefront-test"),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORS:               middleware.DefaultCORSConfig(),
		CatalogCacheMaxAge: 60,
		Logger:             logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	env.router = NewRouter(cfg)
	return env
}

// login stores a session for user and returns its bearer token.
func (e *testEnv) login(t *testing.T, user *domain.User) string {
	t.Helper()
	sess, err := e.store.Create(context.Background(), user, time.Hour)
	require.NoError(t, err)
	token, err := e.tokens.Issue(sess.ID(), user, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends a request through the router. A non-empty body is sent as JSON.
func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func customer(id string) *domain.User {
	return &domain.User{
		ID:            id,
		FullName:      "Nguyễn Văn An",
		Email:         id + "@example.com",
		Role:          domain.RoleCustomer,
		EmailVerified: true,
	}
}

// decodeError decodes an error envelope.
func decodeError(t *testing.T, rr *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error, "expected error envelope, got %s", rr.Body.String())
	return resp.Error
}

// decodeData decodes the data member of a success envelope into dst.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
