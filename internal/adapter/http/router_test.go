package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/adapter/http/handler"
	apimiddleware "github.com/iho/masspay/internal/adapter/http/middleware"
	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"initiator_account_number":"ACC-1","recipients":[{"phone_number":"22200000001","bank_code":"SEDAD","amount":"10"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mass-payments/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.checkCalled || !store.updated {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_ServesMetrics(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "masspay_up 1\n")
		})
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "masspay_up") {
		t.Fatalf("unexpected /metrics response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RecordsHTTPMetricsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.HTTPMetrics = apimiddleware.NewHTTPMetrics(reg)
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	expected := `
# HELP masspay_http_requests_total Total number of HTTP requests
# TYPE masspay_http_requests_total counter
masspay_http_requests_total{method="GET",path="/health",status="200"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "masspay_http_requests_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/mass-payments/",
		"GET /api/v1/mass-payments/{id}",
		"POST /api/v1/mass-payments/{id}/process",
		"GET /api/v1/mass-payments/{id}/consistency",
		"GET /api/v1/accounts/{number}/mass-payments",
		"POST /api/v1/recipients/validate",
		"POST /api/v1/groups/",
		"GET /api/v1/groups/{id}",
		"POST /api/v1/groups/{id}/recipients",
		"POST /api/v1/groups/{id}/recipients/csv",
		"POST /api/v1/groups/{id}/process",
		"POST /api/v1/groups/{id}/mass-payments",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:      handler.NewHealthHandler(nil, nil),
		MassPaymentHandler: handler.NewMassPaymentHandler(stubMassPaymentService{}, stubConsistencyChecker{}),
		GroupHandler:       handler.NewGroupHandler(stubGroupService{}),
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubMassPaymentService struct{}

func (stubMassPaymentService) CreateMassPayment(ctx context.Context, input usecase.CreateMassPaymentInput) (*usecase.MassPaymentSummary, error) {
	return &usecase.MassPaymentSummary{MassPayment: &domain.MassPayment{ID: "mp"}, Queued: true}, nil
}

func (stubMassPaymentService) CreateFromGroup(ctx context.Context, input usecase.CreateFromGroupInput) (*usecase.MassPaymentSummary, error) {
	return &usecase.MassPaymentSummary{MassPayment: &domain.MassPayment{ID: "mp"}}, nil
}

func (stubMassPaymentService) GetMassPayment(ctx context.Context, id string) (*usecase.MassPaymentDetail, error) {
	return &usecase.MassPaymentDetail{MassPayment: &domain.MassPayment{ID: id}}, nil
}

func (stubMassPaymentService) ListByAccount(ctx context.Context, input usecase.ListByAccountInput) ([]*domain.MassPayment, error) {
	return []*domain.MassPayment{}, nil
}

func (stubMassPaymentService) Reprocess(ctx context.Context, id string) error {
	return nil
}

func (stubMassPaymentService) ValidateRecipient(ctx context.Context, phone, bankCode string) (*usecase.RecipientValidation, error) {
	return &usecase.RecipientValidation{}, nil
}

type stubConsistencyChecker struct{}

func (stubConsistencyChecker) CheckBatchConsistency(ctx context.Context, id string) (*usecase.ConsistencyReport, error) {
	return &usecase.ConsistencyReport{MassPaymentID: id}, nil
}

type stubGroupService struct{}

func (stubGroupService) CreateGroup(ctx context.Context, input usecase.CreateGroupInput) (*usecase.CreateGroupResult, error) {
	return &usecase.CreateGroupResult{Group: &domain.RecipientGroup{ID: "group"}}, nil
}

func (stubGroupService) AddRecipient(ctx context.Context, groupID string, input usecase.GroupRecipientInput) (*domain.GroupRecipient, error) {
	return &domain.GroupRecipient{ID: "recipient", GroupID: groupID}, nil
}

func (stubGroupService) ImportRecipientsCSV(ctx context.Context, groupID string, r io.Reader) (*usecase.ImportSummary, error) {
	return &usecase.ImportSummary{}, nil
}

func (stubGroupService) GetGroup(ctx context.Context, id string) (*usecase.GroupDetail, error) {
	return &usecase.GroupDetail{Group: &domain.RecipientGroup{ID: id}}, nil
}

func (stubGroupService) ProcessGroup(ctx context.Context, id string) error {
	return nil
}

type stubIdempotencyStore struct {
	checkCalled bool
	updated     bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updated = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
