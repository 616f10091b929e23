package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/handler"
	"github.com/telvora/telvora-admin-bff/internal/infra/cache"
	"github.com/telvora/telvora-admin-bff/internal/infra/observability"
	"github.com/telvora/telvora-admin-bff/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// --- Mocks ---

type stubCustomerStore struct {
	customers []domain.Customer
	err       error
}

func (s *stubCustomerStore) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	return s.customers, s.err
}

func (s *stubCustomerStore) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	for i := range s.customers {
		if s.customers[i].CustomerID == id {
			return &s.customers[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "customer", ID: id}
}

func (s *stubCustomerStore) CreateCustomer(_ context.Context, row map[string]any) (*domain.Customer, error) {
	id, _ := row["customer_id"].(string)
	return &domain.Customer{CustomerID: id}, nil
}

func (s *stubCustomerStore) UpdateCustomer(_ context.Context, id string, _ map[string]any) (*domain.Customer, error) {
	return &domain.Customer{CustomerID: id}, nil
}

func (s *stubCustomerStore) DeleteCustomer(_ context.Context, _ string) error { return nil }

func (s *stubCustomerStore) CountCustomers(_ context.Context) (int, error) {
	return len(s.customers), s.err
}

type stubProductStore struct {
	products []domain.Product
}

func (s *stubProductStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubProductStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	return nil, &domain.ErrNotFound{Resource: "product", ID: id}
}

func (s *stubProductStore) CreateProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	return &p, nil
}

func (s *stubProductStore) UpdateProduct(_ context.Context, id string, p domain.Product) (*domain.Product, error) {
	p.ProductID = id
	return &p, nil
}

func (s *stubProductStore) DeleteProduct(_ context.Context, _ string) error { return nil }

func (s *stubProductStore) CountProducts(_ context.Context) (int, error) {
	return len(s.products), nil
}

type stubSimulationStore struct{}

func (s *stubSimulationStore) SaveSimulation(_ context.Context, sim domain.Simulation) (*domain.Simulation, error) {
	return &sim, nil
}

func (s *stubSimulationStore) ListSimulations(_ context.Context, _ string, _ int) ([]domain.Simulation, error) {
	return []domain.Simulation{}, nil
}

func (s *stubSimulationStore) DeleteSimulation(_ context.Context, _ string) error { return nil }

type stubInference struct {
	degraded bool
}

func (s *stubInference) CustomerInsight(_ context.Context, _ string, _ int) (*domain.InsightResult, error) {
	if s.degraded {
		return &domain.InsightResult{
			Degradation: domain.Degradation{Degraded: true, Reason: "timeout"},
			Insight:     domain.FallbackCustomerInsight(),
		}, nil
	}
	insight := &domain.CustomerInsight{UserCategory: "General Offer"}
	return &domain.InsightResult{Insight: insight}, nil
}

func (s *stubInference) SimulateProduct(_ context.Context, _ *domain.SimulateProductRequest) (*domain.SimulateProductResponse, error) {
	return &domain.SimulateProductResponse{
		Hits: 100, ConversionRate: 10, Segments: map[string]int{"Budget": 100}, TotalUsers: 1000,
	}, nil
}

func (s *stubInference) ChurnComposition(_ context.Context) (*domain.ChurnCompositionResult, error) {
	return &domain.ChurnCompositionResult{Composition: domain.FallbackChurnComposition()}, nil
}

func (s *stubInference) Overview(_ context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"arpu":52000}`), nil
}

func newTestRouter(t *testing.T, opts handler.Options) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	custStore := &stubCustomerStore{customers: []domain.Customer{
		{CustomerID: "CUST-0001", RiskTier: domain.RiskHigh, MonthlySpend: 50000},
	}}
	metrics := observability.NewMetrics()

	customers := service.NewCustomerService(custStore, logger)
	products := service.NewProductService(&stubProductStore{}, logger)
	simulations := service.NewSimulationService(&stubSimulationStore{}, &stubInference{}, logger)
	insights := service.NewInsightService(
		&stubInference{},
		cache.New[*domain.InsightResult](time.Minute),
		cache.New[*domain.ChurnCompositionResult](time.Minute),
		metrics,
		logger,
	)
	dashboard := service.NewDashboardService(customers, products, logger)

	return handler.NewRouter(handler.Services{
		Customers:   customers,
		Products:    products,
		Simulations: simulations,
		Insights:    insights,
		Dashboard:   dashboard,
		Metrics:     metrics,
		Probe:       custStore,
	}, opts, logger)
}

// --- Tests ---

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t, handler.Options{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

// The /metrics endpoint must expose the application's own registry, not the
// default one.
func TestMetricsEndpoint_ExposesApplicationMetrics(t *testing.T) {
	router := newTestRouter(t, handler.Options{})

	// One API request to populate the duration histogram, one insight read
	// to populate the inference counters.
	for _, path := range []string{"/v1/customers", "/v1/customers/CUST-0001/insights"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}

	body := rec.Body.String()
	for _, metric := range []string{
		"telvora_request_duration_seconds",
		"telvora_inference_requests_total",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("/metrics missing %s", metric)
		}
	}
	if !strings.Contains(body, `operation="GET /v1/customers"`) {
		t.Errorf("duration histogram not labeled by route pattern:\n%s", body)
	}
}

func TestListCustomers(t *testing.T) {
	router := newTestRouter(t, handler.Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/customers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var customers []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &customers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(customers) != 1 || customers[0]["customerId"] != "CUST-0001" {
		t.Errorf("body = %s", rec.Body.String())
	}
	if customers[0]["riskLevel"] != domain.RiskHigh {
		t.Errorf("riskLevel = %v", customers[0]["riskLevel"])
	}
}

func TestGetCustomer_NotFound(t *testing.T) {
	router := newTestRouter(t, handler.Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/customers/CUST-9999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRunSimulation_ValidationError(t *testing.T) {
	router := newTestRouter(t, handler.Options{})

	body := strings.NewReader(`{"productName":"Combo Max","category":"Combo","price":"abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/simulations/run", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRunSimulation_OK(t *testing.T) {
	router := newTestRouter(t, handler.Options{})

	body := strings.NewReader(`{"productName":"Combo Max","category":"Combo","price":"95000"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/simulations/run", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var result domain.SimulationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.MatchScore != 40 {
		t.Errorf("matchScore = %v, want 40 (conversion 10 x 4)", result.MatchScore)
	}
}

func TestDashboardStats(t *testing.T) {
	router := newTestRouter(t, handler.Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["totalCustomers"] != 1.0 {
		t.Errorf("totalCustomers = %v", stats["totalCustomers"])
	}
	if stats["totalRevenue"] != 600000.0 {
		t.Errorf("totalRevenue = %v, want 600000 (50000 x 12)", stats["totalRevenue"])
	}
}

func TestAnalyticsOverview_Passthrough(t *testing.T) {
	router := newTestRouter(t, handler.Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/overview", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"arpu":52000`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"
	router := newTestRouter(t, handler.Options{JWTSecret: secret})

	// Without a token the API refuses.
	req := httptest.NewRequest(http.MethodGet, "/v1/customers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	// Health stays open.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz with auth enabled: status = %d, want 200", rec.Code)
	}

	// A properly signed token passes.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin@telvora.id",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	// A token signed with another key is refused.
	badToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"})
	badSigned, _ := badToken.SignedString([]byte("wrong-secret"))
	req = httptest.NewRequest(http.MethodGet, "/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+badSigned)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature: status = %d, want 401", rec.Code)
	}
}

func TestCustomerInsights_DegradedFlag(t *testing.T) {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	custStore := &stubCustomerStore{}
	customers := service.NewCustomerService(custStore, logger)
	products := service.NewProductService(&stubProductStore{}, logger)
	simulations := service.NewSimulationService(&stubSimulationStore{}, &stubInference{}, logger)
	insights := service.NewInsightService(
		&stubInference{degraded: true},
		cache.New[*domain.InsightResult](time.Minute),
		cache.New[*domain.ChurnCompositionResult](time.Minute),
		metrics,
		logger,
	)
	dashboard := service.NewDashboardService(customers, products, logger)
	router := handler.NewRouter(handler.Services{
		Customers: customers, Products: products, Simulations: simulations,
		Insights: insights, Dashboard: dashboard, Metrics: metrics, Probe: custStore,
	}, handler.Options{}, logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/customers/CUST-0001/insights", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["degraded"] != true {
		t.Errorf("degraded = %v, want true", result["degraded"])
	}
	if result["degradedReason"] != "timeout" {
		t.Errorf("degradedReason = %v", result["degradedReason"])
	}
}
