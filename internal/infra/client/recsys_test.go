package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/infra/resilience"

	"go.uber.org/zap"
)

func newTestRecsys(t *testing.T, baseURL string, timeouts Timeouts) *RecsysClient {
	t.Helper()
	cb := resilience.NewCircuitBreaker("recsys-test")
	return NewRecsysClient(&http.Client{}, baseURL, timeouts, cb, resilience.NewBulkhead(10), zap.NewNop())
}

func TestCustomerInsight_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/infer/analytic" {
			t.Errorf("path = %s, want /infer/analytic", r.URL.Path)
		}
		var req insightRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.CustomerID != "CUST-0001" || req.TopN != 5 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"recommendations": map[string]any{
				"items": []map[string]any{{"product_name": "Combo 10GB", "category": "Combo", "price": 12000.0}},
			},
			"churn":         map[string]any{"probability": 0.72, "label": "high"},
			"user_category": "Churn Prevention",
		})
	}))
	defer srv.Close()

	c := newTestRecsys(t, srv.URL, Timeouts{})
	res, err := c.CustomerInsight(context.Background(), "CUST-0001", 5)
	if err != nil {
		t.Fatalf("CustomerInsight: %v", err)
	}
	if res.Degraded {
		t.Fatal("successful call should not be degraded")
	}
	if got := res.Insight.Churn.Probability; got != 0.72 {
		t.Errorf("churn probability = %v, want 0.72", got)
	}
	if len(res.Insight.Recommendations.Items) != 1 {
		t.Errorf("items = %d, want 1", len(res.Insight.Recommendations.Items))
	}
}

func TestCustomerInsight_NonOKDegradesToFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestRecsys(t, srv.URL, Timeouts{})
	res, err := c.CustomerInsight(context.Background(), "CUST-0001", 5)
	if err != nil {
		t.Fatalf("degraded call must not error: %v", err)
	}
	if !res.Degraded {
		t.Fatal("expected degraded result")
	}
	if res.Reason != "service_error" {
		t.Errorf("reason = %q, want service_error", res.Reason)
	}
	if res.Insight.UserCategory != "General Offer" {
		t.Errorf("fallback user_category = %q", res.Insight.UserCategory)
	}
	if len(res.Insight.Recommendations.Items) != 5 {
		t.Errorf("fallback items = %d, want 5", len(res.Insight.Recommendations.Items))
	}
}

func TestCustomerInsight_TimeoutDegradesToFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestRecsys(t, srv.URL, Timeouts{Insight: 20 * time.Millisecond})
	res, err := c.CustomerInsight(context.Background(), "CUST-0001", 5)
	if err != nil {
		t.Fatalf("degraded call must not error: %v", err)
	}
	if !res.Degraded || res.Reason != "timeout" {
		t.Fatalf("got degraded=%v reason=%q, want timeout degradation", res.Degraded, res.Reason)
	}
}

func TestSimulateProduct_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/infer/simulate-product" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req domain.SimulateProductRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.DurationDays != 30 {
			t.Errorf("duration_days = %d, want 30", req.DurationDays)
		}
		json.NewEncoder(w).Encode(domain.SimulateProductResponse{
			Hits:           600,
			Revenue:        9000000,
			ConversionRate: 6,
			Segments:       map[string]int{"High Value": 420, "Budget": 180},
			Recommendation: "Target high value users",
			TotalUsers:     10000,
		})
	}))
	defer srv.Close()

	c := newTestRecsys(t, srv.URL, Timeouts{})
	resp, err := c.SimulateProduct(context.Background(), &domain.SimulateProductRequest{
		ProductName: "Combo Max", Category: "Combo", Price: 95000, DurationDays: 30,
	})
	if err != nil {
		t.Fatalf("SimulateProduct: %v", err)
	}
	if resp.Hits != 600 || resp.TotalUsers != 10000 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSimulateProduct_ErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestRecsys(t, srv.URL, Timeouts{})
	_, err := c.SimulateProduct(context.Background(), &domain.SimulateProductRequest{ProductName: "X"})
	if err == nil {
		t.Fatal("simulation failures must propagate, not fall back")
	}
	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) {
		t.Fatalf("error type = %T, want *domain.ErrExternalService", err)
	}
}

func TestChurnComposition_FallbackShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestRecsys(t, srv.URL, Timeouts{})
	res, err := c.ChurnComposition(context.Background())
	if err != nil {
		t.Fatalf("degraded call must not error: %v", err)
	}
	if !res.Degraded {
		t.Fatal("expected degraded result")
	}
	comp := res.Composition
	if comp.TotalUsers != 10000 || comp.ChurnRate != 8.5 {
		t.Errorf("fallback totals = %d users, churn %v", comp.TotalUsers, comp.ChurnRate)
	}
	if comp.Composition.High.Count != 850 || comp.Composition.Medium.Count != 4500 || comp.Composition.Low.Count != 4650 {
		t.Errorf("fallback buckets = %+v", comp.Composition)
	}
}

func TestOverview_Passthrough(t *testing.T) {
	doc := `{"arpu":52000,"regions":["JKT","SBY"]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analytics/overview" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(doc))
	}))
	defer srv.Close()

	c := newTestRecsys(t, srv.URL, Timeouts{})
	raw, err := c.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("overview not valid JSON: %v", err)
	}
	if got["arpu"] != 52000.0 {
		t.Errorf("arpu = %v", got["arpu"])
	}
}

