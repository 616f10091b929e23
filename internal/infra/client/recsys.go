// Package client holds HTTP clients for external services, currently the
// recsys inference service (Python) that serves recommendations, churn
// predictions and product simulations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// Timeouts holds the per-operation deadlines for inference calls.
type Timeouts struct {
	Insight     time.Duration
	Simulate    time.Duration
	Composition time.Duration
}

// RecsysClient calls the recsys inference service. Insight and composition
// calls degrade to canned payloads on any failure so the UI never renders an
// empty panel; simulation failures surface to the caller because a fabricated
// simulation outcome would be worse than an error.
type RecsysClient struct {
	httpClient *http.Client
	baseURL    string
	timeouts   Timeouts
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewRecsysClient creates a new RecsysClient.
func NewRecsysClient(httpClient *http.Client, baseURL string, timeouts Timeouts, cb *gobreaker.CircuitBreaker, bulkhead *resilience.Bulkhead, logger *zap.Logger) *RecsysClient {
	if timeouts.Insight <= 0 {
		timeouts.Insight = 12 * time.Second
	}
	if timeouts.Simulate <= 0 {
		timeouts.Simulate = 15 * time.Second
	}
	if timeouts.Composition <= 0 {
		// The composition endpoint scans the whole customer base.
		timeouts.Composition = 30 * time.Second
	}
	return &RecsysClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeouts:   timeouts,
		cb:         cb,
		bulkhead:   bulkhead,
		logger:     logger,
	}
}

type insightRequest struct {
	CustomerID string `json:"customer_id"`
	TopN       int    `json:"top_n"`
}

// CustomerInsight fetches the per-customer recommendation bundle. Any failure
// (timeout, transport error, non-2xx, open breaker) yields the canned bundle
// marked Degraded rather than an error.
func (c *RecsysClient) CustomerInsight(ctx context.Context, customerID string, topN int) (*domain.InsightResult, error) {
	ctx, span := tracer.Start(ctx, "RecsysClient.CustomerInsight")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID), attribute.Int("top_n", topN))

	var insight domain.CustomerInsight
	err := c.call(ctx, c.timeouts.Insight, func(ctx context.Context) error {
		return c.postJSON(ctx, "/infer/analytic", insightRequest{CustomerID: customerID, TopN: topN}, &insight)
	})
	if err != nil {
		c.logger.Warn("recsys: insight degraded to fallback",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		span.SetAttributes(attribute.Bool("degraded", true))
		return &domain.InsightResult{
			Degradation: domain.Degradation{Degraded: true, Reason: degradationReason(err)},
			Insight:     domain.FallbackCustomerInsight(),
		}, nil
	}

	return &domain.InsightResult{Insight: &insight}, nil
}

// SimulateProduct runs a what-if simulation. Unlike the other operations this
// one propagates failures.
func (c *RecsysClient) SimulateProduct(ctx context.Context, req *domain.SimulateProductRequest) (*domain.SimulateProductResponse, error) {
	ctx, span := tracer.Start(ctx, "RecsysClient.SimulateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.name", req.ProductName))

	var resp domain.SimulateProductResponse
	err := c.call(ctx, c.timeouts.Simulate, func(ctx context.Context) error {
		return c.postJSON(ctx, "/infer/simulate-product", req, &resp)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "recsys/simulate", Err: err}
	}
	return &resp, nil
}

// ChurnComposition fetches the population risk breakdown, degrading to the
// canned snapshot on failure.
func (c *RecsysClient) ChurnComposition(ctx context.Context) (*domain.ChurnCompositionResult, error) {
	ctx, span := tracer.Start(ctx, "RecsysClient.ChurnComposition")
	defer span.End()

	var comp domain.ChurnComposition
	err := c.call(ctx, c.timeouts.Composition, func(ctx context.Context) error {
		return c.getJSON(ctx, "/analytics/churn-composition", &comp)
	})
	if err != nil {
		c.logger.Warn("recsys: churn composition degraded to fallback", zap.Error(err))
		span.SetAttributes(attribute.Bool("degraded", true))
		return &domain.ChurnCompositionResult{
			Degradation: domain.Degradation{Degraded: true, Reason: degradationReason(err)},
			Composition: domain.FallbackChurnComposition(),
		}, nil
	}

	return &domain.ChurnCompositionResult{Composition: &comp}, nil
}

// Overview proxies the analytics overview document without interpreting it.
func (c *RecsysClient) Overview(ctx context.Context) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "RecsysClient.Overview")
	defer span.End()

	var raw json.RawMessage
	err := c.call(ctx, c.timeouts.Composition, func(ctx context.Context) error {
		return c.getJSON(ctx, "/analytics/overview", &raw)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "recsys/overview", Err: err}
	}
	return raw, nil
}

// call runs fn once behind the bulkhead, the circuit breaker and a
// per-operation deadline. No retries: inference calls are expensive and the
// caller-side fallbacks make a second attempt pointless.
func (c *RecsysClient) call(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.WithTimeout(ctx, timeout, fn)
	})
	return err
}

func (c *RecsysClient) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *RecsysClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *RecsysClient) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recsys API returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func degradationReason(err error) string {
	switch {
	case resilience.IsCircuitOpen(err):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "service_error"
	}
}
