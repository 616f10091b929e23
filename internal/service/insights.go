package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/infra/observability"
	"github.com/telvora/telvora-admin-bff/internal/port"

	"go.uber.org/zap"
)

const defaultInsightTopN = 5

// InsightService fronts the inference client with caching and metrics. Only
// live results are cached: a degraded bundle must not mask the service coming
// back.
type InsightService struct {
	inference    port.InferenceClient
	insightCache port.Cache[*domain.InsightResult]
	compCache    port.Cache[*domain.ChurnCompositionResult]
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewInsightService creates an InsightService.
func NewInsightService(
	inference port.InferenceClient,
	insightCache port.Cache[*domain.InsightResult],
	compCache port.Cache[*domain.ChurnCompositionResult],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *InsightService {
	return &InsightService{
		inference:    inference,
		insightCache: insightCache,
		compCache:    compCache,
		metrics:      metrics,
		logger:       logger,
	}
}

// CustomerInsight returns the recommendation bundle for one customer.
func (s *InsightService) CustomerInsight(ctx context.Context, customerID string, topN int) (*domain.InsightResult, error) {
	ctx, span := tracer.Start(ctx, "InsightService.CustomerInsight")
	defer span.End()

	if customerID == "" {
		return nil, &domain.ErrValidation{Field: "customerId", Message: "required"}
	}
	if topN <= 0 {
		topN = defaultInsightTopN
	}

	key := fmt.Sprintf("insight:%s:%d", customerID, topN)
	if cached, ok := s.insightCache.Get(key); ok {
		s.metrics.IncrCacheHit("insight")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("insight")

	result, err := s.inference.CustomerInsight(ctx, customerID, topN)
	if err != nil {
		s.metrics.IncrInferenceCall("error")
		s.metrics.IncrExternalError("recsys")
		return nil, err
	}

	if result.Degraded {
		// A degraded bundle means the external call failed behind the
		// gateway's fallback.
		s.metrics.IncrInferenceCall("fallback")
		s.metrics.IncrFallback("customer_insight")
		s.metrics.IncrExternalError("recsys")
		return result, nil
	}

	s.metrics.IncrInferenceCall("success")
	s.insightCache.Set(key, result)
	return result, nil
}

// ChurnComposition returns the population risk breakdown.
func (s *InsightService) ChurnComposition(ctx context.Context) (*domain.ChurnCompositionResult, error) {
	ctx, span := tracer.Start(ctx, "InsightService.ChurnComposition")
	defer span.End()

	const key = "churn-composition"
	if cached, ok := s.compCache.Get(key); ok {
		s.metrics.IncrCacheHit("composition")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("composition")

	result, err := s.inference.ChurnComposition(ctx)
	if err != nil {
		s.metrics.IncrInferenceCall("error")
		s.metrics.IncrExternalError("recsys")
		return nil, err
	}

	if result.Degraded {
		s.metrics.IncrInferenceCall("fallback")
		s.metrics.IncrFallback("churn_composition")
		s.metrics.IncrExternalError("recsys")
		return result, nil
	}

	s.metrics.IncrInferenceCall("success")
	s.compCache.Set(key, result)
	return result, nil
}

// Overview proxies the analytics overview document. A failure yields a null
// document, which the UI treats as "analytics unavailable".
func (s *InsightService) Overview(ctx context.Context) json.RawMessage {
	ctx, span := tracer.Start(ctx, "InsightService.Overview")
	defer span.End()

	raw, err := s.inference.Overview(ctx)
	if err != nil {
		s.logger.Warn("analytics overview unavailable", zap.Error(err))
		s.metrics.IncrInferenceCall("error")
		s.metrics.IncrExternalError("recsys")
		return json.RawMessage("null")
	}
	s.metrics.IncrInferenceCall("success")
	return raw
}

// InferenceSnapshot reports the gateway's call statistics.
func (s *InsightService) InferenceSnapshot() *domain.InferenceMetrics {
	return s.metrics.GetInferenceSnapshot()
}
