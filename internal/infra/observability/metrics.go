package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/telvora/telvora-admin-bff/internal/domain"
)

// Metrics holds all Prometheus metrics for the BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	inferenceCalls  *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telvora_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telvora_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telvora_fallbacks_total",
				Help: "Total canned fallback payloads substituted for inference failures.",
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telvora_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telvora_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		inferenceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telvora_inference_requests_total",
				Help: "Total inference service calls by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Middleware records request durations against the routed pattern, so
// /v1/customers/{customerId} is one series rather than one per customer.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			operation := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				operation = rctx.RoutePattern()
			}
			m.RecordRequestDuration(r.Method+" "+operation, time.Since(start))
		})
	}
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrFallback increments the fallback substitution counter.
func (m *Metrics) IncrFallback(operation string) {
	m.fallbacks.WithLabelValues(operation).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrInferenceCall increments the inference call counter.
// Outcome is one of "success", "fallback", "error".
func (m *Metrics) IncrInferenceCall(outcome string) {
	m.inferenceCalls.WithLabelValues(outcome).Inc()
}

// GetInferenceSnapshot returns a snapshot of inference-related metrics
// suitable for the GET /v1/metrics/inference endpoint.
func (m *Metrics) GetInferenceSnapshot() *domain.InferenceMetrics {
	success := getCounterValue(m.inferenceCalls, "success")
	fallback := getCounterValue(m.inferenceCalls, "fallback")
	failed := getCounterValue(m.inferenceCalls, "error")
	total := success + fallback + failed

	cacheHits := getCounterValue(m.cacheHits, "insight")
	cacheMisses := getCounterValue(m.cacheMisses, "insight")

	errorRate := float64(0)
	fallbackRate := float64(0)
	cacheHitRate := float64(0)
	if total > 0 {
		errorRate = failed / total
		fallbackRate = fallback / total
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.InferenceMetrics{
		TotalRequests: int64(total),
		ErrorRate:     errorRate,
		FallbackRate:  fallbackRate,
		CacheHitRate:  cacheHitRate,
		Period:        "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
