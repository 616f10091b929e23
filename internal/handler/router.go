// Package handler wires the HTTP surface consumed by the Telvora admin UI.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/infra/observability"
	"github.com/telvora/telvora-admin-bff/internal/port"
	"github.com/telvora/telvora-admin-bff/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups everything the router serves.
type Services struct {
	Customers   *service.CustomerService
	Products    *service.ProductService
	Simulations *service.SimulationService
	Insights    *service.InsightService
	Dashboard   *service.DashboardService
	Metrics     *observability.Metrics

	// Probe is used by the health endpoint to check storage reachability.
	Probe port.CustomerStore
}

// Options carries the router's environment-dependent settings.
type Options struct {
	CORSOrigins []string
	// JWTSecret enables bearer-token verification on /v1 when non-empty.
	JWTSecret string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, opts Options, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(svcs.Metrics.Middleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Probe, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(svcs.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(JWTAuthMiddleware(opts.JWTSecret, logger))
		}

		// =============================================
		// Dashboard
		// =============================================
		r.Get("/dashboard/stats", dashboardStatsHandler(svcs.Dashboard, logger))

		// =============================================
		// Customers
		// =============================================
		r.Get("/customers", listCustomersHandler(svcs.Customers, logger))
		r.Post("/customers", createCustomerHandler(svcs.Customers, logger))
		r.Get("/customers/{customerId}", getCustomerHandler(svcs.Customers, logger))
		r.Put("/customers/{customerId}", updateCustomerHandler(svcs.Customers, logger))
		r.Delete("/customers/{customerId}", deleteCustomerHandler(svcs.Customers, logger))
		r.Get("/customers/{customerId}/insights", customerInsightsHandler(svcs.Insights, logger))

		// =============================================
		// Products
		// =============================================
		r.Get("/products", listProductsHandler(svcs.Products, logger))
		r.Post("/products", createProductHandler(svcs.Products, logger))
		r.Get("/products/{productId}", getProductHandler(svcs.Products, logger))
		r.Put("/products/{productId}", updateProductHandler(svcs.Products, logger))
		r.Delete("/products/{productId}", deleteProductHandler(svcs.Products, logger))

		// =============================================
		// Product Lab simulations
		// =============================================
		r.Post("/simulations/run", runSimulationHandler(svcs.Simulations, logger))
		r.Post("/simulations", saveSimulationHandler(svcs.Simulations, logger))
		r.Get("/simulations", listSimulationsHandler(svcs.Simulations, logger))
		r.Delete("/simulations/{simulationId}", deleteSimulationHandler(svcs.Simulations, logger))

		// =============================================
		// Analytics & inference metrics
		// =============================================
		r.Get("/analytics/churn-composition", churnCompositionHandler(svcs.Insights, logger))
		r.Get("/analytics/overview", analyticsOverviewHandler(svcs.Insights, logger))
		r.Get("/metrics/inference", inferenceMetricsHandler(svcs.Insights))
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(probe port.CustomerStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "telvora-admin-bff", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if probe != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			start := time.Now()
			_, err := probe.CountCustomers(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				logger.Warn("healthz: storage probe failed", zap.Error(err))
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
