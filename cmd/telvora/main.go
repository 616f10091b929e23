package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/telvora/telvora-admin-bff/internal/config"
	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/handler"
	"github.com/telvora/telvora-admin-bff/internal/infra/cache"
	"github.com/telvora/telvora-admin-bff/internal/infra/client"
	"github.com/telvora/telvora-admin-bff/internal/infra/observability"
	"github.com/telvora/telvora-admin-bff/internal/infra/resilience"
	"github.com/telvora/telvora-admin-bff/internal/infra/supabase"
	"github.com/telvora/telvora-admin-bff/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("recsys_url", cfg.RecsysURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("insight_timeout", cfg.InsightTimeout),
		zap.Duration("simulate_timeout", cfg.SimulateTimeout),
		zap.Duration("composition_timeout", cfg.CompositionTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Bool("jwt_enabled", cfg.SupabaseJWTSecret != ""),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "telvora-admin-bff")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	insightCache := cache.New[*domain.InsightResult](cfg.CacheTTL)
	compositionCache := cache.New[*domain.ChurnCompositionResult](cfg.CacheTTL)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		resilience.NewCircuitBreaker("supabase"),
		logger,
	)

	recsysClient := client.NewRecsysClient(
		httpClient,
		cfg.RecsysURL,
		client.Timeouts{
			Insight:     cfg.InsightTimeout,
			Simulate:    cfg.SimulateTimeout,
			Composition: cfg.CompositionTimeout,
		},
		resilience.NewCircuitBreaker("recsys"),
		resilience.NewBulkhead(cfg.MaxConcurrency),
		logger,
	)

	// --- Services ---
	customerSvc := service.NewCustomerService(supabaseClient, logger)
	productSvc := service.NewProductService(supabaseClient, logger)
	simulationSvc := service.NewSimulationService(supabaseClient, recsysClient, logger)
	insightSvc := service.NewInsightService(recsysClient, insightCache, compositionCache, metrics, logger)
	dashboardSvc := service.NewDashboardService(customerSvc, productSvc, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Customers:   customerSvc,
		Products:    productSvc,
		Simulations: simulationSvc,
		Insights:    insightSvc,
		Dashboard:   dashboardSvc,
		Metrics:     metrics,
		Probe:       supabaseClient,
	}, handler.Options{
		CORSOrigins: cfg.CORSOrigins,
		JWTSecret:   cfg.SupabaseJWTSecret,
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
