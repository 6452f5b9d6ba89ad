package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/config"
	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/handler"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/broker"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/cache"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/client"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/idempotency"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/observability"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/resilience"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/sqlstore"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/supabase"
	"github.com/fluxiabiz/fluxiabiz-api/internal/port"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

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
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.String("database_driver", cfg.DatabaseDriver),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cart_ttl", cfg.CartTTL),
		zap.Duration("idempotency_ttl", cfg.IdempotencyTTL),
		zap.String("default_tax_percent", cfg.DefaultTaxPercent.String()),
		zap.Bool("dev_auth", cfg.DevAuth),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, observability.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// --- Store ---
	var store port.Store
	var functions port.MembershipFunctions
	var health []handler.HealthCheck

	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		sb := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			logger,
		)
		store = sb
		functions = supabase.NewFunctions(sb)
		health = append(health, handler.HealthCheck{Name: "supabase", Ping: sb.Ping})
	} else {
		db, err := sqlstore.Open(startCtx, cfg.DatabaseDriver, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("failed to open database", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
		}
		defer db.Close()
		logger.Warn("Supabase not configured, using SQL store; membership workflows unavailable",
			zap.String("driver", cfg.DatabaseDriver))
		store = db
		health = append(health, handler.HealthCheck{Name: cfg.DatabaseDriver, Ping: db.Ping})
	}

	// --- Idempotency keys ---
	var idem port.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb, err := idempotency.NewRedis(startCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		idem = rdb
		health = append(health, handler.HealthCheck{Name: "redis", Ping: rdb.Ping})
	} else {
		mem := idempotency.NewMemory(cfg.IdempotencyTTL)
		defer mem.Close()
		idem = mem
	}

	// --- Sale events ---
	var events port.EventPublisher = broker.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := broker.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicSales, logger)
		defer producer.Close()
		events = producer
		logger.Info("publishing sale events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopicSales))
	}

	// --- Cache ---
	carts := cache.New[*domain.Cart](cfg.CartTTL)
	defer carts.Close()
	summaries := cache.New[*domain.DashboardSummary](cfg.CacheTTL)
	defer summaries.Close()

	// --- Clients ---
	agentClient := client.NewAgentClient(httpClient, cfg.AgentAPIURL, resilience.NewCircuitBreaker("agent"), resilienceCfg)

	// --- Services ---
	dashboardSvc := service.NewDashboardService(store, summaries, cfg.LowStockThreshold, metrics, logger)
	services := &handler.Services{
		Tokens:  service.NewTokenVerifier(cfg.SupabaseJWTSecret, cfg.DevTokenTTL),
		Guard:   service.NewTenantGuard(store, metrics, logger),
		Catalog: service.NewCatalogService(store, logger),
		Company: service.NewCompanyService(store, functions, logger),
		POS: service.NewPOSService(store, idem, events, carts, service.POSConfig{
			DefaultTaxPercent: cfg.DefaultTaxPercent,
			IdempotencyTTL:    cfg.IdempotencyTTL,
		}, metrics, logger),
		Dashboard:          dashboardSvc,
		Assistant:          service.NewAssistant(dashboardSvc, agentClient, metrics, logger),
		Health:             health,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		DevAuth:            cfg.DevAuth,
	}
	if cfg.DevAuth {
		logger.Warn("dev auth enabled: POST /v1/dev/token issues tokens without a password")
	}

	// --- Router ---
	router := handler.NewRouter(services, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
