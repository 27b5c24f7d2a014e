package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pwasut/harnkan/internal/config"
	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/handler"
	"github.com/pwasut/harnkan/internal/infra/cache"
	"github.com/pwasut/harnkan/internal/infra/client"
	"github.com/pwasut/harnkan/internal/infra/firestore"
	"github.com/pwasut/harnkan/internal/infra/observability"
	"github.com/pwasut/harnkan/internal/infra/resilience"
	"github.com/pwasut/harnkan/internal/infra/sqlite"
	"github.com/pwasut/harnkan/internal/port"
	"github.com/pwasut/harnkan/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_firestore", cfg.UseFirestore),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("share_default_ttl", cfg.ShareDefaultTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "harnkan")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	statsCache := cache.New[*domain.StatisticsRollup](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Stores ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var billStore port.BillStore
	var shareStore port.ShareStore

	if cfg.UseFirestore && cfg.FirestoreProjectID != "" {
		logger.Info("using Firestore as data backend",
			zap.String("project_id", cfg.FirestoreProjectID),
		)
		fsClient := firestore.NewClient(
			httpClient,
			cfg.FirestoreBaseURL,
			cfg.FirestoreProjectID,
			cfg.FirestoreAPIKey,
			resilience.NewCircuitBreaker("firestore"),
			resilienceCfg,
			logger,
		)
		billStore = fsClient
		shareStore = fsClient
	} else {
		logger.Info("using embedded SQLite as data backend",
			zap.String("path", cfg.SQLitePath),
		)
		store, err := sqlite.New(cfg.SQLitePath, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer store.Close()
		billStore = store
		shareStore = store
	}

	agentClient := client.NewAgentClient(httpClient, cfg.AgentAPIURL, resilience.NewCircuitBreaker("agent"), resilienceCfg)

	// --- Services ---
	billSvc := service.NewBillService(billStore, statsCache, metrics, logger)
	statsSvc := service.NewStatsService(billStore, statsCache, metrics, logger)
	shareSvc := service.NewShareService(billStore, shareStore, metrics, logger, cfg.ShareSecret, cfg.ShareDefaultTTL)
	chatSvc := service.NewChatService(agentClient, statsSvc, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Bills:   billSvc,
		Stats:   statsSvc,
		Share:   shareSvc,
		Chat:    chatSvc,
		Metrics: metrics,
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
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
