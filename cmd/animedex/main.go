package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/bootstrap"
	"github.com/kailas-cloud/animedex/internal/config"
	"github.com/kailas-cloud/animedex/internal/corpus"
	logpkg "github.com/kailas-cloud/animedex/internal/logger"
	"github.com/kailas-cloud/animedex/internal/metrics"
	"github.com/kailas-cloud/animedex/internal/repository/snapshot"
	chiTransport "github.com/kailas-cloud/animedex/internal/transport/chi"
	"github.com/kailas-cloud/animedex/internal/usecase/discover"
	healthuc "github.com/kailas-cloud/animedex/internal/usecase/health"
	"github.com/kailas-cloud/animedex/internal/usecase/ingest"
	"github.com/kailas-cloud/animedex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting animedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_source", cfg.Catalog.Source),
	)

	metrics.RegisterDiscoveryMetrics()

	ctx := context.Background()
	cat, err := bootstrap.OpenCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer func() { _ = cat.Close() }()

	holder := corpus.NewHolder()

	var ingestOpts []ingest.Option
	if cfg.Catalog.Snapshot.Save {
		model, err := snapshot.Open(cfg.Catalog.Snapshot.Path)
		if err != nil {
			logger.Fatal("Failed to open model file", zap.Error(err))
		}
		defer func() { _ = model.Close() }()
		ingestOpts = append(ingestOpts, ingest.WithSnapshotWriter(model))
	}
	ingestSvc := ingest.New(cat.Source, holder, bootstrap.BuildOptions(&cfg, cat), logger, ingestOpts...)

	// The server starts even when the first load fails; /health reports 503 until a reload succeeds.
	if _, err := ingestSvc.Reload(ctx); err != nil {
		logger.Error("Initial corpus load failed", zap.Error(err))
	}

	discoverSvc, err := discover.New(holder, discover.WithQueryCache(cfg.Discover.QueryCacheSize))
	if err != nil {
		logger.Fatal("Failed to create discovery service", zap.Error(err))
	}
	healthSvc := healthuc.New(holder, cat.Pinger)

	if len(cfg.Auth.APIKeys) == 0 {
		logger.Info("No admin API keys configured, /admin routes disabled")
	}

	server := chiTransport.NewServer(discoverSvc, healthSvc, ingestSvc, logger)
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		RateLimitRequests: cfg.RateLimit.Requests,
		RateLimitWindow:   time.Duration(cfg.RateLimit.WindowSec) * time.Second,
		APIKeys:           cfg.Auth.APIKeys,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
