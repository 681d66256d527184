package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/config"
	dbRedis "github.com/kailas-cloud/crosslink/internal/db/redis"
	"github.com/kailas-cloud/crosslink/internal/domain"
	logpkg "github.com/kailas-cloud/crosslink/internal/logger"
	"github.com/kailas-cloud/crosslink/internal/metrics"
	"github.com/kailas-cloud/crosslink/internal/repository/vector"
	"github.com/kailas-cloud/crosslink/internal/schema"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
	chiTransport "github.com/kailas-cloud/crosslink/internal/transport/chi"
	"github.com/kailas-cloud/crosslink/internal/transport/cohere"
	openaiEmb "github.com/kailas-cloud/crosslink/internal/transport/openai"
	searchuc "github.com/kailas-cloud/crosslink/internal/usecase/search"
	"github.com/kailas-cloud/crosslink/internal/version"
)

func main() {
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

	logger.Info("Starting crosslink API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.Register()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	// Pass nil interface (not typed nil pointer) when no reranker is
	// configured; reranking requests then fail with a rerank error.
	var reranker searchuc.Reranker
	if cfg.Rerank.APIKey != "" {
		reranker = cohere.NewReranker(&cohere.Config{
			APIKey:  cfg.Rerank.APIKey,
			BaseURL: cfg.Rerank.BaseURL,
			Model:   cfg.Rerank.Model,
			Timeout: time.Duration(cfg.Rerank.TimeoutSec) * time.Second,
			Logger:  logger,
		})
	}

	controls := schema.NewControlSchema()
	repo := vector.New(store, cfg.Storage.KeyPrefix+"corpus:", []string{
		schema.FieldControlID,
		schema.FieldFramework,
		schema.FieldTitle,
		schema.FieldText,
		schema.FieldNormalizedText,
	})

	cfgStore := searchcfg.NewStore(cfg.Search.SavedConfigPath, cfg.Search.DefaultConfigPath, logger)
	if _, err := cfgStore.Load(); err != nil {
		logger.Fatal("Failed to load search config", zap.Error(err))
	}

	pool, err := ants.NewPool(cfg.Search.ScoringPoolSize)
	if err != nil {
		logger.Fatal("Failed to create scoring pool", zap.Error(err))
	}
	defer pool.Release()

	stats := domain.NewSearchStats()
	searchSvc := searchuc.New(embedder, repo, reranker, controls, cfgStore, stats, pool, logger)

	checks := map[string]chiTransport.HealthChecker{
		"database":  pingChecker{store},
		"embedding": embedder,
	}

	server := chiTransport.NewServer(searchSvc, cfgStore, stats, checks, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
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

// pingChecker adapts the database Ping to the health probe contract.
type pingChecker struct {
	store *dbRedis.Store
}

func (p pingChecker) HealthCheck(ctx context.Context) error {
	return p.store.Ping(ctx)
}
