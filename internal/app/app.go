package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zotapay/deposit-gateway/internal/api"
	"github.com/zotapay/deposit-gateway/internal/api/middleware"
	"github.com/zotapay/deposit-gateway/internal/config"
	"github.com/zotapay/deposit-gateway/internal/db"
	"github.com/zotapay/deposit-gateway/internal/idempotency"
	"github.com/zotapay/deposit-gateway/internal/merchant"
	"github.com/zotapay/deposit-gateway/internal/observability"
	"github.com/zotapay/deposit-gateway/internal/repository"
	"github.com/zotapay/deposit-gateway/internal/service"
	"github.com/zotapay/deposit-gateway/internal/worker"
	"github.com/zotapay/deposit-gateway/internal/zota"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and sweep worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	repo := repository.NewRepository(pool)
	idemStore := idempotency.NewStore(redisClient, pool, cfg.IdempotencyTTL)

	provider := merchant.NewProvider(merchant.Credentials{
		Mode:       cfg.Mode,
		MerchantID: cfg.ActiveMerchantID(),
		SecretKey:  cfg.ActiveMerchantSecretKey(),
		Endpoints:  cfg.ActiveEndpoints(),
		StoreURL:   cfg.PublicBaseURL,
	}, repo)

	merchantCfg, err := provider.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve merchant configuration: %w", err)
	}

	gateway := zota.NewClient(merchantCfg.APIBase, merchantCfg.MerchantID, merchantCfg.SecretKey, cfg.GatewayTimeout)

	depositSvc := service.NewDepositService(repo, gateway, provider, cfg.PublicBaseURL, cfg.ExpirationWindow)
	reconcileSvc := service.NewReconcileService(repo, gateway, provider)

	sweepWorker := worker.NewSweepWorker(reconcileSvc).
		WithInterval(cfg.SweepInterval).
		WithBatchSize(cfg.SweepBatchSize)

	stopWorker := sweepWorker.Run(ctx)
	logger.Info("sweep worker started", zap.Duration("interval", cfg.SweepInterval), zap.Int32("batch", cfg.SweepBatchSize))

	router := api.NewRouter(cfg, logger, pool, redisClient, idemStore, repo, depositSvc, reconcileSvc)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("mode", cfg.Mode),
		)
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping sweep worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
