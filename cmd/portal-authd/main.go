package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	portalauth "github.com/exagonbr/portal-auth"
	"github.com/exagonbr/portal-auth/httpapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg, err := newConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.Level(cfg.LogLevel),
	}))

	provider, err := loadUserProvider(cfg.UsersFile)
	if err != nil {
		logger.Error("failed to load users", "error", err)
		os.Exit(1)
	}

	// The Redis client belongs to the process, not the engine: connect
	// here, close on shutdown.
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = client.Close() }()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := client.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Error("redis unreachable", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}
	cancel()

	engineCfg, err := buildEngineConfig(cfg)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	builder := portalauth.New().
		WithConfig(engineCfg).
		WithRedis(client).
		WithUserProvider(provider).
		WithMetricsEnabled(cfg.MetricsEnabled).
		WithLatencyHistograms(cfg.MetricsEnabled)
	if cfg.AuditEnabled {
		builder = builder.WithAuditSink(portalauth.NewSlogSink(logger))
	}
	engine, err := builder.Build()
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	api, err := httpapi.New(httpapi.Config{
		Engine:         engine,
		ProductionMode: cfg.Production,
		AllowedOrigins: cfg.AllowedOrigins,
		CookieTTL:      cfg.JWT.RefreshTTL,
	})
	if err != nil {
		logger.Error("failed to build http api", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Addr, "production", cfg.Production)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}

func buildEngineConfig(cfg *config) (portalauth.Config, error) {
	engineCfg := portalauth.DefaultConfig()
	engineCfg.JWT.SigningMethod = cfg.JWT.SigningMethod
	engineCfg.JWT.Issuer = cfg.JWT.Issuer
	engineCfg.JWT.AccessTTL = cfg.JWT.AccessTTL
	engineCfg.JWT.RefreshTTL = cfg.JWT.RefreshTTL
	engineCfg.Session.RedisPrefix = cfg.Redis.Prefix
	engineCfg.Session.AbsoluteSessionLifetime = cfg.SessionLifetime
	engineCfg.Security.ProductionMode = cfg.Production
	engineCfg.Audit.Enabled = cfg.AuditEnabled
	engineCfg.Metrics.Enabled = cfg.MetricsEnabled
	engineCfg.Metrics.EnableLatencyHistograms = cfg.MetricsEnabled

	switch cfg.JWT.SigningMethod {
	case "hs256":
		if cfg.JWT.Secret == "" {
			return portalauth.Config{}, errors.New("JWT_SECRET is required for hs256")
		}
		engineCfg.JWT.PrivateKey = []byte(cfg.JWT.Secret)
	case "ed25519":
		priv, err := os.ReadFile(cfg.JWT.PrivateKeyFile)
		if err != nil {
			return portalauth.Config{}, err
		}
		pub, err := os.ReadFile(cfg.JWT.PublicKeyFile)
		if err != nil {
			return portalauth.Config{}, err
		}
		engineCfg.JWT.PrivateKey = priv
		engineCfg.JWT.PublicKey = pub
	default:
		return portalauth.Config{}, errors.New("JWT_SIGNING_METHOD must be hs256 or ed25519")
	}

	return engineCfg, nil
}
