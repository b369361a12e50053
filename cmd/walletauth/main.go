package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/walletauth/adapters/clock"
	"github.com/layer-3/walletauth/adapters/events"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/adapters/verifier"
	"github.com/layer-3/walletauth/internal/config"
	"github.com/layer-3/walletauth/internal/slogx"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
	authhttp "github.com/layer-3/walletauth/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slogx.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sysClock := clock.System()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	var challengeStore ports.ChallengeStore
	if redisClient != nil {
		challengeStore = store.NewRedisStore(redisClient)
		logger.Info("using redis challenge store")
	} else {
		memStore := store.NewMemoryStore(sysClock)
		go memStore.RunJanitor(ctx, cfg.JanitorInterval)
		challengeStore = memStore
		logger.Warn("REDIS_URL not set, challenges are kept in memory")
	}

	eventPub, closeEvents, err := newEventPublisher(cfg, redisClient, sysClock, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	tk, err := tokenizer.NewJWTTokenizer(tokenizer.Config{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		KeyID:      cfg.JWTKeyID,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, sysClock)
	if err != nil {
		return fmt.Errorf("create tokenizer: %w", err)
	}

	authService := service.NewAuthService(service.Config{
		Challenge: service.ChallengeConfig{
			Domain:    cfg.Domain,
			URI:       cfg.URI,
			Statement: cfg.Statement,
			ChainID:   cfg.ChainID,
			TTL:       cfg.ChallengeTTL,
		},
		StoreTimeout: cfg.StoreTimeout,
	}, tk, challengeStore, verifier.NewEthVerifier(), eventPub, sysClock, logger)

	router := authhttp.SetupRouter(authService, authhttp.Options{
		Cookies: authhttp.CookieConfig{
			AccessName:  cfg.AccessCookieName,
			RefreshName: cfg.RefreshCookieName,
			Domain:      cfg.CookieDomain,
			Secure:      cfg.CookieSecure,
			SameSite:    cfg.SameSite(),
			MaxAge:      cfg.RefreshTokenTTL,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		RateLimit: authhttp.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		Metrics: authhttp.NewMetrics(),
		Logger:  logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("walletauth stopped")
	return nil
}

// newEventPublisher returns a Redis Streams publisher when events are enabled
// and Redis is configured, otherwise a publisher that drops everything
func newEventPublisher(cfg *config.Config, client *redis.Client, clk ports.Clock, logger *slog.Logger) (ports.EventPublisher, func(), error) {
	noop := func() {}

	if !cfg.EventsEnabled {
		return events.NopPublisher{}, noop, nil
	}
	if client == nil {
		logger.Warn("EVENTS_ENABLED requires REDIS_URL, session events are disabled")
		return events.NopPublisher{}, noop, nil
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, noop, fmt.Errorf("create redis publisher: %w", err)
	}

	closeFn := func() {
		if err := publisher.Close(); err != nil {
			logger.Error("event publisher close error", "error", err)
		}
	}
	return events.NewWatermillPublisher(publisher, clk), closeFn, nil
}
