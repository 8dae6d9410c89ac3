package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"ratings/database"
	"ratings/internal/config"
	"ratings/internal/display"
	"ratings/internal/logging"
	"ratings/internal/metrics"
	httpapi "ratings/internal/microservices/http-api"
	"ratings/internal/microservices/http-api/handler"
	"ratings/internal/microservices/http-api/middleware"
	"ratings/internal/microservices/http-api/repository"
	"ratings/internal/microservices/http-api/service"
	"ratings/internal/permission"
	"ratings/internal/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Setup structured logging
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger := logging.New(os.Stdout, level, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_error", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, err := service.ParseDuplicatePolicy(cfg.SecLevel)
	if err != nil {
		return err
	}
	style, err := display.ParseStyle(cfg.DefaultStyle)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	if err := database.Migrate(db, logger); err != nil {
		return err
	}

	rules := permission.DefaultRules()
	if cfg.PermissionsFile != "" {
		if rules, err = permission.LoadRules(cfg.PermissionsFile); err != nil {
			return err
		}
	}
	checker, err := permission.NewChecker(rules)
	if err != nil {
		return err
	}

	flags, closeFlags, err := newSessionFlags(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFlags()

	var (
		registry *prometheus.Registry
		observer service.VoteObserver
	)
	if cfg.PrometheusEnabled {
		registry = metrics.NewRegistry()
		observer = metrics.NewVoteMetrics(registry)
	}

	ratings := service.NewRatingService(repository.NewRatingRepository(db), checker, observer, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := httpapi.NewRouter(httpapi.Deps{
		Ratings:     ratings,
		Tokens:      service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL),
		Permissions: checker,
		Votes: handler.VoteSettings{
			Policy:   policy,
			Sessions: session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction()),
			Flags:    flags,
		},
		DefaultStyle: style,
		VoteLimiter:  middleware.NewIPRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		Registry:     registry,
		Health: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(pingCtx)
		},
		Logger:         logger,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting_http_server", "addr", srv.Addr, "policy", policy, "metrics", cfg.PrometheusEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_stopped_gracefully")
	return nil
}

// newSessionFlags picks Redis when REDIS_URL is set and process memory otherwise.
func newSessionFlags(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Flags, func(), error) {
	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session_flags_backend", "backend", "redis")
		return session.NewRedisFlags(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
	}

	flags := session.NewMemoryFlags(cfg.SessionTTL)
	sweepCtx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := flags.Sweep(); n > 0 {
					logger.Debug("session_flags_swept", "removed", n)
				}
			}
		}
	}()
	logger.Info("session_flags_backend", "backend", "memory")
	return flags, cancel, nil
}
