package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api/middleware"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/config"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/crypto"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/handlers"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/metrics"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/store"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/view"
)

// viewTTL bounds how long a remembered page slot survives without a refresh.
const viewTTL = 24 * time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// User accounts
	var users store.UserStore
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")

		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		users = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		users = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite user store")
	}
	defer users.Close()

	// Sessions, notices and page slots
	var (
		redisStore *store.RedisStore
		sessions   store.SessionStore
		views      view.Store
		limiter    *middleware.RateLimiter
	)
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")

		sessions = redisStore
		views = redisStore
		limiter = middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
	} else {
		memViews := view.NewMemoryStore(viewTTL)
		sessions = store.NewMemorySessionStore()
		views = memViews
		logger.Warn().Msg("REDIS_URL not set: sessions are in memory and rate limiting is off")

		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				memViews.Sweep()
			}
		}()
	}

	signer, err := crypto.NewSigner(cfg.SessionSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("session signer failed")
	}

	backend := chatbase.NewClient(cfg.APIBaseURL, chatbase.WithHTTPClient(&http.Client{
		Transport: metrics.InstrumentTransport(nil),
		Timeout:   cfg.BackendTimeout,
	}))

	h, err := handlers.NewHandler(handlers.Deps{
		Config:   cfg,
		Backend:  backend,
		Users:    users,
		Sessions: sessions,
		Views:    views,
		Signer:   signer,
		Redis:    redisStore,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("handler setup failed")
	}
	auth := middleware.NewAuthMiddleware(signer, sessions, users, http.HandlerFunc(h.SignInSurface))

	// Create router
	router := api.NewRouter(logger, cfg, h, auth, limiter)

	// Create server. Pages wait on the backend, so writes get more room
	// than reads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("backend", cfg.APIBaseURL).
			Msg("starting dashboard server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
