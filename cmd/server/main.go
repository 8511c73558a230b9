package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/notifly/backend/internal/ackstore"
	"github.com/notifly/backend/internal/broker"
	"github.com/notifly/backend/internal/config"
	"github.com/notifly/backend/internal/database"
	"github.com/notifly/backend/internal/dlq"
	"github.com/notifly/backend/internal/hub"
	"github.com/notifly/backend/internal/logging"
	"github.com/notifly/backend/internal/registry"
	"github.com/notifly/backend/internal/router"
	"github.com/notifly/backend/internal/sessions"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	// Initialize structured logging (reads LOGGING_LEVEL env var)
	logging.Initialize()

	// Load configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect the broker; an empty REDIS_URL selects the in-memory broker
	// for single-instance dev runs.
	var b broker.Broker
	if cfg.RedisURL != "" {
		rb, err := broker.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		b = rb
	} else {
		slog.Warn("REDIS_URL not set, using in-memory broker")
		b = broker.NewMemory()
	}
	defer b.Close()

	// Ack database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	acks := ackstore.New(db)

	// Delivery core
	h := hub.New()
	reg := registry.New(b, h)
	manager := sessions.NewManager(h, reg, acks)

	// Dead-letter retry loop, stopped by the same signal context
	loop := dlq.NewLoop(b, cfg.DLQRetryInterval)
	go loop.Run(ctx)

	// HTTP server. WriteTimeout stays zero: SSE streams are long-lived.
	r := router.New(cfg, b, manager, acks)
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", slog.Any("error", err))
	}
	slog.Info("server stopped")
}
