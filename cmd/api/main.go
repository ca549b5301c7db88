// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Portaria HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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

	"github.com/gestaocondominio/portaria/internal/api"
	"github.com/gestaocondominio/portaria/internal/authorization"
	"github.com/gestaocondominio/portaria/internal/document"
	"github.com/gestaocondominio/portaria/internal/event"
	"github.com/gestaocondominio/portaria/internal/messaging"
	"github.com/gestaocondominio/portaria/internal/platform/clock"
	"github.com/gestaocondominio/portaria/internal/platform/config"
	"github.com/gestaocondominio/portaria/internal/platform/constants"
	"github.com/gestaocondominio/portaria/internal/platform/migration"
	pgstore "github.com/gestaocondominio/portaria/internal/platform/postgres"
	redisstore "github.com/gestaocondominio/portaria/internal/platform/redis"
	"github.com/gestaocondominio/portaria/internal/platform/sec"
	"github.com/gestaocondominio/portaria/internal/receipt"
	"github.com/gestaocondominio/portaria/internal/shorturl"
	"github.com/gestaocondominio/portaria/internal/unit"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Portaria] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// A local .env is a development convenience; absence is not an error.
	if err := godotenv.Load(); err == nil {
		log.Info("dotenv_loaded")
	}

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("timezone", cfg.TimeZone),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Platform Services ──────────────────────────────────────────────
	calendar, err := clock.NewCalendar(clock.System(), cfg.TimeZone)
	must(log, err, "load condominium timezone")

	qrService, err := sec.NewQRTokenService(cfg.QRSigningSecret, constants.QRIssuer)
	must(log, err, "initialize qr signing service")

	publisher := event.NewPublisher(cfg.AMQPURL, log)
	defer publisher.Close()
	if publisher.Enabled() {
		log.Info("event_publisher_enabled", slog.String("queue", event.QueueName))
	}

	whatsapp := messaging.NewClient(cfg.MessagingBaseURL, cfg.MessagingInstance, cfg.MessagingAPIKey)
	if whatsapp.Enabled() {
		log.Info("messaging_gateway_enabled", slog.String("instance", cfg.MessagingInstance))
	}

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	documentRepository := document.NewPostgresRepository(pool)
	documentService := document.NewService(documentRepository, calendar, cfg.DocumentDir)
	documentHandler := document.NewHandler(documentService)

	authorizationRepository := authorization.NewPostgresRepository(pool)
	authorizationService := authorization.NewService(
		authorizationRepository, documentService, qrService, publisher, calendar)
	authorizationHandler := authorization.NewHandler(authorizationService)

	receiptRepository := receipt.NewPostgresRepository(pool)
	receiptService := receipt.NewService(
		receiptRepository, authorizationRepository, whatsapp, calendar, cfg.ReceiptDir, cfg.PublicBaseURL)
	receiptHandler := receipt.NewHandler(receiptService)

	unitDirectory := unit.NewDirectory(cfg.UnitDirectoryPath)
	unitService := unit.NewService(unitDirectory, rdb)
	unitHandler := unit.NewHandler(unitService)

	shortURLRepository := shorturl.NewPostgresRepository(pool)
	shortURLService := shorturl.NewService(shortURLRepository, calendar)
	shortURLHandler := shorturl.NewHandler(shortURLService, cfg.FormBaseURL)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:      liveness,
		Readiness:     readiness,
		Authorization: authorizationHandler,
		Document:      documentHandler,
		Receipt:       receiptHandler,
		Unit:          unitHandler,
		ShortURL:      shortURLHandler,
	}

	server := api.NewServer(context.Background(), cfg, log, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
