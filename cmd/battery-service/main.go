// Command battery-service serves the VPP battery API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vpp-platform/battery-service/api"
	"github.com/vpp-platform/battery-service/internal/audit"
	"github.com/vpp-platform/battery-service/internal/config"
	"github.com/vpp-platform/battery-service/internal/events"
	"github.com/vpp-platform/battery-service/internal/server"
	"github.com/vpp-platform/battery-service/internal/store"
	"github.com/vpp-platform/battery-service/internal/telemetry"
)

const serviceName = "vpp-battery-service"

// Set at build time via -ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.DevMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		log.Logger = zerolog.New(os.Stderr).With().
			Timestamp().
			Str("service", serviceName).
			Str("version", version).
			Logger()
	}

	logger := log.With().Str("component", "main").Logger()
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Msg("starting " + serviceName)

	if cfg.DevMode {
		logger.Warn().Msg("DEV MODE ENABLED: authentication is bypassed, do not use in production")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTLPEndpoint,
		Enabled:        cfg.TracesEnabled,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise tracing")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shut down tracing")
		}
	}()

	db, err := store.Open(ctx, store.PoolConfig{
		DSN:             cfg.DBDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	logger.Info().Msg("connected to PostgreSQL")

	result, err := store.RunMigrations(ctx, db)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
	}
	logger.Info().Uint("version", result.Version).Bool("dirty", result.Dirty).Msg("database migration complete")

	st := store.NewPostgresStore(db)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.EventsEnabled() {
		natsPublisher, err := events.NewPublisher(events.Config{
			URL:    cfg.NATSURL,
			Name:   serviceName,
			Stream: events.DefaultStream(cfg.NATSStream),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialise event publisher")
		}
		publisher = natsPublisher
		logger.Info().Str("stream", cfg.NATSStream).Msg("publishing battery events to NATS")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	metrics, err := telemetry.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register metrics")
	}

	srv := server.New(st, cfg, version, commit, buildDate,
		server.WithOpenAPISpec(api.OpenAPISpec),
		server.WithMetrics(metrics),
		server.WithPublisher(publisher),
		server.WithAuditLogger(audit.NewLogger(log.Logger)),
	)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("HTTP server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	logger.Info().Msg("server stopped gracefully")
}
