// Package main is the entry point for the feature flag service.
//
// The bootstrap sequence is:
//  1. Load configuration from environment variables.
//  2. Connect to PostgreSQL via pgxpool and apply embedded migrations.
//  3. Wire the repository, service, readiness checker, and metrics.
//  4. Serve HTTP until SIGINT/SIGTERM, then shut down gracefully.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/matt-riley/switchboard/internal/config"
	"github.com/matt-riley/switchboard/internal/health"
	"github.com/matt-riley/switchboard/internal/logging"
	"github.com/matt-riley/switchboard/internal/metrics"
	"github.com/matt-riley/switchboard/internal/middleware"
	"github.com/matt-riley/switchboard/internal/repository"
	"github.com/matt-riley/switchboard/internal/server"
	"github.com/matt-riley/switchboard/internal/service"
	"github.com/matt-riley/switchboard/internal/tracing"
)

const serviceName = "flagsvc"

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(serviceName, cfg.LogLevel)
	slog.SetDefault(log)

	shutdownTracer, err := tracing.Init(context.Background(), serviceName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := runMigrations(ctx, pool); err != nil {
			return err
		}
	}

	m := metrics.New()
	metrics.RegisterPoolMetrics(m.Registry, pool)

	repo := repository.NewPostgresRepository(pool)
	svc, err := service.New(repo,
		service.WithLogger(log),
		service.WithOperationObserver(m.RecordFlagOperation),
	)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}

	readiness := health.NewChecker(
		[]health.Probe{health.DatabaseProbe(repo)},
		health.WithTimeout(cfg.ProbeTimeout),
		health.WithObserver(m.ObserveDependency),
		health.WithLogger(log),
	)

	apiHandler := server.NewHTTPHandler(svc,
		server.WithMaxJSONBodySize(cfg.MaxJSONBodySize),
		server.WithReadiness(readiness),
		server.WithMetrics(m),
	)
	httpServer := server.NewHTTPServer(cfg.HTTPAddr, newHTTPHandler(apiHandler, log))

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen HTTP %s: %w", cfg.HTTPAddr, err)
	}
	defer listener.Close()

	return server.Serve(ctx, log, httpServer, listener)
}

// newHTTPHandler applies the outer middleware: tracing, then request
// logging, then panic recovery closest to the API.
func newHTTPHandler(apiHandler http.Handler, log *slog.Logger) http.Handler {
	handler := middleware.Recover(log)(apiHandler)
	handler = middleware.HTTPRequestLogging(log)(handler)
	return otelhttp.NewHandler(handler, serviceName+"-http")
}
