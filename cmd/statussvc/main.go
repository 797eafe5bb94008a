// Package main is the entry point for the status aggregator service.
//
// It probes PostgreSQL and an S3-compatible object store and reports their
// reachability on /status and /ready. It never writes to either dependency.
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
	"github.com/matt-riley/switchboard/internal/server"
	"github.com/matt-riley/switchboard/internal/storage"
	"github.com/matt-riley/switchboard/internal/tracing"
)

const serviceName = "statussvc"

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadStatus()
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

	// pgxpool connects lazily, so an unreachable database surfaces through
	// the probe rather than failing startup.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	store, err := storage.New(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("init object storage client: %w", err)
	}

	m := metrics.New()
	metrics.RegisterPoolMetrics(m.Registry, pool)

	checker := newChecker(pool, store, cfg.ProbeTimeout, m, log)
	statusHandler := server.NewStatusHandler(checker, server.WithMetrics(m))
	httpServer := server.NewHTTPServer(cfg.HTTPAddr, newHTTPHandler(statusHandler, log))

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen HTTP %s: %w", cfg.HTTPAddr, err)
	}
	defer listener.Close()

	return server.Serve(ctx, log, httpServer, listener)
}

func newChecker(db health.Pinger, store health.BucketLister, timeout time.Duration, m *metrics.Metrics, log *slog.Logger) *health.Checker {
	return health.NewChecker(
		[]health.Probe{
			health.DatabaseProbe(db),
			health.ObjectStorageProbe(store),
		},
		health.WithTimeout(timeout),
		health.WithObserver(m.ObserveDependency),
		health.WithLogger(log),
	)
}

func newHTTPHandler(statusHandler http.Handler, log *slog.Logger) http.Handler {
	handler := middleware.Recover(log)(statusHandler)
	handler = middleware.HTTPRequestLogging(log)(handler)
	return otelhttp.NewHandler(handler, serviceName+"-http")
}
