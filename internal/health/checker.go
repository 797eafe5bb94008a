package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout = 2 * time.Second
	tracerName     = "github.com/matt-riley/switchboard/internal/health"
)

var errProbeTimeout = errors.New("probe timed out")

// Observer is notified after every probe evaluation.
type Observer func(dependency string, healthy bool, latency time.Duration)

type Option func(*Checker)

// WithTimeout bounds each probe. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithObserver(observe Observer) Option {
	return func(c *Checker) {
		c.observe = observe
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Checker) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Checker runs a fixed set of probes concurrently.
type Checker struct {
	probes  []Probe
	timeout time.Duration
	observe Observer
	tracer  trace.Tracer
	logger  *slog.Logger
}

func NewChecker(probes []Probe, opts ...Option) *Checker {
	c := &Checker{
		probes:  append([]Probe(nil), probes...),
		timeout: DefaultTimeout,
		tracer:  otel.Tracer(tracerName),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check evaluates every probe and reduces the outcomes. The report is
// healthy only when every dependency is healthy. Check returns no later than
// the per-probe timeout even if a probe ignores its context.
func (c *Checker) Check(ctx context.Context) Report {
	ctx, span := c.tracer.Start(ctx, "health.Check")
	defer span.End()

	deps := make([]DependencyStatus, len(c.probes))
	var g errgroup.Group
	for i, probe := range c.probes {
		g.Go(func() error {
			result := c.run(ctx, probe)
			deps[i] = DependencyStatus{Name: probe.Name(), Result: result}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Healthy: true, Dependencies: deps}
	for _, dep := range deps {
		if !dep.Healthy {
			report.Healthy = false
			break
		}
	}

	span.SetAttributes(attribute.Bool("health.healthy", report.Healthy))
	if !report.Healthy {
		span.SetStatus(codes.Error, "dependency unhealthy")
	}
	return report
}

func (c *Checker) run(ctx context.Context, probe Probe) Result {
	name := probe.Name()
	ctx, span := c.tracer.Start(ctx, "health.probe "+name,
		trace.WithAttributes(attribute.String("health.dependency", name)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		done <- safeCheck(ctx, probe)
	}()

	var result Result
	select {
	case result = <-done:
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", errProbeTimeout, c.timeout)
		}
		result = Result{Err: err, Latency: time.Since(start)}
	}
	if result.Healthy {
		result.Err = nil
	} else if result.Err == nil {
		result.Err = errors.New("probe reported unhealthy")
	}

	span.SetAttributes(
		attribute.Bool("health.healthy", result.Healthy),
		attribute.Int64("health.latency_ms", result.Latency.Milliseconds()),
	)
	if !result.Healthy {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
		c.logger.WarnContext(ctx, "dependency check failed",
			"dependency", name,
			"error", result.Err,
			"latency", result.Latency,
		)
	}
	if c.observe != nil {
		c.observe(name, result.Healthy, result.Latency)
	}

	return result
}

// safeCheck shields the checker from probe implementations that panic.
func safeCheck(ctx context.Context, probe Probe) (result Result) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = Result{Err: fmt.Errorf("probe %s panicked: %v", probe.Name(), rec), Latency: time.Since(start)}
		}
	}()
	return probe.Check(ctx)
}
