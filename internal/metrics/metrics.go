// Package metrics provides Prometheus instrumentation for the switchboard
// services.
//
// All metrics are registered in a custom [prometheus.Registry] (not the global
// default) so that only switchboard metrics appear on the /metrics endpoint.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

// Metrics holds all Prometheus collectors used by the switchboard services.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
	FlagOperationsTotal     *prometheus.CounterVec
	DependencyUp            *prometheus.GaugeVec
	DependencyCheckDuration *prometheus.HistogramVec
}

// New creates and registers all switchboard metrics in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "switchboard_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		FlagOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_flag_operations_total",
			Help: "Total number of feature flag operations by outcome.",
		}, []string{"operation", "result"}),

		DependencyUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "switchboard_dependency_up",
			Help: "Whether the last check of a dependency succeeded (1) or failed (0).",
		}, []string{"dependency"}),

		DependencyCheckDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "switchboard_dependency_check_duration_seconds",
			Help:    "Dependency check latency in seconds.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"dependency"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.FlagOperationsTotal,
		m.DependencyUp,
		m.DependencyCheckDuration,
	)

	return m
}

// Handler returns an [http.Handler] that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// InstrumentHTTP records request count and latency for each route. It must
// wrap the [http.ServeMux] directly so the matched pattern is visible after
// the request is served.
func (m *Metrics) InstrumentHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		route := routeLabel(r.Pattern)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

// RecordFlagOperation increments the flag operation counter.
func (m *Metrics) RecordFlagOperation(operation, result string) {
	m.FlagOperationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveDependency records the outcome of a single dependency check.
func (m *Metrics) ObserveDependency(dependency string, healthy bool, latency time.Duration) {
	up := 0.0
	if healthy {
		up = 1
	}
	m.DependencyUp.WithLabelValues(dependency).Set(up)
	m.DependencyCheckDuration.WithLabelValues(dependency).Observe(latency.Seconds())
}

// routeLabel strips the method from a ServeMux pattern so that
// "GET /api/feature-flags/{id}" becomes "/api/feature-flags/{id}".
func routeLabel(pattern string) string {
	if pattern == "" {
		return unmatchedRoute
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
