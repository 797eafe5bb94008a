package server

import (
	"net/http"

	"github.com/matt-riley/switchboard/internal/metrics"
)

const defaultMaxJSONBodyBytes int64 = 1 << 20

type options struct {
	maxJSONBodyBytes int64
	readiness        Checker
	metricsHandler   http.Handler
	instrument       func(http.Handler) http.Handler
}

// Option configures the handlers built by this package.
type Option func(*options)

// WithMaxJSONBodySize caps request bodies. Non-positive values keep the
// 1 MiB default.
func WithMaxJSONBodySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxJSONBodyBytes = n
		}
	}
}

// WithReadiness sets the checker consulted by GET /ready.
func WithReadiness(checker Checker) Option {
	return func(o *options) {
		o.readiness = checker
	}
}

// WithMetrics serves GET /metrics from m and records per-route request
// metrics. A nil m disables both.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		if m == nil {
			return
		}
		o.metricsHandler = m.Handler()
		o.instrument = m.InstrumentHTTP
	}
}

func newOptions(opts []Option) options {
	o := options{maxJSONBodyBytes: defaultMaxJSONBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// finish mounts the shared routes and wraps mux with request metrics.
func (o options) finish(mux *http.ServeMux) http.Handler {
	mux.HandleFunc("GET /health", handleHealth)
	if o.metricsHandler != nil {
		mux.Handle("GET /metrics", o.metricsHandler)
	}
	mux.HandleFunc("/", handleNotFound)

	if o.instrument != nil {
		return o.instrument(mux)
	}
	return mux
}
