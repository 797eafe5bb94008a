package server

import (
	"net/http"

	"github.com/matt-riley/switchboard/internal/health"
)

// StatusServer serves the dependency status probes of the status service.
type StatusServer struct {
	checker Checker
}

// NewStatusHandler serves /health, /status, /ready, and optionally /metrics.
// /status always answers 200 with the report; /ready answers 503 when any
// dependency is unhealthy.
func NewStatusHandler(checker Checker, opts ...Option) http.Handler {
	if checker == nil {
		panic("checker is nil")
	}

	o := newOptions(opts)
	server := &StatusServer{checker: checker}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", server.handleStatus)
	mux.HandleFunc("GET /ready", server.handleReady)

	return o.finish(mux)
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.checker.Check(r.Context()))
}

func (s *StatusServer) handleReady(w http.ResponseWriter, r *http.Request) {
	writeReadiness(w, s.checker.Check(r.Context()))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeReadiness(w http.ResponseWriter, report health.Report) {
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
