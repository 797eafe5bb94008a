package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/matt-riley/switchboard/internal/core"
	"github.com/matt-riley/switchboard/internal/middleware"
	"github.com/matt-riley/switchboard/internal/service"
)

const flagsPath = "/api/feature-flags"

var (
	errJSONBodyTooLarge      = errors.New("json request body too large")
	errConflictingRolloutKey = errors.New("rolloutPercentage and rollout_percentage are mutually exclusive")
)

type HTTPServer struct {
	service          Service
	readiness        Checker
	maxJSONBodyBytes int64
}

// flagRequest is the body of POST and PUT. Omitted optional fields reset to
// their zero value on update.
type flagRequest struct {
	Key                    string  `json:"key"`
	Description            *string `json:"description"`
	Enabled                *bool   `json:"enabled"`
	RolloutPercentage      *int    `json:"rolloutPercentage"`
	RolloutPercentageSnake *int    `json:"rollout_percentage"`
}

func (req flagRequest) input() (core.FlagInput, error) {
	rollout := req.RolloutPercentage
	if req.RolloutPercentageSnake != nil {
		if rollout != nil {
			return core.FlagInput{}, errConflictingRolloutKey
		}
		rollout = req.RolloutPercentageSnake
	}

	in := core.FlagInput{
		Key:               req.Key,
		Description:       req.Description,
		RolloutPercentage: rollout,
	}
	if req.Enabled != nil {
		in.Enabled = *req.Enabled
	}
	return in, nil
}

// NewHTTPHandler serves the feature flag API, /health, /ready, and
// optionally /metrics.
func NewHTTPHandler(svc Service, opts ...Option) http.Handler {
	if svc == nil {
		panic("service is nil")
	}

	o := newOptions(opts)
	server := &HTTPServer{
		service:          svc,
		readiness:        o.readiness,
		maxJSONBodyBytes: o.maxJSONBodyBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+flagsPath, server.handleCreateFlag)
	mux.HandleFunc("GET "+flagsPath, server.handleListFlags)
	mux.HandleFunc("GET "+flagsPath+"/{id}", server.handleGetFlag)
	mux.HandleFunc("PUT "+flagsPath+"/{id}", server.handleUpdateFlag)
	mux.HandleFunc("DELETE "+flagsPath+"/{id}", server.handleDeleteFlag)
	mux.HandleFunc(flagsPath, methodNotAllowed("GET, POST"))
	mux.HandleFunc(flagsPath+"/{id}", methodNotAllowed("GET, PUT, DELETE"))
	mux.HandleFunc("GET /ready", server.handleReady)

	return o.finish(mux)
}

func (s *HTTPServer) handleCreateFlag(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeFlagInput(w, r)
	if !ok {
		return
	}

	created, err := s.service.CreateFlag(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", flagsPath+"/"+created.ID.String())
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleListFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := s.service.ListFlags(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if flags == nil {
		flags = []core.Flag{}
	}

	writeJSON(w, http.StatusOK, flags)
}

func (s *HTTPServer) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFlagID(w, r)
	if !ok {
		return
	}

	flag, err := s.service.GetFlag(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, flag)
}

func (s *HTTPServer) handleUpdateFlag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFlagID(w, r)
	if !ok {
		return
	}
	in, ok := s.decodeFlagInput(w, r)
	if !ok {
		return
	}

	updated, err := s.service.UpdateFlag(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) handleDeleteFlag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFlagID(w, r)
	if !ok {
		return
	}

	if err := s.service.DeleteFlag(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readiness == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	writeReadiness(w, s.readiness.Check(r.Context()))
}

func (s *HTTPServer) decodeFlagInput(w http.ResponseWriter, r *http.Request) (core.FlagInput, bool) {
	var req flagRequest
	if err := decodeJSONBody(w, r, &req, s.maxJSONBodyBytes); err != nil {
		writeJSONDecodeError(w, err)
		return core.FlagInput{}, false
	}

	in, err := req.input()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return core.FlagInput{}, false
	}
	return in, true
}

// parseFlagID treats a malformed id like an unknown one.
func parseFlagID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "flag not found")
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := serviceErrorStatus(err)
	if status == http.StatusBadRequest {
		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, status, validationErrorBody{Error: vErr.Error(), Fields: vErr.Fields})
			return
		}
	}
	if status == http.StatusInternalServerError {
		middleware.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSONError(w, status, serviceErrorMessage(err))
}

func serviceErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidFlag):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrFlagNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrFlagKeyConflict):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func serviceErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidFlag):
		return "invalid flag"
	case errors.Is(err, service.ErrFlagNotFound):
		return "flag not found"
	case errors.Is(err, service.ErrFlagKeyConflict):
		return "flag key already exists"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	default:
		return "internal server error"
	}
}

type validationErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSONDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errJSONBodyTooLarge) {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
}

// writeJSON falls back to a 500 error body when payload cannot be encoded.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if r.Body == nil {
		return io.EOF
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return normalizeJSONDecodeError(err)
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("request body must contain a single JSON object")
		}
		return normalizeJSONDecodeError(err)
	}

	return nil
}

func normalizeJSONDecodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return errJSONBodyTooLarge
	}
	return err
}

func methodNotAllowed(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", allow)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusNotFound, "not found")
}
