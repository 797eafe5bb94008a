// Package http provides an HTTP client for the switchboard services.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	switchboard "github.com/matt-riley/switchboard/clients/go"
)

const flagsPath = "/api/feature-flags"

// Config holds configuration for the HTTP client.
type Config struct {
	// BaseURL is the base URL of the service, e.g. "http://localhost:8080".
	BaseURL string
	// HTTPClient is optional; defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client implements switchboard.FlagManager and switchboard.StatusReader
// over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ switchboard.FlagManager  = (*Client)(nil)
	_ switchboard.StatusReader = (*Client)(nil)
)

// NewHTTPClient returns a new HTTP client for a switchboard service.
func NewHTTPClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), httpClient: hc}
}

// -- wire types --------------------------------------------------------------

type wireFlag struct {
	ID                string  `json:"id,omitempty"`
	Key               string  `json:"key"`
	Description       *string `json:"description"`
	Enabled           bool    `json:"enabled"`
	RolloutPercentage *int    `json:"rolloutPercentage"`
}

type wireError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// -- errors ------------------------------------------------------------------

// APIError is returned when the server responds with an HTTP error status.
type APIError struct {
	StatusCode int
	Message    string
	// Fields lists per-field validation problems on 400 responses.
	Fields map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("switchboard: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsConflict reports whether err is a 409 from the server.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

// IsValidation reports whether err is a 400 from the server.
func IsValidation(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// -- helpers -----------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, body any, okStatus ...int) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("switchboard: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("switchboard: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("switchboard: http: %w", err)
	}
	if resp.StatusCode >= 400 && !containsStatus(okStatus, resp.StatusCode) {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func containsStatus(statuses []int, status int) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func decodeAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var we wireError
	if err := json.Unmarshal(raw, &we); err == nil && we.Error != "" {
		apiErr.Message = we.Error
		apiErr.Fields = we.Fields
	}
	return apiErr
}

func decodeJSON(resp *http.Response, dst any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("switchboard: decode response: %w", err)
	}
	return nil
}

func flagPath(id string) string {
	return flagsPath + "/" + url.PathEscape(id)
}

func encodeFlagInput(in switchboard.FlagInput) wireFlag {
	return wireFlag{
		Key:               in.Key,
		Description:       in.Description,
		Enabled:           in.Enabled,
		RolloutPercentage: in.RolloutPercentage,
	}
}

func decodeFlag(wf wireFlag) switchboard.Flag {
	return switchboard.Flag{
		ID:                wf.ID,
		Key:               wf.Key,
		Description:       wf.Description,
		Enabled:           wf.Enabled,
		RolloutPercentage: wf.RolloutPercentage,
	}
}

// decodeStatus splits the flat report into the overall status and one entry
// per dependency.
func decodeStatus(resp *http.Response) (switchboard.Status, error) {
	var raw map[string]string
	if err := decodeJSON(resp, &raw); err != nil {
		return switchboard.Status{}, err
	}
	st := switchboard.Status{Status: raw["status"], Dependencies: make(map[string]string, len(raw))}
	for name, value := range raw {
		if name != "status" {
			st.Dependencies[name] = value
		}
	}
	return st, nil
}

// -- FlagManager -------------------------------------------------------------

func (c *Client) CreateFlag(ctx context.Context, in switchboard.FlagInput) (switchboard.Flag, error) {
	resp, err := c.do(ctx, http.MethodPost, flagsPath, encodeFlagInput(in))
	if err != nil {
		return switchboard.Flag{}, err
	}
	var out wireFlag
	if err := decodeJSON(resp, &out); err != nil {
		return switchboard.Flag{}, err
	}
	return decodeFlag(out), nil
}

func (c *Client) GetFlag(ctx context.Context, id string) (switchboard.Flag, error) {
	resp, err := c.do(ctx, http.MethodGet, flagPath(id), nil)
	if err != nil {
		return switchboard.Flag{}, err
	}
	var out wireFlag
	if err := decodeJSON(resp, &out); err != nil {
		return switchboard.Flag{}, err
	}
	return decodeFlag(out), nil
}

func (c *Client) ListFlags(ctx context.Context) ([]switchboard.Flag, error) {
	resp, err := c.do(ctx, http.MethodGet, flagsPath, nil)
	if err != nil {
		return nil, err
	}
	var out []wireFlag
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	flags := make([]switchboard.Flag, len(out))
	for i, wf := range out {
		flags[i] = decodeFlag(wf)
	}
	return flags, nil
}

func (c *Client) UpdateFlag(ctx context.Context, id string, in switchboard.FlagInput) (switchboard.Flag, error) {
	resp, err := c.do(ctx, http.MethodPut, flagPath(id), encodeFlagInput(in))
	if err != nil {
		return switchboard.Flag{}, err
	}
	var out wireFlag
	if err := decodeJSON(resp, &out); err != nil {
		return switchboard.Flag{}, err
	}
	return decodeFlag(out), nil
}

func (c *Client) DeleteFlag(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, flagPath(id), nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// -- StatusReader ------------------------------------------------------------

// Health returns nil when the process answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Ready returns the readiness report. A 503 is not an error: the returned
// Status is simply not healthy.
func (c *Client) Ready(ctx context.Context) (switchboard.Status, error) {
	resp, err := c.do(ctx, http.MethodGet, "/ready", nil, http.StatusServiceUnavailable)
	if err != nil {
		return switchboard.Status{}, err
	}
	return decodeStatus(resp)
}

// Status returns the dependency report of the status service.
func (c *Client) Status(ctx context.Context) (switchboard.Status, error) {
	resp, err := c.do(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return switchboard.Status{}, err
	}
	return decodeStatus(resp)
}
