// Package config loads service configuration from environment variables.
//
// Database (both services):
//   - DATABASE_URL: PostgreSQL connection string. When set it overrides the
//     DB_* variables below.
//   - DB_HOST (default "localhost"), DB_PORT (default "5432", 1..65535),
//     DB_USER (default "postgres"), DB_PASSWORD (default "postgres"),
//     DB_DATABASE (default "postgres"), DB_SSLMODE (default "disable").
//
// Object storage (status service, see [LoadStatus]):
//   - S3_ENDPOINT: host:port or http(s) URL of an S3-compatible endpoint.
//   - S3_ACCESS_KEY, S3_SECRET_KEY: credentials; empty means anonymous.
//   - S3_USE_SSL: "true" to use TLS when S3_ENDPOINT has no scheme.
//
// Optional variables:
//   - HTTP_ADDR: listen address for the HTTP server (default ":8080").
//   - LOG_LEVEL: debug, info, warn or error (default "info").
//   - MAX_JSON_BODY_SIZE: max HTTP JSON request body size in bytes
//     (default "1048576", must be > 0 if set).
//   - PROBE_TIMEOUT: per-dependency health check timeout
//     (default "2s", must be > 0 if set).
//   - MIGRATE_ON_START: apply embedded migrations before serving
//     (default "true").
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr              = ":8080"
	defaultLogLevel              = "info"
	defaultMaxJSONBodySize int64 = 1 << 20 // 1MB
	defaultProbeTimeout          = 2 * time.Second

	defaultDBHost     = "localhost"
	defaultDBPort     = 5432
	defaultDBUser     = "postgres"
	defaultDBPassword = "postgres"
	defaultDBName     = "postgres"
	defaultDBSSLMode  = "disable"
)

// Config holds the runtime configuration shared by both services.
type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	LogLevel        string
	MaxJSONBodySize int64
	ProbeTimeout    time.Duration
	MigrateOnStart  bool
	Storage         StorageConfig
}

// StorageConfig describes the object storage endpoint probed by the status
// service.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Load reads configuration from environment variables, applying defaults where
// appropriate. It returns an error if optional values fail validation.
func Load() (Config, error) {
	databaseURL, err := loadDatabaseURL()
	if err != nil {
		return Config{}, err
	}

	maxJSONBodySize := defaultMaxJSONBodySize
	if v := strings.TrimSpace(os.Getenv("MAX_JSON_BODY_SIZE")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return Config{}, errors.New("MAX_JSON_BODY_SIZE must be a positive integer (bytes)")
		}
		maxJSONBodySize = n
	}

	probeTimeout := defaultProbeTimeout
	if v := strings.TrimSpace(os.Getenv("PROBE_TIMEOUT")); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse PROBE_TIMEOUT: %w", err)
		}
		if parsed <= 0 {
			return Config{}, errors.New("PROBE_TIMEOUT must be > 0")
		}
		probeTimeout = parsed
	}

	migrateOnStart, err := boolEnv("MIGRATE_ON_START", true)
	if err != nil {
		return Config{}, err
	}
	useSSL, err := boolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}

	return Config{
		DatabaseURL:     databaseURL,
		HTTPAddr:        envOrDefault("HTTP_ADDR", defaultHTTPAddr),
		LogLevel:        envOrDefault("LOG_LEVEL", defaultLogLevel),
		MaxJSONBodySize: maxJSONBodySize,
		ProbeTimeout:    probeTimeout,
		MigrateOnStart:  migrateOnStart,
		Storage: StorageConfig{
			Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			UseSSL:    useSSL,
		},
	}, nil
}

// LoadStatus is Load plus the object storage settings the status service
// cannot run without.
func LoadStatus() (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	if cfg.Storage.Endpoint == "" {
		return Config{}, errors.New("S3_ENDPOINT is required")
	}
	return cfg, nil
}

func loadDatabaseURL() (string, error) {
	if databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL")); databaseURL != "" {
		return databaseURL, nil
	}

	port := defaultDBPort
	if v := strings.TrimSpace(os.Getenv("DB_PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 65535 {
			return "", errors.New("DB_PORT must be an integer between 1 and 65535")
		}
		port = n
	}

	return buildDatabaseURL(
		envOrDefault("DB_HOST", defaultDBHost),
		port,
		envOrDefault("DB_USER", defaultDBUser),
		envOrDefaultRaw("DB_PASSWORD", defaultDBPassword),
		envOrDefault("DB_DATABASE", defaultDBName),
		envOrDefault("DB_SSLMODE", defaultDBSSLMode),
	), nil
}

// buildDatabaseURL escapes every component so passwords with reserved
// characters survive the round trip through pgx's parser.
func buildDatabaseURL(host string, port int, user, password, database, sslMode string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return parsed, nil
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// envOrDefaultRaw keeps surrounding whitespace, which may be part of a secret.
func envOrDefaultRaw(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
