package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config describes an S3-compatible endpoint. Empty credentials select
// anonymous access.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Client is a thin wrapper over a MinIO client exposing only what the
// status service needs.
type Client struct {
	client *minio.Client
}

func New(cfg Config) (*Client, error) {
	endpoint, secure, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Client{client: client}, nil
}

// ListBuckets returns the names of every bucket visible to the configured
// credentials.
func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	buckets, err := c.client.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	names := make([]string, 0, len(buckets))
	for _, bucket := range buckets {
		names = append(names, bucket.Name)
	}
	return names, nil
}

// normalizeEndpoint accepts either host:port or a full http(s) URL. A URL
// scheme overrides useSSL.
func normalizeEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, errors.New("storage endpoint is required")
	}
	if !strings.Contains(raw, "://") {
		return strings.TrimSuffix(raw, "/"), useSSL, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse storage endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		useSSL = false
	case "https":
		useSSL = true
	default:
		return "", false, fmt.Errorf("unsupported storage endpoint scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("storage endpoint %q has no host", raw)
	}
	if u.Path != "" && u.Path != "/" {
		return "", false, fmt.Errorf("storage endpoint %q must not include a path", raw)
	}
	return u.Host, useSSL, nil
}
