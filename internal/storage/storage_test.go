package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{name: "host and port", raw: "minio:9000", wantHost: "minio:9000"},
		{name: "host keeps ssl flag", raw: "s3.example.com", useSSL: true, wantHost: "s3.example.com", wantSecure: true},
		{name: "http url", raw: "http://localhost:9000", useSSL: true, wantHost: "localhost:9000"},
		{name: "https url", raw: "https://s3.example.com/", wantHost: "s3.example.com", wantSecure: true},
		{name: "trailing slash", raw: "minio:9000/", wantHost: "minio:9000"},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "bad scheme", raw: "ftp://minio:9000", wantErr: true},
		{name: "path", raw: "http://minio:9000/bucket", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure, err := normalizeEndpoint(tt.raw, tt.useSSL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizeEndpoint(%q) error = nil, want non-nil", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeEndpoint(%q) error = %v", tt.raw, err)
			}
			if host != tt.wantHost || secure != tt.wantSecure {
				t.Fatalf("normalizeEndpoint(%q) = (%q, %t), want (%q, %t)", tt.raw, host, secure, tt.wantHost, tt.wantSecure)
			}
		})
	}
}

func TestNewRejectsEmptyEndpoint(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() error = nil, want non-nil")
	}
}

func TestListBuckets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListAllMyBucketsResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Owner><ID>owner</ID><DisplayName>owner</DisplayName></Owner>
  <Buckets>
    <Bucket><Name>assets</Name><CreationDate>2024-01-01T00:00:00.000Z</CreationDate></Bucket>
    <Bucket><Name>backups</Name><CreationDate>2024-01-02T00:00:00.000Z</CreationDate></Bucket>
  </Buckets>
</ListAllMyBucketsResult>`))
	}))
	defer srv.Close()

	client, err := New(Config{Endpoint: srv.URL, AccessKey: "access", SecretKey: "secret"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	names, err := client.ListBuckets(context.Background())
	if err != nil {
		t.Fatalf("ListBuckets() error = %v", err)
	}
	if len(names) != 2 || names[0] != "assets" || names[1] != "backups" {
		t.Fatalf("ListBuckets() = %v, want [assets backups]", names)
	}
}

func TestListBucketsEmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<ListAllMyBucketsResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Owner><ID>o</ID></Owner><Buckets></Buckets></ListAllMyBucketsResult>`))
	}))
	defer srv.Close()

	client, err := New(Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	names, err := client.ListBuckets(context.Background())
	if err != nil {
		t.Fatalf("ListBuckets() error = %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("ListBuckets() = %v, want empty", names)
	}
}

func TestListBucketsAccessDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code><Message>Access Denied.</Message></Error>`))
	}))
	defer srv.Close()

	client, err := New(Config{Endpoint: srv.URL, AccessKey: "wrong", SecretKey: "wrong"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.ListBuckets(context.Background())
	if err == nil {
		t.Fatal("ListBuckets() error = nil, want non-nil")
	}
	if !strings.HasPrefix(err.Error(), "list buckets: ") {
		t.Fatalf("ListBuckets() error = %q, want list buckets prefix", err)
	}
}
