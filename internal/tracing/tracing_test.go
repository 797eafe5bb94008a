package tracing

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInit_NoEndpointReturnsNoop(t *testing.T) {
	restoreOpenTelemetryGlobals(t)
	sentinelProvider := noop.NewTracerProvider()
	otel.SetTracerProvider(sentinelProvider)

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "   ")

	shutdown, err := Init(context.Background(), "flagsvc")
	if err != nil {
		t.Fatalf("Init() error = %v, want nil", err)
	}
	if shutdown == nil {
		t.Fatal("Init() shutdown = nil, want non-nil")
	}
	if got := otel.GetTracerProvider(); got != sentinelProvider {
		t.Fatal("Init() changed global tracer provider when tracing endpoint is unset")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v, want nil", err)
	}
}

func TestInit_WithEndpointInitializesTracerProvider(t *testing.T) {
	restoreOpenTelemetryGlobals(t)
	sentinelProvider := noop.NewTracerProvider()
	otel.SetTracerProvider(sentinelProvider)

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:4318")
	t.Setenv("OTEL_SERVICE_NAME", "switchboard-test")

	shutdown, err := Init(context.Background(), "statussvc")
	if err != nil {
		t.Fatalf("Init() error = %v, want nil", err)
	}
	if shutdown == nil {
		t.Fatal("Init() shutdown = nil, want non-nil")
	}

	got := otel.GetTracerProvider()
	if got == sentinelProvider {
		t.Fatal("Init() did not replace global tracer provider")
	}
	if _, ok := got.(*sdktrace.TracerProvider); !ok {
		t.Fatalf("Init() tracer provider type = %T, want *sdktrace.TracerProvider", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown() error = %v, want nil", err)
	}
}

func TestServiceNameFromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "  ")
	if got := serviceNameFromEnv(""); got != defaultServiceName {
		t.Fatalf("serviceNameFromEnv(\"\") = %q, want %q", got, defaultServiceName)
	}
	if got := serviceNameFromEnv("flagsvc"); got != "flagsvc" {
		t.Fatalf("serviceNameFromEnv(flagsvc) = %q, want flagsvc", got)
	}

	t.Setenv("OTEL_SERVICE_NAME", " custom ")
	if got := serviceNameFromEnv("flagsvc"); got != "custom" {
		t.Fatalf("serviceNameFromEnv() = %q, want custom", got)
	}
}

func TestInit_InvalidEndpoint(t *testing.T) {
	restoreOpenTelemetryGlobals(t)
	sentinelProvider := noop.NewTracerProvider()
	otel.SetTracerProvider(sentinelProvider)

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://[::1")

	shutdown, err := Init(context.Background(), "flagsvc")
	if err == nil {
		t.Fatal("Init() error = nil, want non-nil")
	}
	if shutdown != nil {
		t.Fatal("Init() shutdown should be nil when initialization fails")
	}
	if !strings.Contains(err.Error(), "invalid OTLP endpoint") {
		t.Fatalf("Init() error = %q, want prefix containing %q", err.Error(), "invalid OTLP endpoint")
	}
	if got := otel.GetTracerProvider(); got != sentinelProvider {
		t.Fatal("Init() changed global tracer provider on exporter initialization error")
	}
}

func TestNewResourceMergesWithSDKDefaults(t *testing.T) {
	res, err := newResource("flagsvc")
	if err != nil {
		t.Fatalf("newResource() error = %v, want nil", err)
	}
	got, ok := res.Set().Value(semconv.ServiceNameKey)
	if !ok || got.AsString() != "flagsvc" {
		t.Fatalf("service.name = %v (present %v), want flagsvc", got.AsString(), ok)
	}
	if res.SchemaURL() != semconv.SchemaURL {
		t.Fatalf("schema URL = %q, want %q", res.SchemaURL(), semconv.SchemaURL)
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		wantErr  bool
	}{
		{"http://127.0.0.1:4318", false},
		{"https://otel.example.com", false},
		{"localhost:4318", true},
		{"otel-collector", true},
		{"http://", true},
		{"ftp://otel.example.com", true},
		{"http://[::1", true},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			err := validateEndpoint(tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateEndpoint(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
			}
		})
	}
}

func TestInit_EndpointWithoutScheme(t *testing.T) {
	restoreOpenTelemetryGlobals(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	if _, err := Init(context.Background(), "flagsvc"); err == nil || !strings.Contains(err.Error(), "invalid OTLP endpoint") {
		t.Fatalf("Init() error = %v, want invalid OTLP endpoint", err)
	}
}

func restoreOpenTelemetryGlobals(t *testing.T) {
	t.Helper()
	originalProvider := otel.GetTracerProvider()
	originalPropagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(originalProvider)
		otel.SetTextMapPropagator(originalPropagator)
	})
}
