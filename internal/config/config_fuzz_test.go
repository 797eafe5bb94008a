package config

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func FuzzEnvOrDefault(f *testing.F) {
	f.Add("", ":8080")
	f.Add("  :9090  ", ":8080")

	f.Fuzz(func(t *testing.T, value, fallback string) {
		if strings.ContainsRune(value, '\x00') {
			t.Skip()
		}

		const key = "SWITCHBOARD_TEST_ENV_OR_DEFAULT"
		t.Setenv(key, value)

		got := envOrDefault(key, fallback)
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			if got != fallback {
				t.Fatalf("envOrDefault() = %q, want fallback %q", got, fallback)
			}
			return
		}

		if got != trimmed {
			t.Fatalf("envOrDefault() = %q, want trimmed value %q", got, trimmed)
		}
	})
}

func FuzzLoadProbeTimeout(f *testing.F) {
	f.Add("")
	f.Add("2s")
	f.Add("0s")
	f.Add("-1s")
	f.Add("not-a-duration")

	f.Fuzz(func(t *testing.T, probeTimeout string) {
		if strings.ContainsRune(probeTimeout, '\x00') {
			t.Skip()
		}

		clearEnv(t)
		t.Setenv("PROBE_TIMEOUT", probeTimeout)

		cfg, err := Load()
		trimmed := strings.TrimSpace(probeTimeout)
		if trimmed == "" {
			if err != nil {
				t.Fatalf("Load() error = %v, want nil for empty PROBE_TIMEOUT", err)
			}
			if cfg.ProbeTimeout != defaultProbeTimeout {
				t.Fatalf("ProbeTimeout = %s, want %s", cfg.ProbeTimeout, defaultProbeTimeout)
			}
			return
		}

		parsed, parseErr := time.ParseDuration(trimmed)
		if parseErr != nil || parsed <= 0 {
			if err == nil {
				t.Fatalf("Load() error = nil, want non-nil for PROBE_TIMEOUT=%q", probeTimeout)
			}
			return
		}

		if err != nil {
			t.Fatalf("Load() error = %v, want nil for PROBE_TIMEOUT=%q", err, probeTimeout)
		}
		if cfg.ProbeTimeout != parsed {
			t.Fatalf("ProbeTimeout = %s, want %s", cfg.ProbeTimeout, parsed)
		}
	})
}

func FuzzBuildDatabaseURLPassword(f *testing.F) {
	f.Add("postgres")
	f.Add("p@ss:w/rd")
	f.Add("with space")
	f.Add("%41")

	f.Fuzz(func(t *testing.T, password string) {
		raw := buildDatabaseURL("localhost", 5432, "postgres", password, "postgres", "disable")
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("buildDatabaseURL(%q) produced unparseable URL %q: %v", password, raw, err)
		}
		if got, _ := u.User.Password(); got != password {
			t.Fatalf("password round trip = %q, want %q", got, password)
		}
	})
}
