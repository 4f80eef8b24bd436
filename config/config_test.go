package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/bandgate/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090

upstream:
  url: "http://localhost:3000"
  timeout: 15s
  max_body_bytes: 2048

client:
  api_base_url: "http://127.0.0.1:9090"
  headers:
    X-Client: "cli"

storage:
  driver: "memory"
  namespace: "alice"

auth:
  google_client_id: "fallback.apps.googleusercontent.com"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Upstream.URL != "http://localhost:3000" {
		t.Errorf("Upstream.URL = %s, want http://localhost:3000", cfg.Upstream.URL)
	}
	if cfg.Upstream.Timeout != 15*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 15s", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.MaxBodyBytes != 2048 {
		t.Errorf("Upstream.MaxBodyBytes = %d, want 2048", cfg.Upstream.MaxBodyBytes)
	}
	if cfg.Client.Headers["X-Client"] != "cli" {
		t.Errorf("Client.Headers = %v, want X-Client=cli", cfg.Client.Headers)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %s, want memory", cfg.Storage.Driver)
	}
	if cfg.Storage.Namespace != "alice" {
		t.Errorf("Storage.Namespace = %s, want alice", cfg.Storage.Namespace)
	}
	if cfg.Auth.GoogleClientID != "fallback.apps.googleusercontent.com" {
		t.Errorf("Auth.GoogleClientID = %s", cfg.Auth.GoogleClientID)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "server:\n  port: 8181\n")

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Upstream.URL != config.DefaultUpstreamURL {
		t.Errorf("Upstream.URL = %s, want %s", cfg.Upstream.URL, config.DefaultUpstreamURL)
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 30s", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.MaxBodyBytes != 10<<20 {
		t.Errorf("Upstream.MaxBodyBytes = %d, want 10MiB", cfg.Upstream.MaxBodyBytes)
	}
	if cfg.Client.APIBaseURL != "http://127.0.0.1:8181" {
		t.Errorf("Client.APIBaseURL = %s, want http://127.0.0.1:8181", cfg.Client.APIBaseURL)
	}
	if cfg.Client.Timeout != 10*time.Second {
		t.Errorf("Client.Timeout = %v, want 10s", cfg.Client.Timeout)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "bandgate.db" || cfg.Storage.Namespace != "default" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %s, want /metrics", cfg.Metrics.Path)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_ORIGIN", "http://expanded:4000")

	cfg := writeAndLoad(t, "upstream:\n  url: \"${TEST_ORIGIN}\"\n")

	if cfg.Upstream.URL != "http://expanded:4000" {
		t.Errorf("Upstream.URL = %s, want http://expanded:4000", cfg.Upstream.URL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"relative upstream", "upstream:\n  url: \"/api\"\n"},
		{"non-http upstream", "upstream:\n  url: \"ftp://files.example.com\"\n"},
		{"client without host", "client:\n  api_base_url: \"http://\"\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"negative body limit", "upstream:\n  max_body_bytes: -1\n"},
		{"unknown driver", "storage:\n  driver: \"postgres\"\n"},
		{"bad level", "logging:\n  level: \"trace\"\n"},
		{"bad format", "logging:\n  format: \"xml\"\n"},
		{"bad metrics path", "metrics:\n  path: \"metrics\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := writeAndLoadErr(t, tt.content); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BANDGATE_UPSTREAM_URL", "http://env-upstream:8000")
	t.Setenv("BANDGATE_SERVER_PORT", "9999")
	t.Setenv("BANDGATE_STORAGE_DSN", "/tmp/env-test.db")
	t.Setenv("BANDGATE_LOG_LEVEL", "debug")
	t.Setenv("BANDGATE_METRICS_ENABLED", "true")
	t.Setenv("BANDGATE_GOOGLE_CLIENT_ID", "env-client")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Upstream.URL != "http://env-upstream:8000" {
		t.Errorf("Upstream.URL = %s, want http://env-upstream:8000", cfg.Upstream.URL)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Storage.DSN != "/tmp/env-test.db" {
		t.Errorf("Storage.DSN = %s, want /tmp/env-test.db", cfg.Storage.DSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Auth.GoogleClientID != "env-client" {
		t.Errorf("Auth.GoogleClientID = %s, want env-client", cfg.Auth.GoogleClientID)
	}
}

func TestLoadFromEnv_DefaultsOnly(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Upstream.URL != config.DefaultUpstreamURL {
		t.Errorf("Upstream.URL = %s, want %s", cfg.Upstream.URL, config.DefaultUpstreamURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("BANDGATE_SERVER_PORT", "7777")
	t.Setenv("BANDGATE_LOG_LEVEL", "error")
	t.Setenv("BANDGATE_STORAGE_DRIVER", "memory")

	content := `
upstream:
  url: "http://localhost:3000"
server:
  port: 8080
logging:
  level: "info"
storage:
  driver: "sqlite"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error (env override)", cfg.Logging.Level)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %s, want memory (env override)", cfg.Storage.Driver)
	}
	if cfg.Upstream.URL != "http://localhost:3000" {
		t.Errorf("Upstream.URL = %s, want http://localhost:3000", cfg.Upstream.URL)
	}
}

func TestEnvOverrides_Durations(t *testing.T) {
	t.Setenv("BANDGATE_UPSTREAM_TIMEOUT", "5s")
	t.Setenv("BANDGATE_CLIENT_TIMEOUT", "2s")
	t.Setenv("BANDGATE_SERVER_READ_TIMEOUT", "not-a-duration")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 5s", cfg.Upstream.Timeout)
	}
	if cfg.Client.Timeout != 2*time.Second {
		t.Errorf("Client.Timeout = %v, want 2s", cfg.Client.Timeout)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want default 30s for unparseable value", cfg.Server.ReadTimeout)
	}
}

func TestEnvOverrides_InvalidIntegers(t *testing.T) {
	t.Setenv("BANDGATE_SERVER_PORT", "eighty")
	t.Setenv("BANDGATE_UPSTREAM_MAX_BODY", "lots")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Upstream.MaxBodyBytes != 10<<20 {
		t.Errorf("Upstream.MaxBodyBytes = %d, want default", cfg.Upstream.MaxBodyBytes)
	}
}

func TestLoadWithFallback_FileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("upstream:\n  url: \"http://file-config:3000\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Upstream.URL != "http://file-config:3000" {
		t.Errorf("Upstream.URL = %s, want http://file-config:3000", cfg.Upstream.URL)
	}
}

func TestLoadWithFallback_EnvOnly(t *testing.T) {
	t.Setenv("BANDGATE_UPSTREAM_URL", "http://env-fallback:8000")

	cfg, err := config.LoadWithFallback("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Upstream.URL != "http://env-fallback:8000" {
		t.Errorf("Upstream.URL = %s, want http://env-fallback:8000", cfg.Upstream.URL)
	}
}

func TestLoadWithFallback_EmptyPath(t *testing.T) {
	cfg, err := config.LoadWithFallback("")
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestHasEnvConfig(t *testing.T) {
	t.Setenv("BANDGATE_UPSTREAM_URL", "")
	if config.HasEnvConfig() {
		t.Error("HasEnvConfig() = true, want false")
	}

	t.Setenv("BANDGATE_UPSTREAM_URL", "http://test:8000")
	if !config.HasEnvConfig() {
		t.Error("HasEnvConfig() = false, want true")
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{" on ", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"off", false},
		{"invalid", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("BANDGATE_OPENAPI_ENABLED", tt.value)

			cfg, err := config.LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv error: %v", err)
			}
			if cfg.OpenAPI.Enabled != tt.expected {
				t.Errorf("OpenAPI.Enabled = %v, want %v", cfg.OpenAPI.Enabled, tt.expected)
			}
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `
upstream:
  url: "http://localhost:3000"
  this is not valid yaml: [
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := config.Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
