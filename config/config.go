// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultUpstreamURL is the fan platform backend origin.
const DefaultUpstreamURL = "https://bandchu.o-r.kr"

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Client   ClientConfig   `yaml:"client"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	OpenAPI  OpenAPIConfig  `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// UpstreamConfig configures the backend origin the edge proxy forwards to.
type UpstreamConfig struct {
	URL             string        `yaml:"url"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// ClientConfig configures the subscription/catalog client.
type ClientConfig struct {
	APIBaseURL string            `yaml:"api_base_url"`
	Timeout    time.Duration     `yaml:"timeout"`
	Headers    map[string]string `yaml:"headers,omitempty"`
}

// StorageConfig configures the client-side local storage.
type StorageConfig struct {
	Driver    string `yaml:"driver"` // "sqlite" or "memory"
	DSN       string `yaml:"dsn"`
	Namespace string `yaml:"namespace"`
}

// AuthConfig configures sign-in.
type AuthConfig struct {
	GoogleClientID string `yaml:"google_client_id,omitempty"` // used when the backend cannot provide one
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"` // Enable OpenAPI endpoints
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	BANDGATE_UPSTREAM_URL          - Backend origin (default: https://bandchu.o-r.kr)
//	BANDGATE_UPSTREAM_TIMEOUT      - Upstream timeout (default: 30s)
//	BANDGATE_UPSTREAM_MAX_BODY     - Inbound body limit in bytes (default: 10MiB)
//	BANDGATE_SERVER_HOST           - Server host (default: 0.0.0.0)
//	BANDGATE_SERVER_PORT           - Server port (default: 8080)
//	BANDGATE_CLIENT_API_BASE_URL   - Base URL the CLI client calls (default: http://127.0.0.1:8080)
//	BANDGATE_CLIENT_TIMEOUT        - Client timeout (default: 10s)
//	BANDGATE_STORAGE_DRIVER        - Local storage: sqlite or memory (default: sqlite)
//	BANDGATE_STORAGE_DSN           - Local storage path (default: bandgate.db)
//	BANDGATE_STORAGE_NAMESPACE     - Local storage namespace (default: default)
//	BANDGATE_GOOGLE_CLIENT_ID      - Fallback Google client id
//	BANDGATE_LOG_LEVEL             - Log level: debug, info, warn, error (default: info)
//	BANDGATE_LOG_FORMAT            - Log format: json or console (default: json)
//	BANDGATE_METRICS_ENABLED       - Enable /metrics endpoint (default: false)
//	BANDGATE_OPENAPI_ENABLED       - Enable OpenAPI/Swagger (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads from path when the file exists, otherwise from the
// environment and defaults.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// HasEnvConfig returns true if the upstream origin is set in the environment.
func HasEnvConfig() bool {
	return os.Getenv("BANDGATE_UPSTREAM_URL") != ""
}

// applyEnvOverrides applies BANDGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("BANDGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("BANDGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BANDGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("BANDGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Upstream configuration
	if v := os.Getenv("BANDGATE_UPSTREAM_URL"); v != "" {
		cfg.Upstream.URL = v
	}
	if v := os.Getenv("BANDGATE_UPSTREAM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.Timeout = d
		}
	}
	if v := os.Getenv("BANDGATE_UPSTREAM_MAX_BODY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upstream.MaxBodyBytes = n
		}
	}

	// Client configuration
	if v := os.Getenv("BANDGATE_CLIENT_API_BASE_URL"); v != "" {
		cfg.Client.APIBaseURL = v
	}
	if v := os.Getenv("BANDGATE_CLIENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Client.Timeout = d
		}
	}

	// Storage configuration
	if v := os.Getenv("BANDGATE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("BANDGATE_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BANDGATE_STORAGE_NAMESPACE"); v != "" {
		cfg.Storage.Namespace = v
	}

	// Auth configuration
	if v := os.Getenv("BANDGATE_GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}

	// Logging configuration
	if v := os.Getenv("BANDGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BANDGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("BANDGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("BANDGATE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	// OpenAPI configuration
	if v := os.Getenv("BANDGATE_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}

	if cfg.Upstream.URL == "" {
		cfg.Upstream.URL = DefaultUpstreamURL
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 30 * time.Second
	}
	if cfg.Upstream.MaxBodyBytes == 0 {
		cfg.Upstream.MaxBodyBytes = 10 << 20
	}

	if cfg.Client.APIBaseURL == "" {
		cfg.Client.APIBaseURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 10 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "bandgate.db"
	}
	if cfg.Storage.Namespace == "" {
		cfg.Storage.Namespace = "default"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if err := validateURL("upstream.url", cfg.Upstream.URL); err != nil {
		return err
	}
	if err := validateURL("client.api_base_url", cfg.Client.APIBaseURL); err != nil {
		return err
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Upstream.MaxBodyBytes < 0 {
		return fmt.Errorf("upstream.max_body_bytes must not be negative")
	}

	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Storage.Driver] {
		return fmt.Errorf("storage.driver must be 'sqlite' or 'memory', got %q", cfg.Storage.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, raw)
	}
	return nil
}
