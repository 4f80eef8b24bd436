package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the root command against a config pointing at backendURL.
func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()

	jsonOutput = false
	verbose = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCLIConfig(t *testing.T, backendURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bandgate.yaml")
	content := "client:\n  api_base_url: \"" + backendURL + "\"\n" +
		"storage:\n  driver: \"sqlite\"\n  dsn: \"" + filepath.Join(dir, "local.db") + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestCLI_Version(t *testing.T) {
	out, err := runCLI(t, "unused.yaml", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "bandgate ") {
		t.Errorf("output = %q, want bandgate prefix", out)
	}
}

func TestCLI_SubscribeFallsBackAndSyncs(t *testing.T) {
	var backendUp bool
	var subscribed []string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !backendUp {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.Method == http.MethodPost && r.URL.Path == "/api/subscriptions" {
			var body map[string]int64
			json.NewDecoder(r.Body).Decode(&body)
			subscribed = append(subscribed, r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"data":{"subscriptionId":1,"memberId":5,"artiProfileId":42,"createdAt":"2025-01-01T00:00:00.000Z"}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer backend.Close()

	cfg := writeCLIConfig(t, backend.URL)

	if _, err := runCLI(t, cfg, "login", "--token", "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := runCLI(t, cfg, "subscriptions", "add", "42")
	if err != nil {
		t.Fatalf("subscriptions add: %v", err)
	}
	if !strings.Contains(out, "Subscribed to artist 42") {
		t.Errorf("add output = %q", out)
	}

	out, err = runCLI(t, cfg, "subscriptions", "list")
	if err != nil {
		t.Fatalf("subscriptions list: %v", err)
	}
	if !strings.Contains(out, "42") {
		t.Errorf("list output = %q, want mock subscription 42", out)
	}

	backendUp = true
	out, err = runCLI(t, cfg, "--json", "subscriptions", "sync")
	if err != nil {
		t.Fatalf("subscriptions sync: %v", err)
	}
	var result struct {
		Synced  []int64 `json:"synced"`
		Pending []int64 `json:"pending"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode sync output %q: %v", out, err)
	}
	if len(result.Synced) != 1 || result.Synced[0] != 42 {
		t.Errorf("synced = %v, want [42]", result.Synced)
	}
	if len(subscribed) != 1 || subscribed[0] != "Bearer tok" {
		t.Errorf("backend saw authorization %v, want [Bearer tok]", subscribed)
	}
}

func TestCLI_ConcertsEmptyOnUnauthorized(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer backend.Close()

	out, err := runCLI(t, writeCLIConfig(t, backend.URL), "subscriptions", "concerts")
	if err != nil {
		t.Fatalf("subscriptions concerts: %v", err)
	}
	if !strings.Contains(out, "No subscribed artists.") {
		t.Errorf("output = %q", out)
	}
}

func TestCLI_InvalidArtistID(t *testing.T) {
	if _, err := runCLI(t, "unused.yaml", "subscriptions", "add", "abc"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestCLI_Validate(t *testing.T) {
	cfg := writeCLIConfig(t, "http://127.0.0.1:1")
	out, err := runCLI(t, cfg, "validate", "--check-storage")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "Configuration is valid.") {
		t.Errorf("output = %q", out)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
		zero    bool
	}{
		{"", false, true},
		{"2025-08-15", false, false},
		{"2025-08-15T19:00:00+09:00", false, false},
		{"15/08/2025", true, true},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDate(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got.IsZero() != tt.zero {
			t.Errorf("parseDate(%q) = %v, zero want %v", tt.in, got, tt.zero)
		}
	}
}
