package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/artpar/bandgate/config"
	"github.com/rs/zerolog"
)

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Upstream.URL != "http://localhost:3000" {
		t.Errorf("Upstream.URL = %s, want http://localhost:3000", got.Upstream.URL)
	}
	if !filepath.IsAbs(h.Path()) {
		t.Errorf("Path() = %s, want absolute", h.Path())
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if got := h.Get().Upstream.MaxBodyBytes; got != 4096 {
		t.Errorf("initial MaxBodyBytes = %d, want 4096", got)
	}

	newContent := `
upstream:
  url: "http://localhost:3000"
  max_body_bytes: 8192
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	cfg := h.Get()
	if cfg.Upstream.MaxBodyBytes != 8192 {
		t.Errorf("reloaded MaxBodyBytes = %d, want 8192", cfg.Upstream.MaxBodyBytes)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("reloaded Logging.Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var receivedCfg *config.Config

	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		receivedCfg = cfg
		mu.Unlock()
	})

	if err := os.WriteFile(path, []byte("upstream:\n  url: \"http://localhost:4000\"\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if receivedCfg == nil {
		t.Fatal("OnChange callback was not called")
	}
	if receivedCfg.Upstream.URL != "http://localhost:4000" {
		t.Errorf("callback received URL = %s, want http://localhost:4000", receivedCfg.Upstream.URL)
	}
}

func TestHolder_OnReload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var results []error
	h.OnReload(func(err error) { results = append(results, err) })

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if err := os.WriteFile(path, []byte("logging:\n  level: \"loud\"\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}
	h.Reload()

	if len(results) != 2 {
		t.Fatalf("observer called %d times, want 2", len(results))
	}
	if results[0] != nil {
		t.Errorf("first result = %v, want nil", results[0])
	}
	if results[1] == nil {
		t.Error("second result = nil, want error")
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	invalidContent := `
upstream:
  url: "not a url"
`
	if err := os.WriteFile(path, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}

	if got := h.Get().Upstream.URL; got != "http://localhost:3000" {
		t.Errorf("should keep old config, got Upstream.URL = %s", got)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan struct{}, 8)
	h.OnChange(func(*config.Config) { changed <- struct{}{} })

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	if err := os.WriteFile(path, []byte("upstream:\n  url: \"http://localhost:5000\"\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("file watcher did not trigger reload")
	}

	// A write can arrive as several events; wait for the last one to land.
	deadline := time.Now().Add(2 * time.Second)
	for h.Get().Upstream.URL != "http://localhost:5000" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := h.Get().Upstream.URL; got != "http://localhost:5000" {
		t.Errorf("after file watch, Upstream.URL = %s, want http://localhost:5000", got)
	}
}

func TestHolder_StopTwice(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.Stop()
	h.Stop()
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}

	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	reloadable := config.ReloadableFields()
	for _, want := range []string{"logging.level", "upstream.max_body_bytes"} {
		if !contains(reloadable, want) {
			t.Errorf("%s not in ReloadableFields", want)
		}
	}

	for _, f := range config.NonReloadableFields() {
		if contains(reloadable, f) {
			t.Errorf("%s listed as both reloadable and non-reloadable", f)
		}
	}
}

func TestNonReloadableFields(t *testing.T) {
	fields := config.NonReloadableFields()
	for _, want := range []string{"server.host", "server.port", "upstream.url", "storage.dsn"} {
		if !contains(fields, want) {
			t.Errorf("%s not in NonReloadableFields", want)
		}
	}
}

// Helpers

func validConfig() string {
	return `
upstream:
  url: "http://localhost:3000"
  max_body_bytes: 4096
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
