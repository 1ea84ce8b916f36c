package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VIDTUBE_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AppPort != 8080 || cfg.StoreMode != StorePostgres || cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Tokens.AccessTTL != 15*time.Minute || cfg.Tokens.RefreshTTL != 240*time.Hour {
		t.Fatalf("unexpected token ttls: %+v", cfg.Tokens)
	}
	if !cfg.CookieSecure {
		t.Fatal("cookies should be secure by default")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("VIDTUBE_PORT", "9090")
	t.Setenv("VIDTUBE_STORE_MODE", "Memory")
	t.Setenv("VIDTUBE_TOKENS_ACCESS_SECRET", "a")
	t.Setenv("VIDTUBE_TOKENS_REFRESH_SECRET", "r")
	t.Setenv("VIDTUBE_TOKENS_ACCESS_TTL", "5m")
	t.Setenv("VIDTUBE_HTTP_COOKIE_SECURE", "false")
	t.Setenv("VIDTUBE_REAPER_WORKERS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AppPort != 9090 || cfg.StoreMode != StoreMemory {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Tokens.AccessSecret != "a" || cfg.Tokens.AccessTTL != 5*time.Minute {
		t.Fatalf("unexpected token config: %+v", cfg.Tokens)
	}
	if cfg.CookieSecure || cfg.Reaper.Workers != 7 {
		t.Fatalf("unexpected http/reaper config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vidtube.yaml")
	contents := "port: 7070\nobjectstore:\n  bucket: media\nlog:\n  format: text\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("VIDTUBE_CONFIG", path)
	t.Setenv("VIDTUBE_PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AppPort != 6060 {
		t.Fatalf("environment should win over file, got %d", cfg.AppPort)
	}
	if cfg.ObjectStore.Bucket != "media" || cfg.LogFormat != "text" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownStoreMode(t *testing.T) {
	t.Setenv("VIDTUBE_STORE_MODE", "sqlite")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store mode")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Config{StoreMode: StorePostgres}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"access_secret", "refresh_secret", "objectstore.bucket", "request_timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}

	same := Config{StoreMode: StoreMemory, RequestTimeout: time.Second, Tokens: TokenConfig{AccessSecret: "x", RefreshSecret: "x"}}
	if err := same.Validate(); err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected identical secrets to be rejected, got %v", err)
	}
}
