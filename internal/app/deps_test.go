package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/storage"
)

func testConfig() config.Config {
	return config.Config{
		StoreMode:      config.StoreMemory,
		RequestTimeout: time.Second,
		MaxUploadBytes: 1 << 20,
		Tokens: config.TokenConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
		},
		Reaper:    config.ReaperConfig{Workers: 1, QueueSize: 4, Timeout: time.Second},
		RateLimit: config.RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildDependencies(t *testing.T) {
	cfg := testConfig()

	blobs, err := newBlobStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	if _, ok := blobs.(*storage.MemoryStorage); !ok {
		t.Fatalf("expected in-memory blob store, got %T", blobs)
	}

	deps, cleanup, err := buildDependencies(cfg, memoryRepositories(), blobs, nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cleanup(ctx); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	}()

	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Accounts == nil {
		t.Fatal("expected account service to be configured")
	}
	if deps.Views == nil {
		t.Fatal("expected view composer to be configured")
	}
	if deps.Catalog == nil {
		t.Fatal("expected catalog service to be configured")
	}
	if deps.Engagement == nil {
		t.Fatal("expected engagement service to be configured")
	}
	if deps.Limiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
}

func TestBuildDependenciesRejectsSharedSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Tokens.RefreshSecret = cfg.Tokens.AccessSecret

	_, _, err := buildDependencies(cfg, memoryRepositories(), storage.NewMemoryStorage(""), nil, discardLogger())
	if err == nil {
		t.Fatal("expected error for identical token secrets")
	}
}

func TestNewBlobStoreUsesS3WhenBucketConfigured(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := testConfig()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "media", Region: "us-east-1", Endpoint: "http://localhost:9000", UsePathStyle: true}

	blobs, err := newBlobStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	if _, ok := blobs.(*storage.S3Storage); !ok {
		t.Fatalf("expected S3 blob store, got %T", blobs)
	}
}

func TestNewHandlerServesHealthAndRequestID(t *testing.T) {
	cfg := testConfig()
	deps, cleanup, err := buildDependencies(cfg, memoryRepositories(), storage.NewMemoryStorage(""), nil, discardLogger())
	if err != nil {
		t.Fatalf("build dependencies: %v", err)
	}
	defer func() { _ = cleanup(context.Background()) }()

	rec := httptest.NewRecorder()
	newHandler(cfg, deps, discardLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestListMigrationsSortsSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	want := []string{"0001_a.sql", "0002_b.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestShouldRetryMigration(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":           {nil, false},
		"deadline":      {context.DeadlineExceeded, true},
		"tx closed":     {pgx.ErrTxClosed, true},
		"serialization": {&pgconn.PgError{Code: "40001"}, true},
		"syntax":        {&pgconn.PgError{Code: "42601"}, false},
		"other":         {errors.New("boom"), false},
	}
	for name, tc := range cases {
		if got := shouldRetryMigration(tc.err); got != tc.want {
			t.Errorf("%s: got %v want %v", name, got, tc.want)
		}
	}
}

func TestMigrationBackoffIsCapped(t *testing.T) {
	if got := migrationBackoff(1); got != migrationBaseBackoff {
		t.Fatalf("first retry backoff %v", got)
	}
	if got := migrationBackoff(10); got != migrationMaxBackoff {
		t.Fatalf("expected cap %v got %v", migrationMaxBackoff, got)
	}
}
