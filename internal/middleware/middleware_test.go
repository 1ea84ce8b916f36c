package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/logging"
)

func TestRequestLoggerPropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	const id = "3f1c9a4e-4b6e-4f61-9a3b-7f9a0f2d1c11"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != id || rec.Header().Get(RequestIDHeader) != id {
		t.Fatalf("expected request id %s to propagate, got ctx=%q header=%q", id, seen, rec.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), `"status":418`) {
		t.Fatalf("expected completion log with status, got %q", buf.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) == "not a uuid" {
		t.Fatal("malformed request ids must be replaced")
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	handler := RequestLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("unexpected panic response %d %q", rec.Code, rec.Body.String())
	}
}

func TestTimeoutAttachesDeadline(t *testing.T) {
	var hasDeadline bool
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}), Timeout(time.Second))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !hasDeadline {
		t.Fatal("expected request context to carry a deadline")
	}
}

func TestKeyedRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 2, time.Minute)
	current := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter.WithNowFunc(func() time.Time { return current })

	if !limiter.Allow("login:1.1.1.1") || !limiter.Allow("login:1.1.1.1") {
		t.Fatal("expected burst to be allowed")
	}
	if limiter.Allow("login:1.1.1.1") {
		t.Fatal("expected third request to be limited")
	}
	if !limiter.Allow("login:2.2.2.2") {
		t.Fatal("expected independent key to be allowed")
	}

	current = current.Add(time.Minute)
	if !limiter.Allow("login:1.1.1.1") {
		t.Fatal("expected token to refill after the window")
	}

	current = current.Add(10 * time.Minute)
	limiter.Allow("login:3.3.3.3")
	if limiter.Len() != 1 {
		t.Fatalf("expected idle keys to be swept, got %d", limiter.Len())
	}
}
