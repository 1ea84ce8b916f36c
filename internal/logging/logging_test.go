package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Writer: &buf})

	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected json output: %v", err)
	}
	if entry["msg"] != "shown" || entry["k"] != "v" {
		t.Fatalf("unexpected entry %v", entry)
	}

	buf.Reset()
	New(Config{Format: "TEXT", Writer: &buf}).Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v want %v", in, got, want)
		}
	}
}

func TestStartSpanNestsUnderTrace(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(Config{Level: "debug", Writer: &buf}))

	ctx, parent := StartSpan(ctx, "parent")
	traceID := TraceIDFromContext(ctx)
	parentID := SpanIDFromContext(ctx)

	childCtx, child := StartSpan(ctx, "child")
	if TraceIDFromContext(childCtx) != traceID {
		t.Fatal("child span should share the trace id")
	}
	if SpanIDFromContext(childCtx) == parentID {
		t.Fatal("child span should get its own span id")
	}
	child.End()
	parent.End()

	if !strings.Contains(buf.String(), parentID) || strings.Count(buf.String(), "span completed") != 2 {
		t.Fatalf("expected both spans logged with parent id, got %q", buf.String())
	}
}

func TestSpanReusesRequestIDAndReportsFailure(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(Config{Writer: &buf}))
	ctx = WithRequestID(ctx, "req-123")

	ctx, span := StartSpan(ctx, "op")
	if got := TraceIDFromContext(ctx); got != "req-123" {
		t.Fatalf("expected trace id to reuse the request id, got %q", got)
	}
	span.RecordError(errors.New("boom"))
	span.End()

	out := buf.String()
	if !strings.Contains(out, "span failed") || !strings.Contains(out, "boom") {
		t.Fatalf("expected failed span at warn level, got %q", out)
	}
}
