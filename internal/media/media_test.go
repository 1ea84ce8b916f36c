package media

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

func TestFFProbeDuration(t *testing.T) {
	probe := NewFFProbe("ffprobe", time.Second)
	probe.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		wantArgs := []string{"-v", "error", "-show_entries", "format=duration", "-of", "json", "/tmp/clip.mp4"}
		if binary != "ffprobe" || len(args) != len(wantArgs) {
			t.Fatalf("unexpected invocation: %s %v", binary, args)
		}
		for i, arg := range wantArgs {
			if args[i] != arg {
				t.Fatalf("unexpected arg at %d: got %q want %q", i, args[i], arg)
			}
		}
		return []byte(`{"format":{"duration":"12.480000"}}`), nil
	}

	seconds, err := probe.Duration(context.Background(), "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	if seconds != 12.48 {
		t.Fatalf("unexpected duration %v", seconds)
	}
}

func TestFFProbeDurationFailures(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{name: "command error", err: errors.New("exit status 1")},
		{name: "not json", out: "garbage"},
		{name: "missing duration", out: `{"format":{}}`},
		{name: "not available", out: `{"format":{"duration":"N/A"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := NewFFProbe("", 0)
			probe.Run = func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tt.out), tt.err
			}
			if _, err := probe.Duration(context.Background(), "clip.mp4"); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	var nilProbe *FFProbe
	if _, err := nilProbe.Duration(context.Background(), "clip.mp4"); !errors.Is(err, ErrProbeUnavailable) {
		t.Fatalf("expected ErrProbeUnavailable, got %v", err)
	}
}

func TestSpoolCopiesAndCleansUp(t *testing.T) {
	dir := t.TempDir()

	spooled, err := Spool(dir, "Clip.MP4", strings.NewReader("frames"))
	if err != nil {
		t.Fatalf("Spool() error = %v", err)
	}
	if spooled.Size != int64(len("frames")) || !strings.HasSuffix(spooled.Path, ".mp4") {
		t.Fatalf("unexpected spool result %+v", spooled)
	}

	f, err := spooled.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "frames" {
		t.Fatalf("unexpected spooled content %q", data)
	}

	if err := spooled.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(spooled.Path); !os.IsNotExist(err) {
		t.Fatalf("expected spool file removed, got %v", err)
	}
	if err := spooled.Remove(); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestSpoolRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Spool(dir, "clip.mp4", failingReader{}); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no leftover files, got %d", len(entries))
	}
}
