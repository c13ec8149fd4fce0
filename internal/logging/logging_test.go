package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	logger.Warn("file skipped", "path", "a b.py", "bytes", 42)

	want := "[warn] file skipped | path=\"a b.py\" bytes=42\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestHandlerLevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Debug("hidden")
	logger.Error("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("filtered records written: %q", out)
	}
	if !strings.Contains(out, "[error] shown") {
		t.Errorf("missing error record: %q", out)
	}
}

func TestHandlerAttrsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug).With("run", 1).WithGroup("summary")
	logger.Debug("request", "provider", "ollama")

	want := "[debug] request | run=1 summary.provider=ollama\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestDiscardLogger(t *testing.T) {
	t.Parallel()

	logger := NewDiscardLogger()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}
	if OrDiscard(nil) == nil {
		t.Error("OrDiscard(nil) returned nil")
	}
}

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"off", LevelSilent},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base      slog.Level
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{slog.LevelWarn, 0, false, slog.LevelWarn},
		{slog.LevelWarn, 1, false, slog.LevelInfo},
		{slog.LevelDebug, 1, false, slog.LevelDebug},
		{slog.LevelWarn, 2, false, slog.LevelDebug},
		{slog.LevelWarn, 3, true, LevelSilent},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.base, tt.verbosity, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%v, %d, %v) = %v, want %v", tt.base, tt.verbosity, tt.quiet, got, tt.want)
		}
	}
}
