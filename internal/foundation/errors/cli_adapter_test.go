package errors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad mode").Build(), expected: 2},
		{name: "config", err: ConfigError("unreadable job list").Build(), expected: 7},
		{name: "auth", err: NewError(CategoryAuth, "denied").Build(), expected: 5},
		{name: "git", err: GitError("fetch failed").Build(), expected: 8},
		{name: "build", err: BuildError("docker build failed").Build(), expected: 11},
		{name: "schedule", err: ScheduleError("render failed").Build(), expected: 11},
		{name: "wrapped build", err: fmt.Errorf("pair: %w", BuildError("x").Build()), expected: 11},
		{name: "daemon", err: DaemonError("scheduler").Build(), expected: 12},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "unclassified", err: errors.New("unknown error"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := GitError("clone failed").
		WithCause(errors.New("repository not found")).
		WithContext("remote", "https://example.com/a.git").
		Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	if got := quiet.FormatError(err); got != "Error: [git:error] clone failed: repository not found" {
		t.Errorf("unexpected non-verbose format %q", got)
	}
	if quiet.FormatError(nil) != "" {
		t.Error("nil error should format empty")
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	got := verbose.FormatError(err)
	if !strings.Contains(got, "remote: https://example.com/a.git") {
		t.Errorf("expected context in verbose format, got %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var code int
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("bad jobs file").Build())

	if code != 7 {
		t.Errorf("expected exit code 7, got %d", code)
	}
	if !strings.Contains(out.String(), "bad jobs file") {
		t.Errorf("expected message on output, got %q", out.String())
	}
}
