package logging

import (
	"log/slog"
	"testing"

	"github.com/shadowline/shadowline-core/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewDoesNotPanic(t *testing.T) {
	cfgs := []config.LoggingConfig{
		{Level: "debug", Format: "text", Output: "stderr"},
		{Level: "info", Format: "json", Output: "stdout"},
		{},
	}
	for _, cfg := range cfgs {
		logger := New(cfg, "test")
		if logger == nil {
			t.Fatal("New() returned nil")
		}
		logger.Debug("debug message", "key", "value")
	}
}

func TestWithAddsAttributes(t *testing.T) {
	logger := Default()
	child := logger.With("component", "test")
	if child == nil || child.Logger == nil {
		t.Fatal("With() returned nil")
	}
	if child == logger {
		t.Error("With() should return a new Logger")
	}
}
