package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/drugcost-api/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for input, want := range tests {
		if got := parseLogLevel(input); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestGetConsoleLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		env      config.Environment
		level    string
		verbose  bool
		expected slog.Level
	}{
		{"dev default", config.EnvDevelopment, "", false, slog.LevelInfo},
		{"staging default", config.EnvStaging, "", false, slog.LevelWarn},
		{"prod default", config.EnvProduction, "", false, slog.LevelWarn},
		{"prod override", config.EnvProduction, "debug", false, slog.LevelDebug},
		{"dev override", config.EnvDevelopment, "error", false, slog.LevelError},
		{"test is quiet", config.EnvTest, "", false, slog.LevelError},
		{"test ignores override", config.EnvTest, "debug", false, slog.LevelError},
		{"test verbose", config.EnvTest, "debug", true, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetConsoleLogLevel(tt.env, tt.level, tt.verbose)
			if got != tt.expected {
				t.Errorf("GetConsoleLogLevel(%v, %q, %v) = %v, want %v", tt.env, tt.level, tt.verbose, got, tt.expected)
			}
		})
	}

	if GetFileLogLevel() != slog.LevelDebug {
		t.Errorf("GetFileLogLevel() = %v, want debug", GetFileLogLevel())
	}
}

func TestInitLoggerConsoleFallback(t *testing.T) {
	previous := DefaultLoggingService
	previousDefault := slog.Default()
	DefaultLoggingService = nil
	t.Cleanup(func() {
		_ = DefaultLoggingService.Close()
		DefaultLoggingService = previous
		slog.SetDefault(previousDefault)
	})

	// A regular file where the log directory should be
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var console bytes.Buffer
	err := initLogger(&console, blocker, config.EnvDevelopment, "warn", false, 4, 1024)
	if err == nil {
		t.Fatal("expected an error for an unusable log directory")
	}
	if DefaultLoggingService == nil || DefaultLoggingService.file != nil {
		t.Fatal("expected a console-only logging service")
	}

	Info("catalog loaded", "products", 2)
	Warn("catalog stale", "age_hours", 30)

	out := console.String()
	if strings.Contains(out, "catalog loaded") {
		t.Errorf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "catalog stale") || !strings.Contains(out, "age_hours=30") {
		t.Errorf("warn entry missing: %s", out)
	}
}
