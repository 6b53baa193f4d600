package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giygas/drugcost-api/config"
)

func currentLogPath(dir string) string {
	return filepath.Join(dir, weekFileName(getWeekKey(time.Now())))
}

func TestRotatingLogger(t *testing.T) {
	tempDir := t.TempDir()
	rl, err := openRotatingLogger(tempDir, 1, 0)
	if err != nil {
		t.Fatalf("Failed to open logger: %v", err)
	}

	if _, err := rl.Write([]byte("Test log message\n")); err != nil {
		t.Fatalf("Failed to write to log: %v", err)
	}

	content, err := os.ReadFile(currentLogPath(tempDir))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "Test log message") {
		t.Errorf("Log file does not contain test message: %s", content)
	}

	if err := rl.Close(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}
}

func TestGetWeekKey(t *testing.T) {
	testCases := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-W01"},
		{time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), "2023-W52"},
		{time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), "2026-W42"},
	}
	for _, tc := range testCases {
		if got := getWeekKey(tc.date); got != tc.expected {
			t.Errorf("getWeekKey(%v) = %s, want %s", tc.date, got, tc.expected)
		}
	}
}

func TestCleanupOldLogs(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(tempDir, 1)

	oldFile := filepath.Join(tempDir, filePrefix+"2025-W30.log")
	newFile := currentLogPath(tempDir)
	foreign := filepath.Join(tempDir, "other.log")
	for _, path := range []string{oldFile, newFile, foreign} {
		if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
			t.Fatalf("Failed to create %s: %v", path, err)
		}
	}
	threeWeeksAgo := time.Now().AddDate(0, 0, -21)
	for _, path := range []string{oldFile, foreign} {
		if err := os.Chtimes(path, threeWeeksAgo, threeWeeksAgo); err != nil {
			t.Fatalf("Failed to age %s: %v", path, err)
		}
	}

	deleted, err := rl.cleanupOldLogs()
	if err != nil {
		t.Fatalf("Failed to cleanup old logs: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted file, got %d", deleted)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Errorf("Old log file %s was not deleted", oldFile)
	}
	for _, path := range []string{newFile, foreign} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s was incorrectly deleted", path)
		}
	}
}

func TestRotatingLoggerWithSizeLimit(t *testing.T) {
	tempDir := t.TempDir()
	rl, err := openRotatingLogger(tempDir, 1, 100)
	if err != nil {
		t.Fatalf("Failed to open logger: %v", err)
	}
	defer func() { _ = rl.Close() }()

	line := []byte(strings.Repeat("x", 39) + "\n")
	for i := 0; i < 5; i++ {
		if _, err := rl.Write(line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	week := getWeekKey(time.Now())
	expected := []string{
		weekFileName(week),
		fmt.Sprintf("%s%s_01.log", filePrefix, week),
		fmt.Sprintf("%s%s_02.log", filePrefix, week),
	}
	for _, name := range expected {
		info, err := os.Stat(filepath.Join(tempDir, name))
		if err != nil {
			t.Errorf("Expected %s: %v", name, err)
			continue
		}
		if info.Size() > 100 {
			t.Errorf("%s exceeds the size limit: %d", name, info.Size())
		}
	}
}

func TestRotatingLoggerExistingFileAtSizeLimit(t *testing.T) {
	tempDir := t.TempDir()
	full := currentLogPath(tempDir)
	if err := os.WriteFile(full, []byte(strings.Repeat("x", 1024)), 0o644); err != nil {
		t.Fatal(err)
	}

	rl, err := openRotatingLogger(tempDir, 1, 1024)
	if err != nil {
		t.Fatalf("Failed to open logger: %v", err)
	}
	defer func() { _ = rl.Close() }()

	want := fmt.Sprintf("%s%s_01.log", filePrefix, getWeekKey(time.Now()))
	if got := filepath.Base(rl.currentFile.Name()); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestRotatingLoggerExistingFileBelowSizeLimit(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.WriteFile(currentLogPath(tempDir), []byte("existing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rl, err := openRotatingLogger(tempDir, 1, 1024)
	if err != nil {
		t.Fatalf("Failed to open logger: %v", err)
	}
	defer func() { _ = rl.Close() }()

	if got := rl.currentSize.Load(); got != int64(len("existing\n")) {
		t.Errorf("Expected size carried over, got %d", got)
	}
	if _, err := rl.Write([]byte("appended\n")); err != nil {
		t.Fatal(err)
	}
	content, _ := os.ReadFile(currentLogPath(tempDir))
	if string(content) != "existing\nappended\n" {
		t.Errorf("Expected append, got %q", content)
	}
}

func TestOpenRotatingLoggerInvalidDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := openRotatingLogger(filepath.Join(file, "logs"), 1, 0); err == nil {
		t.Error("Expected an error for a directory under a regular file")
	}
}

func TestRotatingLoggerConcurrentWrites(t *testing.T) {
	tempDir := t.TempDir()
	rl, err := openRotatingLogger(tempDir, 1, 2048)
	if err != nil {
		t.Fatalf("Failed to open logger: %v", err)
	}
	defer func() { _ = rl.Close() }()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if _, err := fmt.Fprintf(rl, "goroutine %d line %d\n", g, i); err != nil {
					t.Errorf("write failed: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	matches, _ := filepath.Glob(filepath.Join(tempDir, filePrefix+"*.log"))
	lines := 0
	for _, m := range matches {
		content, _ := os.ReadFile(m)
		lines += strings.Count(string(content), "\n")
	}
	if lines != 400 {
		t.Errorf("Expected 400 lines across %d files, got %d", len(matches), lines)
	}
}

func TestGlobalLoggingService(t *testing.T) {
	tempDir := t.TempDir()
	ResetForTest(t, tempDir, config.EnvTest, "", 2, 100*1024*1024)

	if DefaultLoggingService == nil {
		t.Fatal("DefaultLoggingService was not initialized")
	}

	Debug("debug from global logger", "drug", "LIPITOR")
	Info("info from global logger")
	Warn("warn from global logger")
	Error("error from global logger")

	content, err := os.ReadFile(currentLogPath(tempDir))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 JSON lines (file keeps debug), got %d: %s", len(lines), content)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Expected JSON log line: %v", err)
	}
	if first["drug"] != "LIPITOR" || first["env"] != "test" || first["level"] != "DEBUG" {
		t.Errorf("Unexpected log line: %v", first)
	}
}

func TestResetForTestRestoresPrevious(t *testing.T) {
	before := DefaultLoggingService

	t.Run("inner", func(t *testing.T) {
		ResetForTest(t, t.TempDir(), config.EnvTest, "", 1, 1024*1024)
		if DefaultLoggingService == before {
			t.Error("Expected a new logging service")
		}
	})

	if DefaultLoggingService != before {
		t.Error("Expected the previous logging service to be restored")
	}
}

func TestMultiHandlerMethods(t *testing.T) {
	var a, b strings.Builder
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected info to be enabled by the first handler")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected debug to be disabled")
	}

	logger := slog.New(h).With("run_id", "abc").WithGroup("req")
	logger.Info("only first", "path", "/v1/compare")
	logger.Error("both")

	if !strings.Contains(a.String(), "run_id=abc") || !strings.Contains(a.String(), "req.path=/v1/compare") {
		t.Errorf("Attributes or group missing: %s", a.String())
	}
	if strings.Contains(b.String(), "only first") || !strings.Contains(b.String(), "both") {
		t.Errorf("Level filtering failed: %s", b.String())
	}
}
