package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/giygas/drugcost-api/config"
)

// LoggingService owns the process logger and the file it writes to
type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

// Close flushes and closes the log file
func (s *LoggingService) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

var DefaultLoggingService *LoggingService

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level for env. LOG_LEVEL overrides the
// environment default except under test, where only verbose raises it to info.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}
	if logLevel != "" {
		return parseLogLevel(logLevel)
	}
	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel is the level for the rotating file, which keeps everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// InitLogger initializes the global logger with development defaults
func InitLogger(logDir string) {
	if err := InitLoggerWithEnvironment(logDir, config.EnvDevelopment, "", 4, defaultMaxFileSize); err != nil {
		Warn("File logging disabled", "error", err)
	}
}

// InitLoggerWithEnvironment replaces the global logger. Console output is text,
// the rotating file gets JSON. When the file cannot be opened the console
// logger is still installed and the error returned.
func InitLoggerWithEnvironment(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) error {
	return initLogger(os.Stdout, logDir, env, logLevel, verbose(), retentionWeeks, maxFileSize)
}

// verbose reports whether go test -v is running. testing.Verbose panics outside a test binary.
func verbose() bool {
	return testing.Testing() && testing.Verbose()
}

func initLogger(console io.Writer, logDir string, env config.Environment, logLevel string, verbose bool, retentionWeeks int, maxFileSize int64) error {
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(env, logLevel, verbose),
	})

	previous := DefaultLoggingService
	service := &LoggingService{Logger: slog.New(consoleHandler)}

	file, err := openRotatingLogger(logDir, retentionWeeks, maxFileSize)
	if err == nil {
		service.file = file
		service.Logger = slog.New(&multiHandler{handlers: []slog.Handler{
			consoleHandler,
			slog.NewJSONHandler(file, &slog.HandlerOptions{Level: GetFileLogLevel()}),
		}}).With("env", env.String())
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
	_ = previous.Close()
	return err
}

// ResetForTest installs a logger writing under dir and restores the previous
// one when the test ends.
func ResetForTest(t testing.TB, dir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	t.Helper()
	previous := DefaultLoggingService
	previousDefault := slog.Default()
	DefaultLoggingService = nil

	if err := initLogger(os.Stdout, dir, env, logLevel, verbose(), retentionWeeks, maxFileSize); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	t.Cleanup(func() {
		_ = DefaultLoggingService.Close()
		DefaultLoggingService = previous
		slog.SetDefault(previousDefault)
	})
}

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}

// Logger returns the process logger for components that take a *slog.Logger
func Logger() *slog.Logger {
	return logger()
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}
