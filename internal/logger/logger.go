package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	logFile *os.File
	logPath string
)

func init() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// Init configures the global logger. An empty path logs to stdout only;
// otherwise records are appended to the file as JSON and echoed to stdout.
func Init(level, path string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if path == "" {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// Rotate if file is too large (> 10MB)
	if info, err := os.Stat(path); err == nil && info.Size() > 10*1024*1024 {
		backupPath := fmt.Sprintf("%s.%d", path, time.Now().Unix())
		_ = os.Rename(path, backupPath)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	logPath = path

	log.Logger = zerolog.New(io.MultiWriter(console, f)).With().Timestamp().Logger()
	LogInfo("Logger initialized, log file: %s", logPath)
	return nil
}

// Close closes the log file if one is open
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// LogDebug logs a debug message
func LogDebug(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...any) {
	log.Error().Msgf(format, args...)
}

// LogPanic logs a panic with stack trace
func LogPanic(r any) {
	log.Error().Str("stack", string(debug.Stack())).Msgf("[PANIC] %v", r)
}

// Room returns a logger scoped to one room code.
func Room(code string) *zerolog.Logger {
	l := log.With().Str("room", code).Logger()
	return &l
}

// GetLogPath returns the current log file path
func GetLogPath() string {
	return logPath
}
