// Package logging holds the process-wide structured logger.
//
// The logger is a log/slog logger configured once at startup:
//
//	logging.Init(logging.Config{Level: "debug", Format: "json"})
//	logging.WithTable("users").Info("table created")
//
// GetLogger falls back to an info-level text logger on stderr when Init
// was never called.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	logger  *slog.Logger
	logFile *os.File
	mu      sync.RWMutex
)

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	OutputPath string // empty for stderr
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a logger writing to w without touching the global logger.
func New(w io.Writer, config Config) (*slog.Logger, error) {
	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(config.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Init replaces the global logger. A previously opened log file is closed.
func Init(config Config) error {
	var (
		writer io.Writer = os.Stderr
		file   *os.File
	)

	if config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750); err != nil {
			return err
		}
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		writer, file = f, f
	}

	l, err := New(writer, config)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logger, logFile = l, file
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()

	logger = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func GetLogger() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func WithTable(table string) *slog.Logger {
	return GetLogger().With("table", table)
}

func WithSession(locator, driver string) *slog.Logger {
	return GetLogger().With("locator", locator, "driver", driver)
}
