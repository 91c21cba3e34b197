// Package logging provides the process-wide structured logger.
//
// Call Init once at startup to choose level and destination; every other
// package obtains the logger through GetLogger. If GetLogger is called before
// Init, a default stderr logger is created lazily so packages that log during
// setup are safe.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
	isInited bool
)

// Config holds logger configuration.
type Config struct {
	Level      string // "debug", "info", "warn", "error"; empty means info
	OutputPath string // empty for stderr, or a file path
	Format     string // "json" or "console"
}

// Init initializes the global logger. Calling Init twice is an error; Close
// first to reinitialize.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	level := zapcore.InfoLevel
	if config.Level != "" {
		if err := level.Set(config.Level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	if config.OutputPath != "" {
		cfg.OutputPaths = []string{config.OutputPath}
	}
	if config.Format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	logger = built
	isInited = true
	return nil
}

// GetLogger returns the global logger, creating a default stderr logger if
// Init was never called.
func GetLogger() *zap.Logger {
	loggerMu.RLock()
	if logger != nil {
		defer loggerMu.RUnlock()
		return logger
	}
	loggerMu.RUnlock()

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		built, err := zap.NewProduction()
		if err != nil {
			built = zap.NewNop()
		}
		logger = built
	}
	return logger
}

// Close flushes buffered log entries and resets the package so Init can be
// called again.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	var err error
	if logger != nil {
		err = logger.Sync()
	}
	logger = nil
	isInited = false
	return err
}
