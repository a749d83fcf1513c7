// Package logging builds the zerolog loggers used by vserver.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/vitalvas/vserver/config"
)

// NewLogger creates a zerolog logger writing JSON to output at the given
// level. A nil output writes to stderr.
func NewLogger(level zerolog.Level, output io.Writer) zerolog.Logger {
	if output == nil {
		output = os.Stderr
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// New creates the application logger from the logging configuration.
//
// Logs go to console, rendered for humans when cfg.Console is set. With
// cfg.LogToFile they additionally go to a rotating JSON log file. The
// returned closer releases the log file and is never nil.
func New(cfg config.LogConfig, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	if console == nil {
		console = os.Stderr
	}
	if cfg.Console {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}
	}

	if !cfg.LogToFile {
		return NewLogger(level, console), nopCloser{}, nil
	}

	// Configure rotating file logger
	fileLogger := &lumberjack.Logger{
		Filename:   cfg.LogFilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	return NewLogger(level, zerolog.MultiLevelWriter(console, fileLogger)), fileLogger, nil
}

// ParseLevel parses a level name. An empty name is info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging: %w", err)
	}
	return level, nil
}

// WithComponent returns a logger with the component field set.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
