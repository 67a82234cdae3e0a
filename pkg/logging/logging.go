// Package logging provides structured, per-component logging for the
// batch-mint engine and its CLI.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Level is a log verbosity level.
type Level = log.Level

// Log levels.
const (
	DebugLevel = log.DebugLevel
	InfoLevel  = log.InfoLevel
	WarnLevel  = log.WarnLevel
	ErrorLevel = log.ErrorLevel
	FatalLevel = log.FatalLevel
)

// Logger wraps charmbracelet/log with the sub-logger naming this
// project uses (commit, reveal, broadcast, recovery).
type Logger struct {
	*log.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  string
	Prefix string
	Output io.Writer
}

// DefaultConfig returns a default logging configuration: info level,
// no prefix, stderr output.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Output: os.Stderr,
	}
}

// New creates a logger from cfg, falling back to DefaultConfig for a
// nil cfg or unset fields.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	logger := log.NewWithOptions(output, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          cfg.Prefix,
	})
	logger.SetLevel(ParseLevel(cfg.Level))

	return &Logger{Logger: logger}
}

// Default returns the package-default logger.
func Default() *Logger {
	return New(DefaultConfig())
}

// ParseLevel parses a case-insensitive level name, defaulting to info
// on anything unrecognized.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// Component returns a named sub-logger for one of the engine's
// components (e.g. "commit", "reveal", "broadcast", "recovery").
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}
