// Package logger provides the structured logging façade used across the
// engine, wrapping charmbracelet/log with a small level/context layer.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
)

type ctxKey string

// LoggerCtxKey is the context.Context key under which a Logger is stored.
const LoggerCtxKey ctxKey = "rulez_logger"

// LogLevel names the supported logging verbosity tiers.
type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	DisabledLevel LogLevel = "disabled"
)

// ToCharmlogLevel maps a LogLevel to the equivalent charmbracelet/log level.
// Unknown levels default to InfoLevel.
func (l LogLevel) ToCharmlogLevel() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	case DisabledLevel:
		return charmlog.Level(1000)
	default:
		return charmlog.InfoLevel
	}
}

// Config controls logger construction.
type Config struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns the configuration used outside of tests.
func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stdout,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// TestConfig returns a silent configuration suitable for unit tests.
func TestConfig() *Config {
	return &Config{
		Level:      DisabledLevel,
		Output:     io.Discard,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// Logger is the minimal structured-logging interface used by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(keyvals ...any) Logger
}

type charmLogger struct {
	l *charmlog.Logger
}

func (c *charmLogger) Debug(msg string, args ...any) { c.l.Debug(msg, args...) }
func (c *charmLogger) Info(msg string, args ...any)  { c.l.Info(msg, args...) }
func (c *charmLogger) Warn(msg string, args ...any)  { c.l.Warn(msg, args...) }
func (c *charmLogger) Error(msg string, args ...any) { c.l.Error(msg, args...) }

func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

// NewLogger builds a Logger from config. A nil config falls back to
// DefaultConfig, unless running under `go test`, in which case TestConfig is
// used so test output stays silent by default.
func NewLogger(config *Config) Logger {
	if config == nil {
		if IsTestEnvironment() {
			config = TestConfig()
		} else {
			config = DefaultConfig()
		}
	}
	opts := charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      config.TimeFormat,
		ReportCaller:    config.AddSource,
	}
	if config.JSON {
		opts.Formatter = charmlog.JSONFormatter
	}
	base := charmlog.NewWithOptions(config.Output, opts)
	base.SetLevel(config.Level.ToCharmlogLevel())
	return &charmLogger{l: base}
}

// IsTestEnvironment reports whether the process is running under `go test`.
func IsTestEnvironment() bool {
	if flag := testing.Testing(); flag {
		return true
	}
	return strings.HasSuffix(os.Args[0], ".test") || strings.Contains(os.Args[0], "/_test/")
}

// ContextWithLogger returns a copy of ctx carrying l.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, l)
}

// FromContext returns the Logger stored in ctx, or a default Logger when
// absent, of the wrong type, or nil.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return NewLogger(nil)
	}
	l, ok := ctx.Value(LoggerCtxKey).(Logger)
	if !ok || l == nil {
		return NewLogger(nil)
	}
	return l
}
