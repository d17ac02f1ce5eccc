// Package logger provides the shared logging facility for the backend.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json or console
	Output    io.Writer
	Component string
}

// Logger wraps a zerolog logger with the printf-style helpers the services
// use.
type Logger struct {
	zl zerolog.Logger
}

// New constructs a logger from the given configuration.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out}
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil && cfg.Level != "" {
		level = parsed
	}

	zl := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Component != "" {
		zl = zl.Str("component", cfg.Component)
	}
	return &Logger{zl: zl.Logger()}
}

// NewDefault returns an info-level JSON logger tagged with the component
// name. Services use it when the caller passes a nil logger.
func NewDefault(component string) *Logger {
	return New(Config{Component: component})
}

// With returns a logger with an extra key/value attached to every entry.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}

// Info logs a message with alternating key/value pairs.
func (l *Logger) Info(msg string, kv ...any) {
	l.zl.Info().Fields(fields(kv)).Msg(msg)
}

// Warn logs a warning with alternating key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) {
	l.zl.Warn().Fields(fields(kv)).Msg(msg)
}

// Error logs an error with alternating key/value pairs.
func (l *Logger) Error(msg string, kv ...any) {
	l.zl.Error().Fields(fields(kv)).Msg(msg)
}

func fields(kv []any) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		m[key] = kv[i+1]
	}
	return m
}
