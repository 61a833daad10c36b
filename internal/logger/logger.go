// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It keeps a printf-style package API on top of zerolog so call sites stay terse, and hands
// out component loggers for code that prefers structured fields.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu            sync.RWMutex
	defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// ParseLevel maps a configured level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init initializes the default logger with the specified level and format.
// Format "text" writes human-readable console lines; anything else writes JSON.
func Init(level string, format string) {
	InitWithWriter(level, format, os.Stderr)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(level string, format string, w io.Writer) {
	out := w
	if strings.ToLower(format) == "text" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339Nano}
	}

	l := zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()

	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// With returns a structured logger tagged with a component name.
func With(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger.With().Str("component", component).Logger()
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := defaultLogger
	return &l
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	current().Debug().Msgf(format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	current().Info().Msgf(format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	current().Warn().Msgf(format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	current().Error().Msgf(format, args...)
}

// Fatal logs a message and exits
func Fatal(format string, args ...interface{}) {
	current().WithLevel(zerolog.FatalLevel).Msgf(format, args...)
	os.Exit(1)
}
