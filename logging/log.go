// Package logging wraps log/slog with the component attribute used across the
// drivers, the wire transport and the command line tool. The core pin package
// does not log.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

const (
	ComponentDriver    Component = "driver"
	ComponentTransport Component = "transport"
	ComponentServer    Component = "server"
	ComponentCLI       Component = "cli"
)

// Format specifies the output format for logging.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

var (
	defaultLogger *slog.Logger
	level         = new(slog.LevelVar)
	mu            sync.RWMutex
)

func init() {
	level.Set(slog.LevelWarn)
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SetLevel sets the minimum level for all logging.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Level returns the current minimum level.
func Level() slog.Level {
	return level.Level()
}

// SetLogger replaces the default logger.
func SetLogger(logger *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// Logger returns the current default logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetOutput points the default logger at w using format.
func SetOutput(w io.Writer, format Format) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	SetLogger(slog.New(h))
}

// ParseFormat maps "text" or "json" to a Format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "text", "":
		return FormatText, true
	case "json":
		return FormatJSON, true
	}
	return FormatText, false
}

func log(l slog.Level, c Component, msg string, args []any) {
	logger := Logger()
	logger.Log(context.Background(), l, msg, append([]any{"component", string(c)}, args...)...)
}

// Debug logs a debug message with the given component.
func Debug(c Component, msg string, args ...any) {
	log(slog.LevelDebug, c, msg, args)
}

// Info logs an info message with the given component.
func Info(c Component, msg string, args ...any) {
	log(slog.LevelInfo, c, msg, args)
}

// Warn logs a warning message with the given component.
func Warn(c Component, msg string, args ...any) {
	log(slog.LevelWarn, c, msg, args)
}

// Error logs an error message with the given component.
func Error(c Component, msg string, args ...any) {
	log(slog.LevelError, c, msg, args)
}
