package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const runIDKey contextKey = "runID"

// runIDAttr is the attribute key handlers use for the run id from the context
const runIDAttr = "runID"

// LevelTrace is below debug and used for oracle verdicts and per-line decisions.
const LevelTrace = slog.LevelDebug - 4

var (
	logger *slog.Logger
	out    io.Writer = os.Stdout
	level            = new(slog.LevelVar)
)

func init() {
	// Initialize with compact handler for readable console output
	level.Set(slog.LevelInfo)
	logger = slog.New(NewCompactHandler(out, &slog.HandlerOptions{Level: level}))
}

// SetLevel changes the logging level
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput redirects the compact handler to w.
func SetOutput(w io.Writer) {
	out = w
	logger = slog.New(NewCompactHandler(out, &slog.HandlerOptions{Level: level}))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput() {
	logger = slog.New(runIDHandler{slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})})
}

// runIDHandler adds the run id from the context to every record of a
// handler that does not read it itself.
type runIDHandler struct {
	slog.Handler
}

func (h runIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetRunID(ctx); id != "" {
		r = r.Clone()
		r.AddAttrs(slog.String(runIDAttr, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h runIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return runIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h runIDHandler) WithGroup(name string) slog.Handler {
	return runIDHandler{h.Handler.WithGroup(name)}
}

// LevelFromVerbosity maps a verbosity name or a -v count to a level.
// A non-empty name wins over the count.
func LevelFromVerbosity(name string, count int) slog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	switch {
	case count >= 2:
		return LevelTrace
	case count == 1:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New returns a logger tagged with the given component name.
func New(component string) *slog.Logger {
	return logger.With("component", component)
}

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the run ID from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDKey).(string); ok {
		return runID
	}
	return ""
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context
func TraceContext(ctx context.Context, msg string, args ...any) {
	logger.Log(ctx, LevelTrace, msg, args...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, args...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.InfoContext(ctx, msg, args...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.WarnContext(ctx, msg, args...)
}

// Error logs at ERROR level (logical bugs that shouldn't happen)
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, args...)
}

// Fatal logs at ERROR level and exits (unrecoverable bugs)
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
