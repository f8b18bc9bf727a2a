package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal logging interface for CareMax. Callers may
// provide their own implementation or use the built-in slog adapter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// New builds a Logger writing structured records to w. Format is "json" or
// "text"; level is an slog level string (debug, info, warn, error).
func New(w io.Writer, level, format string) Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NoOpLogger discards all log messages. Useful for testing or when logging is
// disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp substitutes a NoOpLogger when l is nil so call sites never need a
// nil check.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// LogToolCall records execution details for a tool invocation.
func LogToolCall(l Logger, tool string, dur time.Duration, success, verified bool, err string) {
	args := []any{"tool", tool, "duration_ms", dur.Milliseconds(), "success", success, "verified", verified}
	if err != "" {
		args = append(args, "error", err)
	}
	if success {
		l.Info("tool.execution.completed", args...)
		return
	}
	l.Warn("tool.execution.failed", args...)
}

// LogModelCall records model call latency, token usage and success.
func LogModelCall(l Logger, modelName string, tokens int, dur time.Duration, err error) {
	args := []any{"model", modelName, "token_count", tokens, "duration_ms", dur.Milliseconds()}
	if err != nil {
		args = append(args, "error", err.Error())
		l.Error("model.call.failed", args...)
		return
	}
	l.Info("model.call.completed", args...)
}

// LogVerification records the outcome of a post-write verification read.
func LogVerification(l Logger, phone, date string, attempts int, matched bool) {
	args := []any{"phone", phone, "date", date, "attempts", attempts, "matched", matched}
	if matched {
		l.Info("booking.verification.confirmed", args...)
		return
	}
	l.Warn("booking.verification.failed", args...)
}

// LogPlanExecution records aggregate plan run progress.
func LogPlanExecution(l Logger, planID string, step int, status string) {
	l.Info("plan.step.updated", "plan_id", planID, "step", step, "status", status)
}
