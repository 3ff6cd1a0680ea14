// Package logging builds the server's structured logger.
//
// Everything goes to stderr as JSON: stdout carries the MCP protocol and
// must never see a log line.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/HendryAvila/mcp-dataplex/internal/validation"
)

// Logger wraps slog with the handful of event helpers the tools use.
type Logger struct {
	*slog.Logger
	debug bool
}

// New returns a JSON logger on stderr.
func New(debug bool) *Logger {
	return NewWithWriter(os.Stderr, debug)
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer, debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(h), debug: debug}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// DebugEnabled reports whether debug output is on.
func (l *Logger) DebugEnabled() bool {
	return l.debug
}

// Error logs err with its message sanitized.
func (l *Logger) Error(msg string, err error, attrs ...any) {
	if err != nil {
		attrs = append(attrs, slog.String("error", validation.SanitizeForLogging(err.Error())))
	}
	l.Logger.Error(msg, attrs...)
}

// ToolCall logs an incoming tool invocation. Arguments are only shown in debug mode.
func (l *Logger) ToolCall(requestID, tool string, args map[string]any) {
	var argAttr slog.Attr
	if l.debug {
		argAttr = slog.Any("args", args)
	} else {
		argAttr = slog.String("args", "[redacted]")
	}
	l.Debug("tool called",
		slog.String("request_id", requestID),
		slog.String("tool", tool),
		argAttr,
	)
}

// ToolResult logs the outcome of a tool invocation.
func (l *Logger) ToolResult(requestID, tool string, ok bool, elapsed time.Duration) {
	outcome := "tool succeeded"
	if !ok {
		outcome = "tool failed"
	}
	l.Info(outcome,
		slog.String("request_id", requestID),
		slog.String("tool", tool),
		slog.Bool("success", ok),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
}

// APICall logs an outbound call to a cloud service.
func (l *Logger) APICall(service, method string) {
	l.Debug("api call", slog.String("service", service), slog.String("method", method))
}

// Cache logs a cache hit or miss.
func (l *Logger) Cache(hit bool, key string) {
	msg := "cache miss"
	if hit {
		msg = "cache hit"
	}
	l.Debug(msg, slog.Bool("hit", hit), slog.String("key", validation.SanitizeForLogging(key)))
}
