// Package logger configures the structured slog logger shared by the API and
// the scheduler worker.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const (
	// RequestIDKey carries the inbound request id.
	RequestIDKey ctxKey = "request_id"
	// OperatorIDKey carries the authenticated operator (the user acting on leads).
	OperatorIDKey ctxKey = "operator_id"
	// BatchIDKey carries the outreach batch currently being dispatched.
	BatchIDKey ctxKey = "batch_id"
)

// Logger embeds slog.Logger and adds a few domain-specific helpers.
type Logger struct {
	*slog.Logger
}

// New builds a logger for env. Development gets human-readable text output at
// debug level, every other environment gets JSON at info level.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(env string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext copies request scoped values from ctx onto the logger.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	out := l
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		out = out.WithRequestID(v)
	}
	if v, ok := ctx.Value(OperatorIDKey).(string); ok && v != "" {
		out = out.WithOperator(v)
	}
	if v, ok := ctx.Value(BatchIDKey).(string); ok && v != "" {
		out = out.WithBatch(v)
	}
	return out
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.With(slog.String("request_id", requestID))}
}

func (l *Logger) WithOperator(operatorID string) *Logger {
	return &Logger{Logger: l.With(slog.String("operator_id", operatorID))}
}

func (l *Logger) WithBatch(batchID string) *Logger {
	return &Logger{Logger: l.With(slog.String("batch_id", batchID))}
}

// HTTPRequest logs a completed request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs a request that ended in a server side error.
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// LeadOutcome records how a single lead in an outreach batch was resolved.
func (l *Logger) LeadOutcome(leadID, outcome, reason string) {
	if reason == "" {
		l.Info("outreach_lead", slog.String("lead_id", leadID), slog.String("outcome", outcome))
		return
	}
	l.Info("outreach_lead",
		slog.String("lead_id", leadID),
		slog.String("outcome", outcome),
		slog.String("reason", reason),
	)
}
