// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
	SpanID        LogContextKey = "span_id"
	TraceID       LogContextKey = "trace_id"
)

// LoggingConfig defines which types of automated logging are enabled.
type LoggingConfig struct {
	EnableCorrelationID   bool
	EnableGatewayLogging  bool
	EnableDecisionLogging bool
}

var (
	// Config holds the current logging configuration.
	Config = LoggingConfig{
		EnableCorrelationID:   true,
		EnableGatewayLogging:  true,
		EnableDecisionLogging: true,
	}
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelationID); id != nil {
		return id.(string)
	}
	return ""
}

// GatewayLogger provides structured logging for access service calls.
type GatewayLogger struct {
	logger *Logger
}

// NewGatewayLogger creates a new GatewayLogger.
func NewGatewayLogger() *GatewayLogger {
	return &GatewayLogger{logger: GlobalLogger}
}

// LogCall logs a completed access service call.
func (l *GatewayLogger) LogCall(ctx context.Context, operation string, latency time.Duration, err error) {
	if !Config.EnableGatewayLogging {
		return
	}
	attrs := []any{
		slog.String("operation", operation),
		slog.Duration("latency", latency),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		l.logger.ErrorContext(ctx, "upstream call failed", attrs...)
		return
	}
	l.logger.InfoContext(ctx, "upstream call", attrs...)
}

// DecisionLogger records the audit trail of admin decisions.
type DecisionLogger struct {
	logger *Logger
}

// NewDecisionLogger creates a new DecisionLogger.
func NewDecisionLogger() *DecisionLogger {
	return &DecisionLogger{logger: GlobalLogger}
}

// LogDecision logs an approve/reject outcome for a request.
func (l *DecisionLogger) LogDecision(ctx context.Context, requestID, outcome, decidedBy string) {
	if !Config.EnableDecisionLogging {
		return
	}
	l.logger.InfoContext(ctx, "request decided",
		slog.String("request_id", requestID),
		slog.String("outcome", outcome),
		slog.String("decided_by", decidedBy),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogUserStatusChange logs a user activation/deactivation.
func (l *DecisionLogger) LogUserStatusChange(ctx context.Context, userID, status string) {
	if !Config.EnableDecisionLogging {
		return
	}
	l.logger.InfoContext(ctx, "user status changed",
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}
