// Package observability provides structured request-scoped logging for the
// quiz engine.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldUserID is the field name for user ID.
	LogFieldUserID = "user_id"
	// LogFieldOperation is the field name for the engine operation.
	LogFieldOperation = "operation"
	// LogFieldDateKey is the field name for the quiz date key.
	LogFieldDateKey = "date_key"
	// LogFieldSessionUID is the field name for the session UID.
	LogFieldSessionUID = "session_uid"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// RequestContext carries structured logging state for a single engine request.
type RequestContext struct {
	RequestID string
	UserID    int32
	Operation string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a new request context with a generated request ID.
func NewRequestContext(logger *slog.Logger, operation string, userID int32) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID: uuid.NewString(),
		UserID:    userID,
		Operation: operation,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

func (r *RequestContext) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.Int(LogFieldUserID, int(r.UserID)),
		slog.String(LogFieldOperation, r.Operation),
	}
}

func (r *RequestContext) log(level slog.Level, msg string, attrs ...slog.Attr) {
	combined := append(r.baseAttrs(), attrs...)
	r.Logger.LogAttrs(context.Background(), level, msg, combined...)
}

// Info logs an info message with the request's base fields.
func (r *RequestContext) Info(msg string, attrs ...slog.Attr) {
	r.log(slog.LevelInfo, msg, attrs...)
}

// Warn logs a warning message with the request's base fields.
func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.log(slog.LevelWarn, msg, attrs...)
}

// Error logs an error message with the request's base fields.
func (r *RequestContext) Error(msg string, attrs ...slog.Attr) {
	r.log(slog.LevelError, msg, attrs...)
}

// Done logs the completion of the request with its total duration.
func (r *RequestContext) Done(msg string, attrs ...slog.Attr) {
	elapsed := time.Since(r.StartTime).Milliseconds()
	r.log(slog.LevelInfo, msg, append(attrs, slog.Int64(LogFieldDuration, elapsed))...)
}
