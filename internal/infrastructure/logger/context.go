package logger

import (
	"context"

	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type contextKey struct{ name string }

var (
	loggerKey    = contextKey{"logger"}
	requestIDKey = contextKey{"request_id"}
)

// RequestFields identifies who is making a request
type RequestFields struct {
	RequestID string
	TenantID  string
	UserID    string
	Username  string
}

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request logger, or a no-op logger outside a request.
// Trace and span ids of the active span are added on every call.
func FromContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}
	if traceID := telemetry.TraceID(ctx); traceID != "" {
		l = l.With(zap.String("trace_id", traceID), zap.String("span_id", telemetry.SpanID(ctx)))
	}
	return l
}

// Enrich stores the request id and returns a logger carrying every
// non-empty field
func Enrich(ctx context.Context, logger *zap.Logger, f RequestFields) (context.Context, *zap.Logger) {
	if f.RequestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, f.RequestID)
		logger = logger.With(zap.String("request_id", f.RequestID))
	}
	if f.TenantID != "" {
		logger = logger.With(zap.String("tenant_id", f.TenantID))
	}
	if f.UserID != "" {
		logger = logger.With(zap.String("user_id", f.UserID))
	}
	if f.Username != "" {
		logger = logger.With(zap.String("username", f.Username))
	}
	return WithContext(ctx, logger), logger
}

// RequestID returns the request id stored by Enrich
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
