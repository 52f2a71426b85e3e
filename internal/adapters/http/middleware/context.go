// Package middleware provides HTTP middleware for the Gin framework.
package middleware

import "context"

type contextKey string

const (
	ctxKeyRequestID     contextKey = "request_id"
	ctxKeyCorrelationID contextKey = "correlation_id"
	ctxKeySessionID     contextKey = "session_id"
)

func valueFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}

	if id, ok := ctx.Value(key).(string); ok {
		return id
	}

	return ""
}

// RequestIDFromContext returns the request ID, or "" if unset.
// Client adapters use it to propagate the ID downstream.
func RequestIDFromContext(ctx context.Context) string {
	return valueFromContext(ctx, ctxKeyRequestID)
}

// CorrelationIDFromContext returns the correlation ID, or "" if unset.
func CorrelationIDFromContext(ctx context.Context) string {
	return valueFromContext(ctx, ctxKeyCorrelationID)
}

// SessionIDFromContext returns the client session ID, or "" if unset.
func SessionIDFromContext(ctx context.Context) string {
	return valueFromContext(ctx, ctxKeySessionID)
}

// ContextWithRequestID stores a request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// ContextWithCorrelationID stores a correlation ID in the context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

// ContextWithSessionID stores a session ID in the context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}
