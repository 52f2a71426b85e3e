package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotegen/internal/platform/logging"
)

const (
	// HeaderCorrelationID is the header name for correlation ID.
	// It spans every request of one client transaction, unlike the request ID.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyCorrelationID is the gin context key for the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// CorrelationID returns middleware that propagates or starts a correlation ID.
func CorrelationID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderCorrelationID,
		contextKey: ContextKeyCorrelationID,
		enrichers:  enrichers(ContextWithCorrelationID, logging.WithCorrelationID),
	})
}

// GetCorrelationID returns the correlation ID from the gin context, or "".
func GetCorrelationID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyCorrelationID)
}

// MustGetCorrelationID returns the correlation ID, or "unknown" if the middleware did not run.
func MustGetCorrelationID(c *gin.Context) string {
	if id := GetCorrelationID(c); id != "" {
		return id
	}

	return "unknown"
}

func enrichers(fns ...func(context.Context, string) context.Context) []func(context.Context, string) context.Context {
	return fns
}
