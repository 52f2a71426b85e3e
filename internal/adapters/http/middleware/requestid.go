package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotegen/internal/platform/logging"
)

const (
	// HeaderRequestID is the header name for request ID.
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID is the gin context key for the request ID.
	ContextKeyRequestID = "request_id"
)

// RequestID returns middleware that extracts or generates a request ID.
// The ID is stored in the gin context, the request context and the request
// logger, and echoed in the response headers.
func RequestID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderRequestID,
		contextKey: ContextKeyRequestID,
		enrichers:  enrichers(ContextWithRequestID, logging.WithRequestID),
	})
}

// GetRequestID returns the request ID from the gin context, or "".
func GetRequestID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyRequestID)
}

// MustGetRequestID returns the request ID, or "unknown" if the middleware did not run.
func MustGetRequestID(c *gin.Context) string {
	if id := GetRequestID(c); id != "" {
		return id
	}

	return "unknown"
}
