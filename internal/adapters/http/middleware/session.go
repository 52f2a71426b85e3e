package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotegen/internal/platform/logging"
)

const (
	// HeaderSessionID identifies a client session. The last viewed quote is
	// remembered per session.
	HeaderSessionID = "X-Session-ID"

	// ContextKeySessionID is the gin context key for the session ID.
	ContextKeySessionID = "session_id"
)

// Session returns middleware that reads the X-Session-ID header, starting a
// new session when it is absent. Clients keep a session by echoing the
// returned header.
func Session() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderSessionID,
		contextKey: ContextKeySessionID,
		enrichers:  enrichers(ContextWithSessionID, logging.WithSessionID),
	})
}

// GetSessionID returns the session ID from the gin context, or "".
func GetSessionID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeySessionID)
}
