package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxIDLength bounds client-supplied IDs.
const maxIDLength = 128

type idMiddlewareConfig struct {
	headerName string
	contextKey string

	// enrichers run in order on the request context.
	enrichers []func(ctx context.Context, id string) context.Context
}

// createIDMiddleware reads an ID from the request header, replacing a missing
// or malformed one with a new UUID. The ID is echoed in the response header.
func createIDMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.headerName)
		if !validID(id) {
			id = uuid.NewString()
		}

		c.Set(cfg.contextKey, id)
		c.Header(cfg.headerName, id)

		ctx := c.Request.Context()
		for _, enrich := range cfg.enrichers {
			ctx = enrich(ctx, id)
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// validID accepts non-empty IDs of letters, digits, '-', '_', '.' and ':'.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}

	return true
}

func getIDFromContext(c *gin.Context, key string) string {
	if id, exists := c.Get(key); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}

	return ""
}
