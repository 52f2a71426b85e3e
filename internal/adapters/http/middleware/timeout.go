package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotegen/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
)

// Timeout returns middleware that bounds the request context by timeout.
// Handlers run on the request goroutine and must honor ctx.Done(). When the
// deadline passed and nothing was written, a 504 TIMEOUT envelope is sent.
// Paths with one of skipPrefixes, such as long-lived websocket upgrades, get
// no deadline.
func Timeout(timeout time.Duration, skipPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}

		logging.FromContext(ctx).Warn("request timeout",
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
			slog.Duration("timeout", timeout),
		)

		if !c.Writer.Written() {
			dto.RespondWithCode(c, dto.ErrorCodeTimeout, "request timeout exceeded")
		}
	}
}
