package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotegen/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
)

// Recovery returns middleware that turns a panic into a 500 error envelope.
// The panic value and stack are logged at ERROR. Apply it first in the chain.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return RecoveryWithHook(logger, nil)
}

// RecoveryWithHook is Recovery with a hook that receives every recovered
// panic and its stack before the response is written.
func RecoveryWithHook(logger *slog.Logger, hook func(err any, stack []byte)) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			if r == http.ErrAbortHandler {
				panic(r)
			}

			stack := debug.Stack()

			if hook != nil {
				hook(r, stack)
			}

			traceID := dto.GetTraceID(c)

			logging.FromContextOr(c.Request.Context(), logger).Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(stack)),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", traceID),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(traceID))
		}()

		c.Next()
	}
}
