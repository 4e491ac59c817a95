package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/dice-roller/internal/adapters/http/dto"
	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
)

// Recovery turns a panic into a 500 with the standard error envelope and
// logs it with its stack. It must be first in the chain. fallback is used
// until the request ID middleware has attached a request logger.
func Recovery(fallback *slog.Logger) gin.HandlerFunc {
	if fallback == nil {
		fallback = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger, ok := logging.Lookup(c.Request.Context())
			if !ok {
				logger = fallback
			}

			traceID := dto.GetTraceID(c)

			logger.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", traceID),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			dto.AbortWithErrorCode(c, dto.ErrorCodeInternal, "an internal error occurred")
		}()

		c.Next()
	}
}
