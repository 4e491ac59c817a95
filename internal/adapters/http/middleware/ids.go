// Package middleware provides HTTP middleware for the Gin server.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
)

const (
	// HeaderRequestID is the header name for request ID.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID tracks a transaction across services. Unlike the
	// request ID it is propagated unchanged from upstream.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin context key for the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin context key for the correlation ID.
	ContextKeyCorrelationID = "correlation_id"

	maxIDLength = 128
)

type idConfig struct {
	header string
	key    string
	enrich func(ctx context.Context, id string) context.Context
}

// RequestID extracts the X-Request-ID header or generates a UUID, echoes it
// on the response and adds it to the context logger.
func RequestID() gin.HandlerFunc {
	return idMiddleware(idConfig{
		header: HeaderRequestID,
		key:    ContextKeyRequestID,
		enrich: logging.WithRequestID,
	})
}

// CorrelationID does the same for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return idMiddleware(idConfig{
		header: HeaderCorrelationID,
		key:    ContextKeyCorrelationID,
		enrich: logging.WithCorrelationID,
	})
}

func idMiddleware(cfg idConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.header)
		if !validID(id) {
			id = uuid.NewString()
		}

		c.Set(cfg.key, id)
		c.Header(cfg.header, id)
		c.Request = c.Request.WithContext(cfg.enrich(c.Request.Context(), id))

		c.Next()
	}
}

// validID accepts printable ASCII up to maxIDLength. Anything else is
// replaced so callers cannot inject into logs.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}

// GetRequestID returns the request ID, or "" if the middleware did not run.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID returns the correlation ID, or "" if the middleware did not run.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}
