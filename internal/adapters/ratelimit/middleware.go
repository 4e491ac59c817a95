package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/dice-roller/internal/adapters/http/dto"
	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
)

// Response headers.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderBurst      = "X-RateLimit-Burst"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderRetryAfter = "Retry-After"
)

// KeyFunc extracts the throttling key from a request.
type KeyFunc func(c *gin.Context) string

// Options configures Middleware.
type Options struct {
	Store *Store

	// Stats, when set, receives every decision. Failures are logged at debug.
	Stats StatsRecorder

	// TrustForwardedFor keys on the first X-Forwarded-For hop. Enable only
	// behind a proxy that overwrites the header.
	TrustForwardedFor bool

	KeyFn KeyFunc
}

// ClientKey keys on the first X-Forwarded-For hop when trusted, otherwise
// on the connection's remote address.
func ClientKey(trustForwardedFor bool) KeyFunc {
	return func(c *gin.Context) string {
		if trustForwardedFor {
			if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		if host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr)); err == nil && host != "" {
			return host
		}

		if c.Request.RemoteAddr != "" {
			return c.Request.RemoteAddr
		}

		return "unknown"
	}
}

// Middleware rejects requests over the per-key rate with 429.
func Middleware(opts Options) gin.HandlerFunc {
	if opts.KeyFn == nil {
		opts.KeyFn = ClientKey(opts.TrustForwardedFor)
	}

	limit := strconv.FormatFloat(opts.Store.RPS(), 'f', -1, 64)
	burst := strconv.Itoa(opts.Store.Burst())

	return func(c *gin.Context) {
		key := opts.KeyFn(c)
		dec := opts.Store.Allow(key)

		if opts.Stats != nil {
			ctx := c.Request.Context()
			ev := StatsEvent{
				Key:     key,
				Allowed: dec.Allowed,
				Method:  c.Request.Method,
				Route:   c.FullPath(),
				At:      time.Now(),
			}

			if err := opts.Stats.Record(ctx, ev); err != nil {
				logging.FromContext(ctx).DebugContext(ctx, "rate limit stats not recorded", slog.Any("error", err))
			}
		}

		c.Header(HeaderLimit, limit)
		c.Header(HeaderBurst, burst)
		c.Header(HeaderRemaining, strconv.Itoa(dec.Remaining))

		if dec.Allowed {
			c.Next()
			return
		}

		c.Header(HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(dec.RetryAfter)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests,
			dto.NewErrorResponse(dto.ErrorCodeRateLimited, "too many requests, slow down"))
	}
}

// retryAfterSeconds rounds up so clients never retry too early.
func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
