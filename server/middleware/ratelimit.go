package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/resilience"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(*gin.Context) string

// IPBasedKey extracts the client IP for use as a rate limit key.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit returns a Gin middleware that rejects requests once the key's
// token bucket is empty, with 429 and a Retry-After header in seconds.
func RateLimit(limiter *resilience.KeyedRateLimiter, keyFn KeyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = IPBasedKey
	}
	return func(c *gin.Context) {
		key := keyFn(c)
		if limiter.Allow(key) {
			c.Next()
			return
		}
		wait := limiter.RetryAfter(key)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		appErr := apperrors.RateLimited()
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
	}
}
