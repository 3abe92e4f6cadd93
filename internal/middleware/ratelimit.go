package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/soiree-app/soiree/pkg/errors"
	"github.com/soiree-app/soiree/pkg/logger"
	"github.com/soiree-app/soiree/pkg/response"
)

// RateLimit limits requests per (clientIP, route) within a fixed window using
// an in-process store. Suitable for single-instance deployments and tests.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return RateLimitWithStore(NewMemoryRateStore(), maxRequests, window)
}

// RateLimitWithStore limits requests using the given store, which may be
// shared across instances when backed by Redis or the database cache.
func RateLimitWithStore(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP() + "|" + c.FullPath()
		count, ttl, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			// Fail open rather than blocking traffic on a store outage.
			logger.WithModule("ratelimit").Warn("rate limit store unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := maxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if count > maxRequests {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
