package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecobhandu-be/logger"
)

// RateCounter counts hits per key within a fixed window.
type RateCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// ReportRateLimiter caps report submissions per caller within window. Callers
// are keyed by user_id when authenticated and by client IP otherwise. A nil
// counter disables the limit.
func ReportRateLimiter(counter RateCounter, limit int64, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if userID := c.GetString("user_id"); userID != "" {
			key = "user:" + userID
		}

		count, ttl, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			// Fail open when the counter is unavailable.
			logger.FromGin(c, log).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if count > limit {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": ttl.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
