package middlewares

import (
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// SubmitKeyPrefix namespaces the per-client submit counters.
const SubmitKeyPrefix = "civicsync:submit"

// IssueRateLimiter caps issue submissions per client IP within window. With
// no Redis client every request passes.
func IssueRateLimiter(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := SubmitKeyPrefix + ":" + c.ClientIP()

		// Increment the client's count with TTL
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		// Set TTL only for the first increment
		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				log.WithError(err).Warn("failed to set rate limit TTL")
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, key).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
