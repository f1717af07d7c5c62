package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/graph-api/internal/http/response"
	"github.com/yungbote/graph-api/internal/platform/logger"
)

// RateLimit is a fixed-window per-client limiter backed by redis so the
// budget holds across replicas. A nil client disables it; limiter errors fail
// open since availability beats strict accounting here.
func RateLimit(log *logger.Logger, rdb *redis.Client, requests int, window time.Duration) gin.HandlerFunc {
	if rdb == nil || requests <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limitLog := log.With("middleware", "RateLimit")

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		bucket := time.Now().Unix() / int64(window.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), bucket)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			limitLog.Warn("rate limit counter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				limitLog.Warn("rate limit expiry not set", "error", err)
			}
		}
		if count > int64(requests) {
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited",
				errors.New("rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}
