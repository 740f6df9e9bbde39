package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/logger"
	"github.com/offerly/storefront/web/entity"
	"github.com/patrickmn/go-cache"
)

// RateLimitConfig configures a fixed-window limiter.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(c *gin.Context) string
}

// DefaultRateLimitConfig limits per client IP and minute.
func DefaultRateLimitConfig(requests int) RateLimitConfig {
	return RateLimitConfig{
		Requests: requests,
		Window:   time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimitMiddleware rejects requests beyond config.Requests per window with 429.
// A non-positive request count disables limiting.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	counters := cache.New(config.Window, 2*config.Window)
	return func(c *gin.Context) {
		if config.Requests <= 0 {
			c.Next()
			return
		}
		key := "ratelimit:" + config.KeyFunc(c) + ":" + c.Request.URL.Path

		// Add only succeeds for the first request of a window, which fixes its expiry.
		count := 1
		if err := counters.Add(key, 1, config.Window); err != nil {
			n, err := counters.IncrementInt(key, 1)
			if err != nil {
				counters.Set(key, 1, config.Window)
				n = 1
			}
			count = n
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		remaining := config.Requests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > config.Requests {
			logger.Warningf("Rate limit exceeded for %s on %s (count: %d)", config.KeyFunc(c), c.Request.URL.Path, count)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, entity.Msg{Msg: "Rate limit exceeded. Please try again later."})
			return
		}
		c.Next()
	}
}
