package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"code-review-market/utils"
)

const limiterIdleTTL = time.Hour

// RateLimiter keeps one token bucket per key (route and client IP).
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	mutex    sync.Mutex
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// GetLimiter returns the limiter for key, creating it with the default limits.
func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	return rl.GetLimiterWithConfig(key, rl.limit, rl.burst)
}

// GetLimiterWithConfig returns the limiter for key, creating it with the given limits.
func (rl *RateLimiter) GetLimiterWithConfig(key string, limit rate.Limit, burst int) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		rl.limiters[key] = limiter
	}
	rl.lastSeen[key] = rl.now()
	return limiter
}

// Cleanup drops limiters that have been idle for longer than an hour.
func (rl *RateLimiter) Cleanup() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	removed := 0
	now := rl.now()
	for key, seen := range rl.lastSeen {
		if now.Sub(seen) > limiterIdleTTL {
			delete(rl.limiters, key)
			delete(rl.lastSeen, key)
			removed++
		}
	}
	return removed
}

// Size reports how many keys are tracked.
func (rl *RateLimiter) Size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.limiters)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// RateLimitMiddleware answers 429 once a client exceeds its bucket on a route.
func RateLimitMiddleware(rl *RateLimiter, log *zap.Logger) gin.HandlerFunc {
	return limitBy(rl, log, func(c *gin.Context) *rate.Limiter {
		return rl.GetLimiter(c.FullPath() + "|" + c.ClientIP())
	})
}

// AuthRateLimitMiddleware applies a stricter per-IP budget shared by every
// auth endpoint: 5 attempts a minute.
func AuthRateLimitMiddleware(rl *RateLimiter, log *zap.Logger) gin.HandlerFunc {
	return limitBy(rl, log, func(c *gin.Context) *rate.Limiter {
		return rl.GetLimiterWithConfig("auth|"+c.ClientIP(), rate.Every(time.Minute/5), 5)
	})
}

func limitBy(rl *RateLimiter, log *zap.Logger, pick func(c *gin.Context) *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !pick(c).Allow() {
			log.Warn("rate limit exceeded",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()),
			)
			c.Header("Retry-After", "60")
			utils.AbortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, please try again later")
			return
		}
		c.Next()
	}
}
