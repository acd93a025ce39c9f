package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/inkpress/inkpress/config"
	"github.com/inkpress/inkpress/utils"
)

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
	mu      sync.Mutex
}

var (
	limiters   = map[string]*rateLimiter{}
	limitersMu sync.Mutex
)

// RateLimitMiddleware applies a per-client-IP token bucket sized to the
// configured request budget per window (100 requests / 15 minutes by
// default). State is in-memory: a restarted process starts a fresh window,
// so the guarantee is best-effort per instance.
func RateLimitMiddleware() gin.HandlerFunc {
	cfg := config.Get()
	requests := maxInt(cfg.RateLimitRequests, 1)
	window := time.Duration(maxInt(cfg.RateLimitWindowMinutes, 1)) * time.Minute
	r := rate.Every(window / time.Duration(requests))

	return func(ctx *gin.Context) {
		ip := ctx.ClientIP()
		limiter := getLimiter(ip, r, requests, window)

		limiter.mu.Lock()
		allowed := limiter.limiter.Allow()
		limiter.mu.Unlock()

		if !allowed {
			utils.Message(ctx, http.StatusTooManyRequests, "Too many requests, please try again later")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

func getLimiter(key string, limit rate.Limit, burst int, ttl time.Duration) *rateLimiter {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	cleanupExpiredLimitersLocked()

	if limiter, ok := limiters[key]; ok {
		limiter.expires = time.Now().Add(ttl)
		return limiter
	}

	limiter := &rateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		expires: time.Now().Add(ttl),
	}
	limiters[key] = limiter
	return limiter
}

func cleanupExpiredLimitersLocked() {
	now := time.Now()
	for key, limiter := range limiters {
		if now.After(limiter.expires) {
			delete(limiters, key)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
