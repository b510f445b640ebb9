package middleware

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cardvault/cardvault/backend/utils"
)

// RateLimiter implements a sliding-window in-memory rate limiter
type RateLimiter struct {
	requests  map[string][]time.Time
	mutex     sync.Mutex
	window    time.Duration
	limit     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
		now:      time.Now,
	}
}

// Allow checks if a request should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	if now.Sub(rl.lastSweep) > rl.window {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	valid := recent(rl.requests[key], cutoff)
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

// sweep drops keys with no request inside the window. Callers hold the mutex.
func (rl *RateLimiter) sweep(cutoff time.Time) {
	for key, requests := range rl.requests {
		if valid := recent(requests, cutoff); len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

// recent filters timestamps after cutoff in place; requests are kept in arrival order.
func recent(requests []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(requests) && !requests[i].After(cutoff) {
		i++
	}
	return requests[i:]
}

// rateLimitKey limits signed-in users per account and everyone else per address.
func rateLimitKey(c *fiber.Ctx) string {
	if session, ok := utils.ExtractUserSession(c); ok {
		return "user:" + strconv.FormatInt(session.UserID, 10)
	}
	return "ip:" + utils.GetIPAddress(c)
}

// RateLimit middleware limits requests per user or IP address
func RateLimit(limit int, window time.Duration) fiber.Handler {
	return RateLimitWith(NewRateLimiter(limit, window))
}

func RateLimitWith(limiter *RateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rateLimitKey(c)

		if !limiter.Allow(key) {
			slog.Warn("Rate limit exceeded",
				slog.String("type", "http"),
				slog.String("key", key),
				slog.String("path", c.Path()),
				slog.String("method", c.Method()),
				slog.Int("limit", limiter.limit),
				slog.Duration("window", limiter.window))

			return utils.SendError(c, fiber.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				"Too many requests. Please try again later.", nil)
		}

		return c.Next()
	}
}

// AuthRateLimit middleware limits authentication attempts
func AuthRateLimit() fiber.Handler {
	return RateLimit(5, time.Minute)
}

// APIRateLimit middleware limits API requests
func APIRateLimit() fiber.Handler {
	return RateLimit(100, time.Minute)
}

// GameActionRateLimit limits credit-spending and card-moving actions
func GameActionRateLimit() fiber.Handler {
	return RateLimit(30, time.Minute)
}

// UploadRateLimit middleware limits file upload requests
func UploadRateLimit() fiber.Handler {
	return RateLimit(10, time.Hour)
}
