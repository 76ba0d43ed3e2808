package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// ipLimiter pairs a token bucket with the last time its IP was seen so idle
// entries can be evicted.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP with a token bucket refilled at
// maxRequests per window, bursting up to maxRequests.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	every    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing maxRequests per window per IP.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*ipLimiter),
		every:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		idle:     2 * window,
		now:      time.Now,
	}
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now

	// Opportunistic eviction keeps the map bounded without a goroutine.
	if len(rl.limiters) > 1024 {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > rl.idle {
				delete(rl.limiters, k)
			}
		}
	}

	return entry.limiter.AllowN(now, 1)
}

// Middleware returns the Echo middleware form of the limiter. Exceeding the
// limit yields 429.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests,
					"Too many attempts. Please wait a minute and try again.")
			}
			return next(c)
		}
	}
}

// RateLimit is shorthand for NewRateLimiter(maxRequests, window).Middleware().
func RateLimit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return NewRateLimiter(maxRequests, window).Middleware()
}
