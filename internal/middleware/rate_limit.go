package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused per-user limiter is kept
const idleLimiterTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerUserRateLimit allows perMinute requests per authenticated user, with a burst of
// the same size. perMinute <= 0 disables the limit.
func PerUserRateLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	var (
		mu        sync.Mutex
		limiters  = make(map[string]*userLimiter)
		lastSweep = time.Now()
	)
	limit := rate.Limit(float64(perMinute) / 60.0)

	return func(c *fiber.Ctx) error {
		uid, err := UIDFromLocals(c)
		if err != nil {
			return err
		}

		now := time.Now()
		mu.Lock()
		if now.Sub(lastSweep) > idleLimiterTTL {
			for id, l := range limiters {
				if now.Sub(l.lastSeen) > idleLimiterTTL {
					delete(limiters, id)
				}
			}
			lastSweep = now
		}
		l, ok := limiters[uid]
		if !ok {
			l = &userLimiter{limiter: rate.NewLimiter(limit, perMinute)}
			limiters[uid] = l
		}
		l.lastSeen = now
		allowed := l.limiter.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, slow down")
		}
		return c.Next()
	}
}
