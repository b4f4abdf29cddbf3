package middleware

import (
	"sync"
	"time"

	"fintrack/internal/errors"
	"fintrack/internal/handlers"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const clientIdleEviction = 3 * time.Minute

// clientLimiter tracks one client IP's token bucket and when it was last
// used, so idle entries can be evicted.
type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// limiterRegistry holds per-IP token buckets for one middleware instance.
// The auth group is the only rate-limited surface (login and signup are
// where credential stuffing lands), so the map stays small.
type limiterRegistry struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
}

func (r *limiterRegistry) allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[ip]
	if !ok {
		client = &clientLimiter{bucket: rate.NewLimiter(r.rps, r.burst)}
		r.clients[ip] = client
	}
	client.lastSeen = time.Now()

	return client.bucket.Allow()
}

func (r *limiterRegistry) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ip, client := range r.clients {
		if now.Sub(client.lastSeen) > clientIdleEviction {
			delete(r.clients, ip)
		}
	}
}

func (r *limiterRegistry) evictLoop() {
	for {
		time.Sleep(time.Minute)
		r.evictIdle(time.Now())
	}
}

// RateLimiter bounds request rate per client IP with a token bucket of the
// given refill rate and burst. Over-limit requests get SYSTEM_004 with a
// 429 status.
func RateLimiter(rps, burst int) echo.MiddlewareFunc {
	registry := &limiterRegistry{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go registry.evictLoop()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !registry.allow(clientIP(c)) {
				return handlers.SendError(c, errors.SystemRateLimitExceeded)
			}
			return next(c)
		}
	}
}

// clientIP resolves the originating address, trusting proxy headers when
// present: the service is expected to sit behind a reverse proxy.
func clientIP(c echo.Context) string {
	if xff := c.Request().Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := c.Request().Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return c.RealIP()
}
