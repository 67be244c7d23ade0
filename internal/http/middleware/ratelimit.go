// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file is the edge rate limiter: per-identity token buckets backed by
// golang.org/x/time/rate, with opportunistic eviction of idle buckets. It is
// process-local; a horizontally scaled deployment needs a shared limiter
// instead.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to the identity that owns its token bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by the authenticated account when RequireAuth
// has resolved one, and by client IP for anonymous traffic. Prefixes keep the
// two namespaces from colliding ("user:abc123" vs "ip:203.0.113.7").
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if u, ok := CurrentUser(c); ok {
			return "user:" + u.PublicID
		}
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a limiter with its last activity, so idle ones can be evicted.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-key token-bucket limits. Buckets are created on
// demand in a mutex-guarded map and evicted after idleTTL during periodic
// sweeps, keeping memory bounded. Safe for concurrent use.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	keyFn   keyFunc
	mu      sync.Mutex
	buckets map[string]*bucket

	idleTTL time.Duration
	lookups uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with the
// given burst size (values <= 0 are coerced to 1), keyed by keyFn.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
	}
}

// take returns the limiter for key, creating it if absent. Every ~5000
// lookups it sweeps idle buckets first, so a stale bucket is evicted even
// when it is the one being fetched.
func (rl *RateLimiter) take(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= 5000 {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator flagged this request as a
// replay of an already-completed write. Replays are served without consuming
// tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the middleware. Denied requests get a 429 with the envelope
// fields clients expect and a minimal Retry-After header.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		if rl.take(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
