package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/auth"
)

const defaultBucketTTL = 10 * time.Minute

// KeyFunc selects the rate-limit bucket of a request.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP keys by the caller's verified bearer identity, otherwise by
// client IP. Header identities are client-chosen and never select a bucket.
// Namespaces are prefixed ("user:", "ip:") so they cannot collide.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if id, ok := auth.FromContext(c.Request.Context()); ok && id.Token != "" {
			return "user:" + id.UserID
		}
		return "ip:" + c.ClientIP()
	}
}

// RateLimiter is a process-local token-bucket limiter with one bucket per
// key. Buckets idle for longer than the TTL are evicted.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc
	skip  map[string]struct{}

	buckets *cache.Cache
}

// NewRateLimiter returns a limiter allowing rps tokens per second with the
// given burst (coerced to at least 1). Requests to skipPaths (exact URL
// paths, e.g. /health) are never limited.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc, skipPaths ...string) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		skip:    skip,
		buckets: cache.New(defaultBucketTTL, defaultBucketTTL/2),
	}
}

// limiter returns the bucket for key and refreshes its idle timer.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.buckets.Get(key); ok {
		lim := v.(*rate.Limiter)
		rl.buckets.SetDefault(key, lim)
		return lim
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	if err := rl.buckets.Add(key, lim, cache.DefaultExpiration); err != nil {
		// Lost the race; use the winner.
		if v, ok := rl.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
		rl.buckets.SetDefault(key, lim)
	}
	return lim
}

// Handler rejects requests over the limit with 429, a Retry-After hint and
// the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := rl.skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		if rl.limiter(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		abortJSON(c, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
	}
}
