package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterEntryTTL        = 15 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

type (
	limiterEntry struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	userLimiter struct {
		mu          sync.Mutex
		limit       rate.Limit
		burst       int
		entries     map[string]*limiterEntry
		lastCleanup time.Time
	}
)

func newUserLimiter(perMinute, burst int) *userLimiter {
	return &userLimiter{
		limit:       rate.Every(time.Minute / time.Duration(perMinute)),
		burst:       burst,
		entries:     make(map[string]*limiterEntry),
		lastCleanup: time.Now(),
	}
}

func (l *userLimiter) allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) >= limiterCleanupInterval {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > limiterEntryTTL {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	return e.limiter.Allow()
}

// RateLimitPerUser keys a token bucket on the authenticated user, falling back to client IP.
// A non-positive rate disables it.
func RateLimitPerUser(perMinute, burst int) gin.HandlerFunc {
	if perMinute <= 0 || burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	l := newUserLimiter(perMinute, burst)

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id := c.GetString(CtxUserID); id != "" {
			key = "user:" + id
		}
		if !l.allow(key) {
			c.AbortWithStatusJSON(
				http.StatusTooManyRequests,
				gin.H{"message": "rate limit exceeded"},
			)
			return
		}
		c.Next()
	}
}
