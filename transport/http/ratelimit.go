package http

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig bounds unauthenticated requests per client IP.
// A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ipLimiter manages one token bucket per client
type ipLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	l.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle buckets, at most once every five minutes
func (l *ipLimiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) < 5*time.Minute {
		return
	}
	l.lastCleanup = time.Now()

	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit rejects clients exceeding the configured request rate with 429
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	l := &ipLimiter{
		rate:        rate.Limit(cfg.RequestsPerSecond),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}
	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RequestsPerSecond)))

	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
