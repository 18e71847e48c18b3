// Package ratelimit provides a keyed token bucket limiter used to throttle
// expensive requests, such as book uploads, per client.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleTTL is how long a key may go unused before its limiter is dropped.
const idleTTL = 30 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent rate limiter.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new keyed rate limiter.
// rps: requests per second allowed.
// burst: maximum burst size (tokens available immediately).
func New(rps float64, burst int) *KeyedRateLimiter {
	if burst < 1 {
		burst = 1
	}
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go krl.cleanupLoop(idleTTL / 2)

	return krl
}

// PerMinute creates a limiter allowing perMinute requests per minute per key.
func PerMinute(perMinute float64, burst int) *KeyedRateLimiter {
	return New(perMinute/60, burst)
}

// Allow checks if a request for the given key should be allowed.
// Returns immediately without blocking.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).AllowN(krl.now(), 1)
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	e, exists := krl.entries[key]
	if !exists {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.entries[key] = e
	}
	e.lastSeen = krl.now()
	return e.limiter
}

// Stop shuts down the cleanup goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			krl.evictIdle()
		case <-krl.done:
			return
		}
	}
}

// evictIdle drops limiters whose key has not been seen for idleTTL. A dropped
// key starts again with a full bucket, which is the state it would have
// refilled to anyway.
func (krl *KeyedRateLimiter) evictIdle() {
	cutoff := krl.now().Add(-idleTTL)

	krl.mu.Lock()
	defer krl.mu.Unlock()

	for key, e := range krl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(krl.entries, key)
		}
	}
}

func (krl *KeyedRateLimiter) size() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.entries)
}

// Middleware rejects requests over the limit with 429. keyFunc picks the
// bucket, typically the client IP. A nil limiter lets every request through.
func Middleware(krl *KeyedRateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if krl == nil {
			c.Next()
			return
		}
		if !krl.Allow(keyFunc(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
