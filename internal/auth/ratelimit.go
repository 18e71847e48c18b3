package auth

import (
	"sync"
	"time"
)

// LoginLimiter throttles failed logins per client IP using a sliding window.
// Successful logins do not clear earlier failures.
type LoginLimiter struct {
	mu              sync.Mutex
	failures        map[string][]time.Time
	maxAttempts     int
	window          time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

// RateLimitConfig contains configuration for the login limiter.
type RateLimitConfig struct {
	MaxAttempts     int           // Failures allowed inside the window (default: 5)
	Window          time.Duration // Sliding window for counting failures (default: 15m)
	CleanupInterval time.Duration // How often idle IPs are pruned (default: 5m)
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:     5,
		Window:          15 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewLoginLimiter creates a limiter and starts its background cleanup.
func NewLoginLimiter(cfg RateLimitConfig) *LoginLimiter {
	defaults := DefaultRateLimitConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}

	l := &LoginLimiter{
		failures:        make(map[string][]time.Time),
		maxAttempts:     cfg.MaxAttempts,
		window:          cfg.Window,
		cleanupInterval: cfg.CleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go l.cleanupLoop()

	return l
}

// Stop stops the background cleanup goroutine. It is safe to call twice.
func (l *LoginLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCleanup)
	})
}

// Allow reports whether ip may attempt a login. When it may not, retryAfter
// is the time until the oldest failure leaves the window.
func (l *LoginLimiter) Allow(ip string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(ip, now)
	if len(recent) < l.maxAttempts {
		return true, 0
	}
	return false, recent[0].Add(l.window).Sub(now)
}

// RecordFailure records a failed login attempt from ip.
func (l *LoginLimiter) RecordFailure(ip string) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[ip] = append(l.prune(ip, now), now)
}

// prune drops failures of ip that fell out of the window. Callers hold mu.
func (l *LoginLimiter) prune(ip string, now time.Time) []time.Time {
	attempts := l.failures[ip]
	cutoff := now.Add(-l.window)

	i := 0
	for i < len(attempts) && !attempts[i].After(cutoff) {
		i++
	}
	attempts = attempts[i:]
	if len(attempts) == 0 {
		delete(l.failures, ip)
		return nil
	}
	l.failures[ip] = attempts
	return attempts
}

func (l *LoginLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup prunes every tracked IP.
func (l *LoginLimiter) cleanup() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip := range l.failures {
		l.prune(ip, now)
	}
}

// tracked returns the number of IPs with failures in the window.
func (l *LoginLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}
