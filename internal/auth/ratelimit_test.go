package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(t *testing.T, clock *fakeClock) *LoginLimiter {
	t.Helper()
	l := NewLoginLimiter(RateLimitConfig{
		MaxAttempts:     5,
		Window:          15 * time.Minute,
		CleanupInterval: time.Hour, // Long interval to prevent cleanup during test
	})
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l
}

func TestLoginLimiter_BlocksAfterMaxFailures(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := newTestLimiter(t, clock)

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("10.0.0.1")
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
		l.RecordFailure("10.0.0.1")
		clock.Advance(time.Minute)
	}

	allowed, retryAfter := l.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, 10*time.Minute, retryAfter)

	// other clients are unaffected
	allowed, _ = l.Allow("10.0.0.2")
	assert.True(t, allowed)
}

func TestLoginLimiter_SlidingWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := newTestLimiter(t, clock)

	for i := 0; i < 5; i++ {
		l.RecordFailure("10.0.0.1")
		clock.Advance(time.Minute)
	}
	allowed, _ := l.Allow("10.0.0.1")
	assert.False(t, allowed)

	// the oldest failure ages out exactly one window after it happened
	clock.Advance(10 * time.Minute)
	allowed, _ = l.Allow("10.0.0.1")
	assert.True(t, allowed)

	// one fresh failure brings it back to five in the window
	l.RecordFailure("10.0.0.1")
	allowed, _ = l.Allow("10.0.0.1")
	assert.False(t, allowed)
}

func TestLoginLimiter_Cleanup(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := newTestLimiter(t, clock)

	l.RecordFailure("10.0.0.1")
	l.RecordFailure("10.0.0.2")
	assert.Equal(t, 2, l.tracked())

	clock.Advance(16 * time.Minute)
	l.cleanup()
	assert.Equal(t, 0, l.tracked())
}

func TestLoginLimiter_StopTwice(t *testing.T) {
	l := NewLoginLimiter(RateLimitConfig{})
	l.Stop()
	assert.NotPanics(t, l.Stop)
}
