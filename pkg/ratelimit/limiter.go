package ratelimit

import (
	"sync"
	"time"
)

// Limiter paces requests against the provider API
type Limiter interface {
	// Allow reports whether a request may proceed right now
	Allow() bool
	// Wait blocks until a request may proceed
	Wait()
}

// TokenBucket is a simple token bucket: capacity tokens per refill period.
// The feed walk is sequential, but the limiter still guards against hammering
// the provider when pages are small and plentiful.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a token bucket allowing capacity requests per period
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow consumes a token if one is available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if elapsed := time.Since(tb.lastRefill); elapsed >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = time.Now()
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		remaining := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if remaining > 0 {
			time.Sleep(remaining)
		} else {
			time.Sleep(50 * time.Millisecond)
		}
	}
}
