package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements a token bucket rate limiter. Each resale app
// scraper gets its own bucket so one app's burst never starves the
// other.
type Limiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	mu         sync.Mutex
	lastRefill time.Time
}

// NewLimiter creates a token bucket limiter.
// maxTokens: maximum number of tokens in the bucket
// refillRate: how often one token is added back
func NewLimiter(maxTokens int, refillRate time.Duration) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed immediately.
// Returns true if a token was available and consumed.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillTokens()

	if l.tokens > 0 {
		l.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available.
func (l *Limiter) Wait() {
	for !l.Allow() {
		time.Sleep(l.refillRate / time.Duration(l.maxTokens))
	}
}

// WaitWithTimeout waits for a token with a timeout.
// Returns true if a token was acquired, false if the timeout passed.
func (l *Limiter) WaitWithTimeout(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if l.Allow() {
			return true
		}

		sleepTime := l.refillRate / time.Duration(l.maxTokens)
		if sleepTime > time.Until(deadline) {
			sleepTime = time.Until(deadline)
		}
		if sleepTime > 0 {
			time.Sleep(sleepTime)
		}
	}

	return false
}

// TokensAvailable returns the current number of tokens in the bucket.
func (l *Limiter) TokensAvailable() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillTokens()
	return l.tokens
}

// refillTokens adds tokens based on elapsed time.
// Must be called with the mutex held.
func (l *Limiter) refillTokens() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill)

	tokensToAdd := int(elapsed / l.refillRate)

	if tokensToAdd > 0 {
		l.tokens = min(l.maxTokens, l.tokens+tokensToAdd)
		l.lastRefill = now
	}
}

// AppRateLimiters holds one limiter per resale app scraper.
type AppRateLimiters struct {
	Tickpick *Limiter
	Gametime *Limiter
}

// NewAppRateLimiters creates limiters with conservative defaults for
// each resale app.
func NewAppRateLimiters() *AppRateLimiters {
	return &AppRateLimiters{
		// Tickpick serves the whole listing container in one page.
		// 1 request per 2s with a small burst.
		Tickpick: NewLimiter(3, 2*time.Second),

		// Gametime pages are heavier and a quantity change costs an
		// extra round trip, so go slower. 1 request per 3s.
		Gametime: NewLimiter(2, 3*time.Second),
	}
}
