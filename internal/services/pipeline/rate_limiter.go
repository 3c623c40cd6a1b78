package pipeline

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"
)

// RateLimiter spaces navigations per domain. Each request waits out the
// domain's base delay plus a random jitter slice, so traffic never lands on
// an exact cadence.
type RateLimiter struct {
	limiters map[string]*domainLimiter
	mu       sync.RWMutex
	delay    time.Duration
	jitter   time.Duration
}

type domainLimiter struct {
	lastRequest time.Time
	mu          sync.Mutex
	delay       time.Duration
}

// NewRateLimiter creates a limiter with the given base delay and jitter
// window. A zero delay disables pacing for domains without an override.
func NewRateLimiter(delay, jitter time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*domainLimiter),
		delay:    delay,
		jitter:   jitter,
	}
}

// Wait blocks until the domain of rawURL may be hit again, or the context
// is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	domain := extractDomain(rawURL)
	if domain == "" {
		return nil
	}

	rl.mu.Lock()
	limiter, exists := rl.limiters[domain]
	if !exists {
		limiter = &domainLimiter{delay: rl.delay}
		rl.limiters[domain] = limiter
	}
	rl.mu.Unlock()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	wait := limiter.delay
	if rl.jitter > 0 {
		wait += time.Duration(rand.Int63n(int64(rl.jitter)))
	}

	now := time.Now()
	nextAllowed := limiter.lastRequest.Add(wait)

	if now.Before(nextAllowed) {
		timer := time.NewTimer(nextAllowed.Sub(now))
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	limiter.lastRequest = time.Now()
	return nil
}

// SetDomainDelay overrides the base delay for one domain.
func (rl *RateLimiter) SetDomainDelay(domain string, delay time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[domain]
	if !exists {
		rl.limiters[domain] = &domainLimiter{delay: delay}
		return
	}

	limiter.mu.Lock()
	limiter.delay = delay
	limiter.mu.Unlock()
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
