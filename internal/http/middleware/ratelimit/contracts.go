package ratelimit

import "time"

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long the caller should wait before the next token, zero when allowed.
	RetryAfter time.Duration
}

// Limiter decides whether a caller identified by key may proceed.
type Limiter interface {
	Allow(key string) Decision
}

// Clock provides current time.
type Clock interface {
	Now() time.Time
}

// RealClock is the default clock.
type RealClock struct{}

// Now returns current time.
func (RealClock) Now() time.Time { return time.Now() }

// NopLimiter lets every request through.
type NopLimiter struct{}

// Allow always allows.
func (NopLimiter) Allow(string) Decision { return Decision{Allowed: true} }
