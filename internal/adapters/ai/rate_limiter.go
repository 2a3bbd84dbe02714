package ai

import (
	"context"

	"golang.org/x/time/rate"

	"costpilot/pkg/errors"
)

// RateLimiter defines the interface for rate limiting inference requests.
type RateLimiter interface {
	// Wait blocks until a request can proceed or context is cancelled.
	Wait(ctx context.Context) error

	// Limit returns the current rate limit (requests per minute).
	Limit() float64
}

// TokenBucketLimiter implements token bucket rate limiting on top of
// golang.org/x/time/rate.
type TokenBucketLimiter struct {
	limiter  *rate.Limiter
	provider string
}

// NewTokenBucketLimiter creates a new token bucket rate limiter.
// reqPerMinute: maximum requests per minute
// burst: maximum burst size
func NewTokenBucketLimiter(provider string, reqPerMinute float64, burst int) *TokenBucketLimiter {
	if burst <= 0 {
		burst = int(reqPerMinute / 10)
		if burst < 1 {
			burst = 1
		}
	}

	return &TokenBucketLimiter{
		limiter:  rate.NewLimiter(rate.Limit(reqPerMinute/60.0), burst),
		provider: provider,
	}
}

// Wait blocks until a token is available or context is cancelled.
func (l *TokenBucketLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(errors.ErrRateLimitExceeded, "rate limiter wait cancelled for provider %s: %v", l.provider, err)
	}
	return nil
}

// Limit returns the configured rate limit in requests per minute.
func (l *TokenBucketLimiter) Limit() float64 {
	return float64(l.limiter.Limit()) * 60.0
}

// NoopLimiter performs no rate limiting. Used in tests.
type NoopLimiter struct{}

func (NoopLimiter) Wait(ctx context.Context) error { return nil }
func (NoopLimiter) Limit() float64                 { return 0 }
