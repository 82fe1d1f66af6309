// Package resilience provides retry with exponential backoff for the outbound
// provider calls (geocoding, places, crime, flood).
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior with exponential backoff and jitter.
type Policy struct {
	// Attempts is the total number of tries including the first. 1 means no
	// retries. Default: 3.
	Attempts int

	// BaseDelay is the delay before the first retry. Default: 400ms.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. Default: 15s.
	MaxDelay time.Duration

	// Multiplier scales the delay after each attempt. Default: 2.0.
	Multiplier float64

	// Jitter adds random noise as a fraction of the computed delay
	// (0.25 = ±25%). Default: 0.25.
	Jitter float64

	// Retryable overrides the default transient check when set.
	Retryable func(err error) bool

	// OnRetry runs before each backoff sleep with the attempt number and
	// the error that triggered the retry.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy is tuned for the public data APIs the engine talks to.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		BaseDelay:  400 * time.Millisecond,
		MaxDelay:   15 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.25,
	}
}

// Do runs fn under p, retrying transient errors. Context cancellation stops
// retries immediately and returns the last error.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions that return a value. On failure the zero value is
// returned alongside the last error.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(lastErr) || attempt >= p.Attempts-1 {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 400 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 15 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}

	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// LogRetries returns an OnRetry callback that logs each attempt against the
// named provider and operation.
func LogRetries(provider, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying provider call",
			zap.String("provider", provider),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
