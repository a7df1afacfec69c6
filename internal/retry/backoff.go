package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// ExponentialBackoff implements exponential backoff with jitter.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	// maxAttempts is the number of retries after the first attempt (-1 = unlimited)
	maxAttempts int
	// jitter of 0.1 spreads each delay by +/- 10%
	jitter float64
	// random returns values in [0, 1); nil means math/rand
	random func() float64
}

var _ fsedit.BackoffStrategy = (*ExponentialBackoff)(nil)

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay caps the delay between retries.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.maxDelay = d
	}
}

// WithMultiplier sets the growth factor between retries.
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.multiplier = m
	}
}

// WithJitter sets the jitter factor (0.0-1.0).
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = j
	}
}

// WithJitterFunc replaces the random source, for deterministic tests.
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.random = f
	}
}

// NewExponentialBackoff creates a backoff allowing maxAttempts retries.
//
//	backoff := retry.NewExponentialBackoff(3,
//	    retry.WithInitialDelay(200*time.Millisecond),
//	    retry.WithJitter(0.2),
//	)
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: fsedit.DefaultRetryInitialDelay,
		maxDelay:     fsedit.DefaultRetryMaxDelay,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DefaultBackoff returns the backoff used by the storage backends.
func DefaultBackoff() *ExponentialBackoff {
	return NewExponentialBackoff(fsedit.DefaultRetryMaxAttempts)
}

// NextDelay returns initialDelay * multiplier^attempt, capped at maxDelay, with jitter applied.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))
	if limit := float64(b.maxDelay); delay > limit {
		delay = limit
	}

	if b.jitter > 0 {
		random := b.random
		if random == nil {
			random = rand.Float64
		}
		// map [0,1) onto [-1,1)
		delay *= 1.0 + b.jitter*(random()-0.5)*2.0
	}

	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

// MaxAttempts returns the maximum number of retries.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}
