package httpclient

import (
	"context"
	crand "crypto/rand"
	"math"
	"math/big"
	"time"
)

const (
	// DefaultMaxAttempts is the total attempt budget when none is configured
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the backoff base when none is configured
	DefaultBaseDelay = 1 * time.Second
	// DefaultMultiplier is the backoff growth factor when none is configured
	DefaultMultiplier = 2.0
	// DefaultMaxDelay caps a single backoff wait
	DefaultMaxDelay = 30 * time.Second

	// maxBackoffExponent bounds the growth computation so large attempt
	// numbers cannot overflow the duration math
	maxBackoffExponent = 20
)

// RetryPolicy controls how many attempts a request gets and how long the
// client waits between them. MaxAttempts counts the first attempt: 3 means
// one try plus two retries; 1 disables retries. Zero fields fall back to the
// defaults.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Jitter      bool
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the policy applied when the configuration does
// not provide one: three attempts, one second base delay, doubling, no jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
		MaxDelay:    DefaultMaxDelay,
	}
}

// withDefaults fills zero or negative fields with the default values
func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = DefaultMultiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// ShouldRetry reports whether another attempt is allowed after the given
// attempt number failed with err. The error category alone decides
// retryability; the policy only enforces the attempt budget.
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	return IsRetryable(err)
}

// Delay returns the wait before the given attempt number; attempt 2 is the
// first retry and waits BaseDelay, each later attempt multiplies the previous
// wait by Multiplier, capped at MaxDelay. With Jitter enabled the result is
// drawn uniformly from [0, delay).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	exponent := attempt - 2
	if exponent > maxBackoffExponent {
		exponent = maxBackoffExponent
	}
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(exponent)))
	if p.MaxDelay > 0 && (delay <= 0 || delay > p.MaxDelay) {
		delay = p.MaxDelay
	}
	if p.Jitter {
		delay = fullJitter(delay)
	}
	return delay
}

// fullJitter draws a uniform duration in [0, d) using crypto/rand
func fullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(d)))
	if err != nil {
		return d
	}
	return time.Duration(n.Int64())
}

// Clock abstracts time for the retry controller so tests can observe and
// collapse backoff waits.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// realClock is the Clock used outside tests
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
