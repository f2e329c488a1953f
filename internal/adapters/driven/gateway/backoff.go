// Package gateway wraps provider adapters with the operational policy
// shared by every provider: rate limiting, bounded concurrency,
// sub-batching, and retry with exponential backoff. Provider adapters
// stay thin HTTP clients; the policy lives here once.
package gateway

import (
	"context"
	"time"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// Default retry policy values.
const (
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = 500 * time.Millisecond
	DefaultMaxBackoff  = 10 * time.Second
)

// RetryPolicy controls retry behaviour for transient provider failures.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseBackoff is the delay before the first retry; each subsequent
	// retry doubles it, capped at MaxBackoff.
	BaseBackoff time.Duration

	// MaxBackoff caps the backoff delay.
	MaxBackoff time.Duration
}

// DefaultRetryPolicy returns the standard retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  DefaultMaxRetries,
		BaseBackoff: DefaultBaseBackoff,
		MaxBackoff:  DefaultMaxBackoff,
	}
}

// delay returns the backoff delay for the given attempt (0-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseBackoff << attempt
	if d > p.MaxBackoff || d <= 0 {
		d = p.MaxBackoff
	}
	return d
}

// retry runs fn, retrying transient failures per the policy. Permanent,
// quota, invalid-input and content-policy failures return immediately.
func (p RetryPolicy) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) || attempt >= p.MaxRetries {
			return err
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
