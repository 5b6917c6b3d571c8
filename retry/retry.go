// Package retry provides a small bounded-retry policy with a fixed delay
// between attempts. The same policy object backs remote pushes, dependency
// installation, and interactive re-prompts; call sites differ only in
// their parameters.
package retry

import (
	"context"
	"time"
)

// Policy describes a bounded fixed-delay retry.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// DefaultPolicy matches the bounded retries used for network pushes and
// dependency installation.
var DefaultPolicy = Policy{MaxAttempts: 3, Delay: 5 * time.Second}

// Do runs op until it succeeds, returns a non-recoverable error, or
// attempts are exhausted. The context cancels the inter-attempt wait.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !IsRecoverable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return err
}

// Do runs op with the default policy.
func Do(ctx context.Context, op func() error) error {
	return DefaultPolicy.Do(ctx, op)
}
