// Package poll waits for page state by repeatedly evaluating a predicate.
// Every wait in the solver goes through Until or Sleep so that each one is
// bounded and observes context cancellation between checks.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when the predicate never held within the policy timeout.
var ErrTimeout = errors.New("poll: timed out")

// Policy bounds a wait.
type Policy struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Condition is checked once per interval. An error counts as "not yet".
type Condition func(ctx context.Context) (bool, error)

// Until checks cond immediately and then once per interval until it holds,
// the timeout elapses or ctx is done.
func Until(ctx context.Context, p Policy, cond Condition) error {
	interval := p.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	deadline := time.NewTimer(p.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			if lastErr != nil {
				return fmt.Errorf("%w after %s: %v", ErrTimeout, p.Timeout, lastErr)
			}
			return fmt.Errorf("%w after %s", ErrTimeout, p.Timeout)
		case <-ticker.C:
		}
	}
}

// Sleep pauses for d unless ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
