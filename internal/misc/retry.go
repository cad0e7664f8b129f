package misc

import (
	"context"
	"fmt"
	"time"
)

// Backoff lists the pauses taken between attempts. An empty Backoff allows a single attempt.
type Backoff []time.Duration

// DefaultBackoff is used by storage adapters for transient failures.
// Event delivery never retries.
var DefaultBackoff = Backoff{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
}

// Attempts reports how many times Retry may call the operation.
func (b Backoff) Attempts() int { return len(b) + 1 }

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retry calls op until it succeeds, fails with an error isRetryable rejects, or ctx ends.
// When retries run out the last error is wrapped in *ExhaustedError.
func Retry(ctx context.Context, delays Backoff, isRetryable func(error) bool, op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case isRetryable == nil || !isRetryable(err):
			return err
		case attempt == delays.Attempts():
			if attempt == 1 {
				return err
			}
			return &ExhaustedError{Attempts: attempt, Err: err}
		}
		if err := pause(ctx, delays[attempt-1]); err != nil {
			return err
		}
	}
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
