package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	crerr "github.com/cockroachdb/errors"
)

// RetryNotifier is told about each failed attempt that will be retried.
type RetryNotifier func(attempt int, err error, delay time.Duration)

// Retry runs op under policy with a constant backoff and returns the last
// error once attempts are exhausted. Waiting between attempts stops early when
// ctx is done; the last attempt's error is kept as a secondary error.
func Retry(ctx context.Context, policy RetryPolicy, op func(context.Context) error, notify RetryNotifier) error {
	policy = NormalizeRetryPolicy(policy)

	attempt := 0
	var lastErr error
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		lastErr = op(ctx)
		return struct{}{}, lastErr
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Delay)),
		backoff.WithMaxTries(uint(policy.Attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, delay time.Duration) {
			if notify != nil {
				notify(attempt, err, delay)
			}
		}),
	)
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && lastErr != nil && !crerr.Is(lastErr, ctxErr) {
		return crerr.WithSecondaryError(ctxErr, lastErr)
	}
	if attempt > 1 {
		return crerr.Wrapf(err, "failed after %d attempts", attempt)
	}
	return err
}
