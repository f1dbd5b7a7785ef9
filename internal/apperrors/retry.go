package apperrors

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"community-service/internal/logger"
)

const (
	defaultRetries      = 3
	defaultInitialDelay = 200 * time.Millisecond
	defaultMaxDelay     = 2 * time.Second
)

// Retry runs fn with exponential backoff until it succeeds, returns a non-retryable error,
// runs out of attempts, or ctx is done.
func Retry(ctx context.Context, op string, fn func() error) error {
	return RetryN(ctx, op, defaultRetries, fn)
}

func RetryN(ctx context.Context, op string, retries uint64, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultInitialDelay
	b.MaxInterval = defaultMaxDelay

	policy := backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)

	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("retrying operation", "op", op, "wait", wait.String(), "error", err)
	}

	return backoff.RetryNotify(operation, policy, notify)
}
