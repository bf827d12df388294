package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// temporary is implemented by transport errors that are worth retrying.
type temporary interface {
	Temporary() bool
}

func isTemporary(err error) bool {
	var t temporary
	return errors.As(err, &t) && t.Temporary()
}

// withRetry runs fn, retrying temporary failures with exponential backoff.
// Permanent failures and the last temporary failure are returned unchanged.
func (e *Engine) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	if e.maxRetries == 0 {
		return fn(ctx)
	}
	b := retry.WithMaxRetries(e.maxRetries, retry.NewExponential(e.retryBase))
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && isTemporary(err) {
			e.logger.Debug("retrying remote call", "op", op, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

const (
	defaultMaxRetries = 2
	defaultRetryBase  = 200 * time.Millisecond
)
