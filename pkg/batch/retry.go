package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/logging"
)

const (
	retryAttempts       = 3
	retryInitialBackoff = 1 * time.Second
	retryMaxBackoff     = 30 * time.Second
)

// withRetry runs op, retrying the transient store error class with
// exponential backoff. Non-transient errors return immediately; an
// exhausted budget wraps the last error so the caller can tell a dead
// store from a one-off failure.
func withRetry(ctx context.Context, what string, op func() error) error {
	delay := retryInitialBackoff
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !errors.IsTransient(lastErr) {
			return lastErr
		}
		if attempt == retryAttempts {
			break
		}
		logging.Ctx(ctx).Warn().
			Err(lastErr).
			Str("op", what).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("transient store error, retrying")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if delay *= 2; delay > retryMaxBackoff {
			delay = retryMaxBackoff
		}
	}
	return fmt.Errorf("%s: %w: %v", what, errors.ErrRetriesExhausted, lastErr)
}
