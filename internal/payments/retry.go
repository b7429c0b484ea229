package payments

import (
	"context"
	"errors"
	"time"
)

const (
	retryAttempts    = 3
	retryBaseBackoff = 200 * time.Millisecond
)

// withRetry runs a gateway call up to retryAttempts times with
// exponential backoff. Signature mismatches are never retried; they are
// deterministic.
func withRetry(ctx context.Context, gateway, op string, fn func() error) error {
	var lastErr error
	backoff := retryBaseBackoff
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrSignatureMismatch) {
			return lastErr
		}
		if attempt == retryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return &GatewayError{Gateway: gateway, Op: op, Attempts: retryAttempts, Err: lastErr}
}
