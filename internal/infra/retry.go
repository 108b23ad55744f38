package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryOnce executes fn and, if the error is retryable, tries exactly once
// more with no backoff. The latency budget for a voice response is too tight
// for anything fancier: the second attempt is skipped entirely when the
// context deadline no longer leaves headroom for a full attempt.
func RetryOnce(ctx context.Context, headroom time.Duration, retryable func(error) bool, fn func() error) error {
	err := fn()
	if err == nil || !retryable(err) {
		return err
	}

	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < headroom {
		return err
	}

	return fn()
}

// IsRetryableHTTPStatus returns true if the HTTP status code signals a
// condition that an immediate retry might clear.
func IsRetryableHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
