package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrGrantRevoked means the stored credentials for an integration are no
// longer accepted by the provider. The scheduler drops jobs that fail with
// it instead of retrying.
var ErrGrantRevoked = errors.New("provider grant revoked or expired")

// ErrIntegrationNotFound means the job references an integration that no
// longer exists. Also a permanent failure.
var ErrIntegrationNotFound = errors.New("integration not found")

// RateLimitError is the provider's throttling signal. RetryAfter carries
// the provider-suggested wait when one was given, zero otherwise.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider rate limited, retry after %s", e.RetryAfter)
	}
	return "provider rate limited"
}

// IsPermanent reports whether err should never be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrGrantRevoked) || errors.Is(err, ErrIntegrationNotFound)
}
