package scheduler

import (
	"time"

	syncdomain "rolodex-backend/internal/sync/domain"
	syncusecase "rolodex-backend/internal/sync/usecase"
)

// Outcome is what the consumer does with a message after a sync attempt.
type Outcome int

const (
	// OutcomeAck acknowledges the message, the job is done.
	OutcomeAck Outcome = iota
	// OutcomeRetry acknowledges the message and schedules a delayed
	// follow-up job with an incremented retry count.
	OutcomeRetry
	// OutcomeDrop acknowledges the message without a follow-up; the job
	// can never succeed or has exhausted its retries.
	OutcomeDrop
	// OutcomeRedeliver gives the message back to the queue for a near-term
	// redelivery, used for transient faults.
	OutcomeRedeliver
)

const baseRetryDelay = 30 * time.Second

// decide maps one sync attempt onto a queue outcome.
//
// Permanent failures (revoked grant, deleted integration) are dropped since
// retrying cannot help. Transient failures go back to the queue. A throttled
// run succeeded partially, so it is acked and a delayed retry re-covers the
// window, until the retry budget runs out.
func decide(job *syncdomain.SyncJob, result *syncusecase.Result, err error, maxRetries int) Outcome {
	if err != nil {
		if syncdomain.IsPermanent(err) {
			return OutcomeDrop
		}
		return OutcomeRedeliver
	}

	if result != nil && result.RateLimited {
		if job.RetryCount >= maxRetries {
			return OutcomeDrop
		}
		return OutcomeRetry
	}

	return OutcomeAck
}

// retryDelay picks the wait before a throttled job runs again: exponential
// backoff from the retry count, raised to the provider's hint when that is
// longer, capped at maxDelay.
func retryDelay(retryCount int, hint, maxDelay time.Duration) time.Duration {
	delay := baseRetryDelay
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= maxDelay {
			break
		}
	}
	if hint > delay {
		delay = hint
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
