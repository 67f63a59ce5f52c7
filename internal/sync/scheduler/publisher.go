package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	syncdomain "rolodex-backend/internal/sync/domain"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// notBeforeAttr carries the earliest processing time of a delayed job,
// RFC3339. The consumer gives back messages that are not yet due.
const notBeforeAttr = "notBefore"

// Publisher enqueues sync jobs.
type Publisher struct {
	topic    *pubsub.Topic
	maxDelay time.Duration
	logger   *zap.Logger
}

// NewPublisher creates a new publisher instance
func NewPublisher(client *pubsub.Client, topicName string, maxDelay time.Duration, logger *zap.Logger) *Publisher {
	return &Publisher{
		topic:    client.Topic(topicName),
		maxDelay: maxDelay,
		logger:   logger.Named("publisher"),
	}
}

// Publish enqueues a job for immediate processing.
func (p *Publisher) Publish(ctx context.Context, job *syncdomain.SyncJob) error {
	return p.publish(ctx, job, 0)
}

// PublishDelayed enqueues a job that must not run before the given delay
// has passed. Delays are capped so a bad provider hint cannot park a job
// for hours.
func (p *Publisher) PublishDelayed(ctx context.Context, job *syncdomain.SyncJob, delay time.Duration) error {
	if delay > p.maxDelay {
		p.logger.Warn("capping retry delay",
			zap.Duration("requested", delay),
			zap.Duration("cap", p.maxDelay))
		delay = p.maxDelay
	}
	return p.publish(ctx, job, delay)
}

func (p *Publisher) publish(ctx context.Context, job *syncdomain.SyncJob, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal sync job: %w", err)
	}

	msg := &pubsub.Message{Data: data}
	if delay > 0 {
		msg.Attributes = map[string]string{
			notBeforeAttr: time.Now().Add(delay).Format(time.RFC3339),
		}
	}

	if _, err := p.topic.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("failed to publish sync job: %w", err)
	}

	p.logger.Info("sync job enqueued",
		zap.String("grantId", job.GrantID),
		zap.Int("retryCount", job.RetryCount),
		zap.Duration("delay", delay))
	return nil
}
