package scheduler

import (
	"context"
	"encoding/json"
	"time"

	syncdomain "rolodex-backend/internal/sync/domain"
	syncusecase "rolodex-backend/internal/sync/usecase"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// Notifier tells the user about a finished sync. Implementations must not
// block the consume loop for long.
type Notifier interface {
	SyncCompleted(ctx context.Context, userID string, result *syncusecase.Result)
}

// Config tunes the consume loop.
type Config struct {
	TopicName      string
	MaxRetries     int
	HandlerTimeout time.Duration
	DeadlineMargin time.Duration
}

// Consumer pulls sync jobs off the queue and runs them one at a time. One
// job per integration is plenty; syncs are heavy and the natural-key
// constraint already makes overlap harmless, so there is no point racing
// two of them.
type Consumer struct {
	client       *pubsub.Client
	orchestrator *syncusecase.Orchestrator
	publisher    *Publisher
	notifier     Notifier
	cfg          Config
	logger       *zap.Logger
}

// NewConsumer creates a new consumer instance
func NewConsumer(client *pubsub.Client, orchestrator *syncusecase.Orchestrator, publisher *Publisher, notifier Notifier, cfg Config, logger *zap.Logger) *Consumer {
	return &Consumer{
		client:       client,
		orchestrator: orchestrator,
		publisher:    publisher,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger.Named("scheduler"),
	}
}

// Start blocks, receiving jobs until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	subName := c.cfg.TopicName + "-sub" // Convention: topic-sub
	log := c.logger.With(zap.String("subscription", subName))

	sub, err := c.ensureSubscription(ctx, subName)
	if err != nil {
		log.Error("failed to set up subscription", zap.Error(err))
		return
	}

	// Sequential processing: one outstanding job at a time.
	sub.ReceiveSettings.NumGoroutines = 1
	sub.ReceiveSettings.MaxOutstandingMessages = 1
	sub.ReceiveSettings.Synchronous = true

	log.Info("listening for sync jobs")
	if err := sub.Receive(ctx, c.handleMessage); err != nil {
		log.Error("receive loop ended", zap.Error(err))
	}
}

func (c *Consumer) ensureSubscription(ctx context.Context, subName string) (*pubsub.Subscription, error) {
	sub := c.client.Subscription(subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return sub, nil
	}

	topic := c.client.Topic(c.cfg.TopicName)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !topicExists {
		if topic, err = c.client.CreateTopic(ctx, c.cfg.TopicName); err != nil {
			return nil, err
		}
		c.logger.Info("created topic", zap.String("topic", c.cfg.TopicName))
	}

	sub, err = c.client.CreateSubscription(ctx, subName, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 10 * time.Minute,
		// A nacked not-yet-due retry comes back on this backoff instead of
		// spinning through immediate redeliveries.
		RetryPolicy: &pubsub.RetryPolicy{
			MinimumBackoff: 10 * time.Second,
			MaximumBackoff: 5 * time.Minute,
		},
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("created subscription", zap.String("subscription", subName))
	return sub, nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg *pubsub.Message) {
	// A panic must never take down the consume loop; the message goes back
	// to the queue instead.
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("sync handler panicked", zap.Any("panic", rec))
			msg.Nack()
		}
	}()
	// Flush buffered log entries once the job settles; runs can be minutes
	// apart and a crash in between would lose the tail of the last one.
	defer c.logger.Sync()

	if due, wait := c.messageDue(msg); !due {
		c.logger.Debug("delayed job not yet due", zap.Duration("remaining", wait))
		msg.Nack()
		return
	}

	var job syncdomain.SyncJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		// Redelivering a malformed payload would loop forever.
		c.logger.Error("dropping malformed sync job", zap.Error(err))
		msg.Ack()
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.HandlerTimeout)
	defer cancel()

	if deadline, ok := runCtx.Deadline(); ok && time.Until(deadline) < c.cfg.DeadlineMargin {
		// Not enough budget left to do useful work, give the job back.
		msg.Nack()
		return
	}

	log := c.logger.With(zap.String("grantId", job.GrantID), zap.Int("retryCount", job.RetryCount))

	result, err := c.orchestrator.Sync(runCtx, &job)
	if err != nil {
		log.Error("sync failed", zap.Error(err))
	}

	switch decide(&job, result, err, c.cfg.MaxRetries) {
	case OutcomeAck:
		msg.Ack()
		c.notify(ctx, &job, result)

	case OutcomeRetry:
		retry := job
		retry.RetryCount++
		delay := retryDelay(job.RetryCount, result.RetryAfter, c.publisher.maxDelay)
		if err := c.publisher.PublishDelayed(ctx, &retry, delay); err != nil {
			log.Error("failed to enqueue retry, redelivering instead", zap.Error(err))
			msg.Nack()
			return
		}
		msg.Ack()

	case OutcomeDrop:
		log.Warn("dropping sync job", zap.Error(err))
		msg.Ack()

	case OutcomeRedeliver:
		msg.Nack()
	}
}

func (c *Consumer) messageDue(msg *pubsub.Message) (bool, time.Duration) {
	raw, ok := msg.Attributes[notBeforeAttr]
	if !ok {
		return true, 0
	}
	notBefore, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// An unreadable attribute must not wedge the message.
		return true, 0
	}
	if wait := time.Until(notBefore); wait > 0 {
		return false, wait
	}
	return true, 0
}

func (c *Consumer) notify(ctx context.Context, job *syncdomain.SyncJob, result *syncusecase.Result) {
	if c.notifier == nil || result == nil || result.RateLimited {
		return
	}
	c.notifier.SyncCompleted(ctx, job.UserID, result)
}
