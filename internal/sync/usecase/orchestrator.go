package usecase

import (
	"context"
	"fmt"
	"time"

	contactusecase "rolodex-backend/internal/contact/usecase"
	integrationdomain "rolodex-backend/internal/integration/domain"
	integrationrepo "rolodex-backend/internal/integration/repository"
	syncdomain "rolodex-backend/internal/sync/domain"

	"go.uber.org/zap"
)

// Sources bundles the provider views for one integration. Events is nil for
// providers without a calendar.
type Sources struct {
	Messages syncdomain.MessageSource
	Events   syncdomain.EventSource
	Close    func()
}

// SourceFactory opens provider sources for an integration.
type SourceFactory interface {
	Sources(ctx context.Context, integration *integrationdomain.Integration, mock bool) (*Sources, error)
}

// Result summarizes one sync run for logging and notification.
type Result struct {
	EmailContacts    int
	CalendarContacts int
	Interactions     int
	Incremental      bool
	RateLimited      bool
	RetryAfter       time.Duration
}

// Orchestrator runs one full sync for one integration: collect messages,
// resolve and persist contacts and their timelines, then do the same for
// calendar events. The email stage always runs before the calendar stage so
// email-sourced names win on first contact. Each stage applies its own
// timeline entries, so a first-run timeline reads stage by stage rather
// than globally sorted by time.
type Orchestrator struct {
	integrations integrationrepo.IntegrationRepository
	factory      SourceFactory
	resolver     *contactusecase.Resolver
	recorder     *contactusecase.Recorder
	timeline     *contactusecase.TimelineUpdater
	logger       *zap.Logger

	messageCap int
	pageSize   int64
}

// NewOrchestrator creates a new orchestrator instance
func NewOrchestrator(
	integrations integrationrepo.IntegrationRepository,
	factory SourceFactory,
	resolver *contactusecase.Resolver,
	recorder *contactusecase.Recorder,
	timeline *contactusecase.TimelineUpdater,
	messageCap int,
	pageSize int64,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		integrations: integrations,
		factory:      factory,
		resolver:     resolver,
		recorder:     recorder,
		timeline:     timeline,
		logger:       logger.Named("orchestrator"),
		messageCap:   messageCap,
		pageSize:     pageSize,
	}
}

// Sync runs the pipeline for one job.
//
// A throttled run persists whatever it collected but does not advance the
// sync watermark, so the retry re-covers the same window and the natural-key
// constraint absorbs the overlap. Only a clean run moves LastSyncAt, and it
// moves it to the moment the run started, never to its end.
func (o *Orchestrator) Sync(ctx context.Context, job *syncdomain.SyncJob) (*Result, error) {
	integration, err := o.integrations.FindByID(job.GrantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load integration: %w", err)
	}
	if integration == nil {
		return nil, syncdomain.ErrIntegrationNotFound
	}

	syncStart := time.Now()
	after := integration.LastSyncAt
	result := &Result{Incremental: after != nil}

	log := o.logger.With(
		zap.String("grantId", integration.ID),
		zap.String("provider", integration.Provider),
		zap.Bool("incremental", result.Incremental))
	log.Info("sync started")

	sources, err := o.factory.Sources(ctx, integration, job.MockMode)
	if err != nil {
		return nil, o.markError(integration, err)
	}
	if sources.Close != nil {
		defer sources.Close()
	}

	// Email stage
	messages, rateErr, err := Collect(ctx, func(ctx context.Context, pageToken string, pageSize int64) ([]*syncdomain.Message, string, error) {
		page, err := sources.Messages.ListMessages(ctx, after, pageToken, pageSize)
		if err != nil {
			return nil, "", err
		}
		return page.Messages, page.NextPageToken, nil
	}, o.messageCap, o.pageSize, log)
	if err != nil {
		return nil, o.markError(integration, err)
	}
	if rateErr != nil {
		result.RateLimited = true
		result.RetryAfter = rateErr.RetryAfter
	}

	extraction := o.resolver.ExtractFromMessages(ctx, integration.EmailAddress, messages)
	persisted, err := o.recorder.Persist(integration.UserID, integration.ID, extraction)
	if err != nil {
		return nil, o.markError(integration, err)
	}
	result.EmailContacts = len(extraction.Candidates)
	result.Interactions += len(persisted.Interactions)
	o.timeline.Apply(integration.UserID, persisted.Interactions)

	// Calendar stage, skipped for providers without one and deferred to the
	// retry when the email stage was already throttled.
	if sources.Events != nil && !result.RateLimited {
		events, throttled, err := o.collectEvents(ctx, sources.Events, after, log)
		if err != nil {
			return nil, o.markError(integration, err)
		}
		if throttled != nil {
			result.RateLimited = true
			result.RetryAfter = throttled.RetryAfter
		}

		extraction := o.resolver.ExtractFromEvents(ctx, integration.EmailAddress, events)
		persisted, err := o.recorder.Persist(integration.UserID, integration.ID, extraction)
		if err != nil {
			return nil, o.markError(integration, err)
		}
		result.CalendarContacts = len(extraction.Candidates)
		result.Interactions += len(persisted.Interactions)
		o.timeline.Apply(integration.UserID, persisted.Interactions)
	}

	integration.Status = integrationdomain.StatusActive
	integration.SyncError = ""
	if !result.RateLimited {
		integration.LastSyncAt = &syncStart
		if integration.FirstSyncAt == nil {
			integration.FirstSyncAt = &syncStart
		}
	}
	if err := o.integrations.Update(integration); err != nil {
		return nil, fmt.Errorf("failed to save sync watermark: %w", err)
	}

	log.Info("sync finished",
		zap.Int("emailContacts", result.EmailContacts),
		zap.Int("calendarContacts", result.CalendarContacts),
		zap.Int("interactions", result.Interactions),
		zap.Bool("rateLimited", result.RateLimited))
	return result, nil
}

// collectEvents gathers events across all readable calendars. A failure on
// one calendar is logged and skipped; throttling stops the stage and bubbles
// up so the run is retried.
func (o *Orchestrator) collectEvents(ctx context.Context, source syncdomain.EventSource, after *time.Time, log *zap.Logger) ([]*syncdomain.Event, *syncdomain.RateLimitError, error) {
	calendars, err := source.Calendars(ctx)
	if err != nil {
		return nil, nil, err
	}

	var all []*syncdomain.Event
	for _, cal := range calendars {
		events, rateErr, err := Collect(ctx, func(ctx context.Context, pageToken string, pageSize int64) ([]*syncdomain.Event, string, error) {
			page, err := source.ListEvents(ctx, cal.ID, after, pageToken, pageSize)
			if err != nil {
				return nil, "", err
			}
			return page.Events, page.NextPageToken, nil
		}, o.messageCap, o.pageSize, log)
		if err != nil {
			if syncdomain.IsPermanent(err) {
				return nil, nil, err
			}
			log.Warn("skipping calendar after fetch failure",
				zap.String("calendarId", cal.ID),
				zap.Error(err))
			continue
		}

		all = append(all, events...)
		if rateErr != nil {
			return all, rateErr, nil
		}
	}
	return all, nil, nil
}

func (o *Orchestrator) markError(integration *integrationdomain.Integration, cause error) error {
	integration.Status = integrationdomain.StatusError
	integration.SyncError = cause.Error()
	if err := o.integrations.Update(integration); err != nil {
		o.logger.Error("failed to record sync error",
			zap.String("grantId", integration.ID),
			zap.Error(err))
	}
	return cause
}
