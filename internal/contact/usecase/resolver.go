package usecase

import (
	"context"
	"sort"

	contactdomain "rolodex-backend/internal/contact/domain"
	syncdomain "rolodex-backend/internal/sync/domain"
	"rolodex-backend/pkg/classify"

	"go.uber.org/zap"
)

// Extraction is the output of one resolution pass: the contacts observed in
// a batch, keyed by normalized email, plus the interactions they produced.
type Extraction struct {
	Candidates   map[string]*contactdomain.CandidateContact
	Interactions []contactdomain.InteractionCandidate
}

// NewExtraction creates an empty extraction
func NewExtraction() *Extraction {
	return &Extraction{Candidates: make(map[string]*contactdomain.CandidateContact)}
}

// Resolver turns raw provider messages and events into contact candidates
// and interaction candidates. Email resolution is two-staged: only addresses
// the owner has written to are admitted, and inbound mail from anyone else
// is ignored. Calendar resolution has no such gate because accepting a
// meeting already implies a mutual relationship.
type Resolver struct {
	classifier classify.Classifier
	logger     *zap.Logger
}

// NewResolver creates a new resolver instance
func NewResolver(classifier classify.Classifier, logger *zap.Logger) *Resolver {
	return &Resolver{
		classifier: classifier,
		logger:     logger.Named("resolver"),
	}
}

// ExtractFromMessages resolves one batch of messages for the given owner
// address.
//
// Stage one builds the outbound allow-set: every recipient of the owner's
// sent mail, minus the owner themselves and minus automated senders. The
// set is computed over the whole batch before any inbound message is
// considered, so ordering within the batch cannot change the result.
//
// Stage two folds every message: sent mail admits its recipients directly,
// inbound mail admits only a sender already present in the allow-set.
func (r *Resolver) ExtractFromMessages(ctx context.Context, ownerEmail string, messages []*syncdomain.Message) *Extraction {
	owner := contactdomain.NormalizeEmail(ownerEmail)
	ex := NewExtraction()

	ordered := make([]*syncdomain.Message, len(messages))
	copy(ordered, messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	allowed := make(map[string]bool)
	for _, msg := range ordered {
		if !msg.Sent {
			continue
		}
		for _, rcpt := range recipientsOf(msg) {
			email := contactdomain.NormalizeEmail(rcpt.Email)
			if email == "" || email == owner || allowed[email] {
				continue
			}
			if r.classifier.Classify(ctx, email, rcpt.Name, messageMetadata(msg)) {
				r.logger.Debug("skipping automated recipient", zap.String("email", email))
				continue
			}
			allowed[email] = true
		}
	}

	for _, msg := range ordered {
		if msg.Sent {
			seen := make(map[string]bool)
			for _, rcpt := range recipientsOf(msg) {
				email := contactdomain.NormalizeEmail(rcpt.Email)
				if !allowed[email] || seen[email] {
					continue
				}
				seen[email] = true
				r.admit(ex, email, rcpt.Name, msg, contactdomain.InteractionEmailSent)
			}
			continue
		}

		sender := contactdomain.NormalizeEmail(msg.From.Email)
		if !allowed[sender] {
			continue
		}
		r.admit(ex, sender, msg.From.Name, msg, contactdomain.InteractionEmailReceived)
	}

	return ex
}

// ExtractFromEvents resolves one batch of calendar events. Every attendee
// and organizer other than the owner is admitted, after the automated-sender
// check filters out rooms, resources and scheduling bots.
func (r *Resolver) ExtractFromEvents(ctx context.Context, ownerEmail string, events []*syncdomain.Event) *Extraction {
	owner := contactdomain.NormalizeEmail(ownerEmail)
	ex := NewExtraction()

	ordered := make([]*syncdomain.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartsAt.Before(ordered[j].StartsAt)
	})

	for _, event := range ordered {
		seen := make(map[string]bool)
		people := append([]syncdomain.Address{event.Organizer}, event.Participants...)
		for _, person := range people {
			email := contactdomain.NormalizeEmail(person.Email)
			if email == "" || email == owner || seen[email] {
				continue
			}
			if r.classifier.Classify(ctx, email, person.Name, &classify.Metadata{Subject: event.Title}) {
				r.logger.Debug("skipping automated participant", zap.String("email", email))
				continue
			}
			seen[email] = true

			candidate := ex.Candidates[email]
			if candidate == nil {
				candidate = &contactdomain.CandidateContact{Email: email}
				ex.Candidates[email] = candidate
			}
			candidate.Observe(person.Name, event.StartsAt, contactdomain.SourceCalendar)

			ex.Interactions = append(ex.Interactions, contactdomain.InteractionCandidate{
				Email:      email,
				Type:       contactdomain.InteractionMeeting,
				Subject:    event.Title,
				OccurredAt: event.StartsAt,
				NaturalKey: event.ID,
			})
		}
	}

	return ex
}

func (r *Resolver) admit(ex *Extraction, email, displayName string, msg *syncdomain.Message, kind contactdomain.InteractionType) {
	candidate := ex.Candidates[email]
	if candidate == nil {
		candidate = &contactdomain.CandidateContact{Email: email}
		ex.Candidates[email] = candidate
	}
	candidate.Observe(displayName, msg.Date, contactdomain.SourceEmail)

	ex.Interactions = append(ex.Interactions, contactdomain.InteractionCandidate{
		Email:      email,
		Type:       kind,
		Subject:    msg.Subject,
		OccurredAt: msg.Date,
		NaturalKey: msg.ID,
	})
}

func recipientsOf(msg *syncdomain.Message) []syncdomain.Address {
	recipients := make([]syncdomain.Address, 0, len(msg.To)+len(msg.Cc))
	recipients = append(recipients, msg.To...)
	recipients = append(recipients, msg.Cc...)
	return recipients
}

func messageMetadata(msg *syncdomain.Message) *classify.Metadata {
	return &classify.Metadata{Subject: msg.Subject, Headers: msg.Headers}
}
