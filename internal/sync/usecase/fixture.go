package usecase

import (
	"context"
	"time"

	syncdomain "rolodex-backend/internal/sync/domain"
)

// fixtureSources returns canned provider data for demos and end-to-end
// checks without touching a real account. The set covers the interesting
// resolution paths: a sent thread, a reply to it, an automated newsletter
// and an inbound stranger.
func fixtureSources(ownerEmail string) *Sources {
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	owner := syncdomain.Address{Email: ownerEmail}
	alex := syncdomain.Address{Email: "alex@acme.io", Name: "Alex Chen"}

	messages := []*syncdomain.Message{
		{
			ID:      "fx-msg-001",
			Subject: "Project kickoff",
			From:    owner,
			To:      []syncdomain.Address{alex},
			Date:    base,
			Sent:    true,
		},
		{
			ID:      "fx-msg-002",
			Subject: "Re: Project kickoff",
			From:    alex,
			To:      []syncdomain.Address{owner},
			Date:    base.Add(2 * time.Hour),
		},
		{
			ID:      "fx-msg-003",
			Subject: "Your weekly digest",
			From:    syncdomain.Address{Email: "noreply@updates.example.com", Name: "Example Updates"},
			To:      []syncdomain.Address{owner},
			Date:    base.Add(3 * time.Hour),
			Headers: map[string]string{"List-Unsubscribe": "<https://updates.example.com/unsub>"},
		},
		{
			ID:      "fx-msg-004",
			Subject: "Quick question",
			From:    syncdomain.Address{Email: "sam@beta.dev", Name: "Sam Lee"},
			To:      []syncdomain.Address{owner},
			Date:    base.Add(4 * time.Hour),
		},
	}

	events := []*syncdomain.Event{
		{
			ID:        "fx-evt-001",
			Title:     "Kickoff planning",
			StartsAt:  base.Add(26 * time.Hour),
			Organizer: owner,
			Participants: []syncdomain.Address{
				owner,
				alex,
			},
		},
	}

	return &Sources{
		Messages: &fixtureMessageSource{messages: messages},
		Events:   &fixtureEventSource{events: events},
	}
}

type fixtureMessageSource struct {
	messages []*syncdomain.Message
}

func (f *fixtureMessageSource) ListMessages(_ context.Context, after *time.Time, pageToken string, _ int64) (*syncdomain.MessagePage, error) {
	if pageToken != "" {
		return &syncdomain.MessagePage{}, nil
	}
	page := &syncdomain.MessagePage{}
	for _, msg := range f.messages {
		if after != nil && !msg.Date.After(*after) {
			continue
		}
		page.Messages = append(page.Messages, msg)
	}
	return page, nil
}

type fixtureEventSource struct {
	events []*syncdomain.Event
}

func (f *fixtureEventSource) Calendars(_ context.Context) ([]syncdomain.Calendar, error) {
	return []syncdomain.Calendar{{ID: "primary", Name: "Primary", Primary: true}}, nil
}

func (f *fixtureEventSource) ListEvents(_ context.Context, _ string, after *time.Time, pageToken string, _ int64) (*syncdomain.EventPage, error) {
	if pageToken != "" {
		return &syncdomain.EventPage{}, nil
	}
	page := &syncdomain.EventPage{}
	for _, event := range f.events {
		if after != nil && !event.StartsAt.After(*after) {
			continue
		}
		page.Events = append(page.Events, event)
	}
	return page, nil
}
