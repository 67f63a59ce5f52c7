package domain

import (
	"context"
	"time"
)

// Address is a parsed mailbox: "Jane Doe <jane@example.com>".
type Address struct {
	Email string
	Name  string
}

// Message is the provider-neutral shape of one email message, reduced to
// what the sync pipeline needs: addressing, timing and the handful of
// headers the automated-sender classifier looks at.
type Message struct {
	ID      string // provider message id, used as the interaction natural key
	Subject string
	From    Address
	To      []Address
	Cc      []Address
	Date    time.Time
	Sent    bool // true when the integration owner is the sender
	Headers map[string]string
}

// MessagePage is one page of a paginated message listing.
type MessagePage struct {
	Messages      []*Message
	NextPageToken string
}

// MessageSource lists the owner's messages newest-first, optionally scoped
// to items after a timestamp (incremental sync). Implementations signal
// provider throttling with *RateLimitError and revoked credentials with
// ErrGrantRevoked.
type MessageSource interface {
	ListMessages(ctx context.Context, after *time.Time, pageToken string, pageSize int64) (*MessagePage, error)
}

// Calendar identifies one calendar of the integration owner.
type Calendar struct {
	ID      string
	Name    string
	Primary bool
}

// Event is the provider-neutral shape of one calendar event.
type Event struct {
	ID           string // provider event id, used as the interaction natural key
	Title        string
	StartsAt     time.Time
	Organizer    Address
	Participants []Address
}

// EventPage is one page of a paginated event listing.
type EventPage struct {
	Events        []*Event
	NextPageToken string
}

// EventSource lists the owner's calendars and their events.
type EventSource interface {
	Calendars(ctx context.Context) ([]Calendar, error)
	ListEvents(ctx context.Context, calendarID string, after *time.Time, pageToken string, pageSize int64) (*EventPage, error)
}
