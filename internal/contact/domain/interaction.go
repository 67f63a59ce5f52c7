package domain

import "time"

// InteractionType tags where an interaction came from.
type InteractionType string

const (
	InteractionEmailSent     InteractionType = "email_sent"
	InteractionEmailReceived InteractionType = "email_received"
	InteractionMeeting       InteractionType = "calendar_meeting"
)

// Interaction is one recorded touchpoint with a person. The natural key is
// the provider message or event id; the unique index on
// (owner_user_id, person_id, natural_key) is what makes re-processing the
// same item a no-op.
type Interaction struct {
	ID            string          `json:"id" gorm:"primaryKey"`
	OwnerUserID   string          `json:"owner_user_id" gorm:"uniqueIndex:idx_owner_person_natural;not null"`
	PersonID      string          `json:"person_id" gorm:"uniqueIndex:idx_owner_person_natural;not null"`
	IntegrationID string          `json:"integration_id" gorm:"index"`
	Type          InteractionType `json:"type" gorm:"not null"`
	Subject       string          `json:"subject,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	NaturalKey    string          `json:"natural_key" gorm:"uniqueIndex:idx_owner_person_natural;not null"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InteractionCandidate is an interaction observed during a sync batch,
// before its contact has been resolved to a persisted person.
type InteractionCandidate struct {
	Email      string // normalized contact address
	Type       InteractionType
	Subject    string
	OccurredAt time.Time
	NaturalKey string
}
