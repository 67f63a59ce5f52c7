package domain

import "time"

const (
	StatusActive = "active"
	StatusError  = "error"
)

const (
	ProviderGoogle = "google"
	ProviderIMAP   = "imap"
)

// Integration is one authorized, revocable connection to a user's external
// email/calendar account. The sync orchestrator is the only writer of the
// sync metadata fields (FirstSyncAt, LastSyncAt, Status, SyncError).
type Integration struct {
	ID           string `json:"id" gorm:"primaryKey"` // grant id
	UserID       string `json:"user_id" gorm:"index;not null"`
	Provider     string `json:"provider" gorm:"not null"` // "google" or "imap"
	EmailAddress string `json:"email_address" gorm:"not null"`

	// Google grants
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`

	// IMAP grants; password is AES-GCM encrypted at rest
	ImapServer   string `json:"imap_server,omitempty"`
	ImapPort     int    `json:"imap_port,omitempty"`
	ImapPassword string `json:"-"`

	FirstSyncAt *time.Time `json:"first_sync_at,omitempty"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	Status      string     `json:"status" gorm:"default:active"`
	SyncError   string     `json:"sync_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
