package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// TimelineEntry is one immutable history line on a person. Entries are
// prepended newest-first and never edited afterwards.
type TimelineEntry struct {
	Kind        string `json:"kind"`
	Text        string `json:"text"`
	DisplayDate string `json:"displayDate"`
	ColorTag    string `json:"colorTag"`
	LinkLabel   string `json:"linkLabel,omitempty"`
}

// Person is a deduplicated contact owned by one user. At most one Person
// exists per (owner_user_id, email).
type Person struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	OwnerUserID string         `json:"owner_user_id" gorm:"uniqueIndex:idx_owner_email;not null"`
	Name        string         `json:"name"`
	Email       string         `json:"email" gorm:"uniqueIndex:idx_owner_email;not null"`
	Starred     bool           `json:"starred" gorm:"default:false"`
	Strength    float64        `json:"strength" gorm:"default:0"`
	Timeline    datatypes.JSON `json:"timeline"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TimelineEntries decodes the person's timeline document. An empty or
// missing document decodes to nil.
func (p *Person) TimelineEntries() ([]TimelineEntry, error) {
	if len(p.Timeline) == 0 {
		return nil, nil
	}
	var entries []TimelineEntry
	if err := json.Unmarshal(p.Timeline, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetTimelineEntries encodes entries back into the timeline document.
func (p *Person) SetTimelineEntries(entries []TimelineEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	p.Timeline = datatypes.JSON(raw)
	return nil
}

// FirstName returns the person's first name for display, falling back to
// the address local part when no name is known.
func (p *Person) FirstName() string {
	return firstNameOf(p.Name, p.Email)
}
