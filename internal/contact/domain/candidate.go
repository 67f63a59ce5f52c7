package domain

import (
	"strings"
	"time"
)

// CandidateSource marks which sync stage produced a candidate. Email wins
// over calendar when both stages see the same address.
type CandidateSource string

const (
	SourceEmail    CandidateSource = "email"
	SourceCalendar CandidateSource = "calendar"
)

// CandidateContact is the transient, per-sync-run accumulation of one
// address before persistence. Identity is the normalized email.
type CandidateContact struct {
	Email              string
	FirstName          string
	LastName           string
	FirstInteractionAt time.Time
	LastInteractionAt  time.Time
	InteractionCount   int
	Source             CandidateSource
}

// Observe merges one occurrence into the candidate: interaction window
// expands, count increments, the most recently observed non-empty name
// parts win, and the source promotes to email once any email interaction
// is seen.
func (c *CandidateContact) Observe(displayName string, at time.Time, source CandidateSource) {
	first, last := SplitName(displayName)
	if first != "" {
		c.FirstName = first
	}
	if last != "" {
		c.LastName = last
	}

	if c.InteractionCount == 0 || at.Before(c.FirstInteractionAt) {
		c.FirstInteractionAt = at
	}
	if c.InteractionCount == 0 || at.After(c.LastInteractionAt) {
		c.LastInteractionAt = at
	}
	c.InteractionCount++

	if source == SourceEmail {
		c.Source = SourceEmail
	} else if c.Source == "" {
		c.Source = SourceCalendar
	}
}

// FullName joins the known name parts.
func (c *CandidateContact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// NormalizeEmail lowercases and trims an address for use as an identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SplitName splits a display name into first and last parts.
func SplitName(displayName string) (first, last string) {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func firstNameOf(name, email string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
