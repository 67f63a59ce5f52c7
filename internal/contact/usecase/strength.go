package usecase

import (
	"fmt"
	"math"
	"time"

	contactdomain "rolodex-backend/internal/contact/domain"
	"rolodex-backend/internal/contact/repository"
)

// StrengthRecomputer recalculates relationship strength from recorded
// interactions. RecomputeAll covers the owner's whole person set so recency
// decay reaches persons the current sync never touched.
type StrengthRecomputer interface {
	Recompute(ownerUserID, personID string) error
	RecomputeAll(ownerUserID string) error
}

type strengthRecomputer struct {
	persons      repository.PersonRepository
	interactions repository.InteractionRepository
	now          func() time.Time
}

// NewStrengthRecomputer creates a new strength recomputer instance
func NewStrengthRecomputer(persons repository.PersonRepository, interactions repository.InteractionRepository) StrengthRecomputer {
	return &strengthRecomputer{
		persons:      persons,
		interactions: interactions,
		now:          time.Now,
	}
}

const recomputePageSize = 200

func (s *strengthRecomputer) RecomputeAll(ownerUserID string) error {
	// Collect the ids before writing anything: Recompute bumps updated_at,
	// which the listing sorts on, and paging over a shifting order would
	// skip rows.
	var ids []string
	for offset := 0; ; offset += recomputePageSize {
		persons, err := s.persons.ListByOwner(ownerUserID, "", recomputePageSize, offset)
		if err != nil {
			return err
		}
		for _, person := range persons {
			ids = append(ids, person.ID)
		}
		if len(persons) < recomputePageSize {
			break
		}
	}

	var firstErr error
	for _, id := range ids {
		// One stale person must not block the rest of the set.
		if err := s.Recompute(ownerUserID, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *strengthRecomputer) Recompute(ownerUserID, personID string) error {
	person, err := s.persons.FindByID(personID)
	if err != nil {
		return err
	}
	if person == nil {
		return fmt.Errorf("person %s not found", personID)
	}

	interactions, err := s.interactions.ListByOwnerAndPerson(ownerUserID, personID)
	if err != nil {
		return err
	}

	person.Strength = scoreInteractions(interactions, s.now())
	return s.persons.Update(person)
}

// scoreInteractions blends recency and volume into a 0..100 score. Recency
// decays with a 90 day half-life from the most recent interaction; volume
// saturates at 20 interactions so busy threads stop inflating the score.
func scoreInteractions(interactions []*contactdomain.Interaction, now time.Time) float64 {
	if len(interactions) == 0 {
		return 0
	}

	latest := interactions[0].OccurredAt
	for _, interaction := range interactions[1:] {
		if interaction.OccurredAt.After(latest) {
			latest = interaction.OccurredAt
		}
	}

	days := now.Sub(latest).Hours() / 24
	if days < 0 {
		days = 0
	}
	recency := math.Pow(0.5, days/90)

	volume := float64(len(interactions)) / 20
	if volume > 1 {
		volume = 1
	}

	return math.Round((0.6*recency+0.4*volume)*1000) / 10
}
