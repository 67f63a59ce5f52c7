package usecase

import (
	"fmt"

	contactdomain "rolodex-backend/internal/contact/domain"
	"rolodex-backend/internal/contact/repository"

	"go.uber.org/zap"
)

// PersistResult summarizes one persistence pass.
type PersistResult struct {
	Created      int
	Updated      int
	Interactions []*contactdomain.Interaction
}

// Recorder persists resolved candidates and their interactions. A failure on
// one contact is logged and skipped so the rest of the batch still lands.
type Recorder struct {
	persons      repository.PersonRepository
	interactions repository.InteractionRepository
	logger       *zap.Logger
}

// NewRecorder creates a new recorder instance
func NewRecorder(persons repository.PersonRepository, interactions repository.InteractionRepository, logger *zap.Logger) *Recorder {
	return &Recorder{
		persons:      persons,
		interactions: interactions,
		logger:       logger.Named("recorder"),
	}
}

// Persist upserts every candidate as a person, then records the batch's
// interactions against the resolved person ids. Interactions whose contact
// failed to persist are dropped rather than failing the batch; re-recorded
// interactions are absorbed by the natural-key constraint.
func (r *Recorder) Persist(ownerUserID, integrationID string, ex *Extraction) (*PersistResult, error) {
	result := &PersistResult{}
	personIDs := make(map[string]string, len(ex.Candidates))

	for email, candidate := range ex.Candidates {
		person, err := r.resolvePerson(ownerUserID, email, candidate, result)
		if err != nil {
			r.logger.Error("failed to persist contact",
				zap.String("email", email),
				zap.Error(err))
			continue
		}
		personIDs[email] = person.ID
	}

	for _, candidate := range ex.Interactions {
		personID, ok := personIDs[candidate.Email]
		if !ok {
			continue
		}
		result.Interactions = append(result.Interactions, &contactdomain.Interaction{
			OwnerUserID:   ownerUserID,
			PersonID:      personID,
			IntegrationID: integrationID,
			Type:          candidate.Type,
			Subject:       candidate.Subject,
			OccurredAt:    candidate.OccurredAt,
			NaturalKey:    candidate.NaturalKey,
		})
	}

	if err := r.interactions.BatchUpsert(result.Interactions); err != nil {
		return result, fmt.Errorf("failed to record interactions: %w", err)
	}
	return result, nil
}

func (r *Recorder) resolvePerson(ownerUserID, email string, candidate *contactdomain.CandidateContact, result *PersistResult) (*contactdomain.Person, error) {
	person, err := r.persons.FindByOwnerAndEmail(ownerUserID, email)
	if err != nil {
		return nil, err
	}

	if person == nil {
		person = &contactdomain.Person{
			OwnerUserID: ownerUserID,
			Email:       email,
			Name:        candidate.FullName(),
		}
		if err := r.persons.Create(person); err != nil {
			return nil, err
		}
		result.Created++
		return person, nil
	}

	// An existing name is user-visible data, never overwrite it from sync.
	if person.Name == "" && candidate.FullName() != "" {
		person.Name = candidate.FullName()
		if err := r.persons.Update(person); err != nil {
			return nil, err
		}
		result.Updated++
	}
	return person, nil
}
