package repository

import (
	contactdomain "rolodex-backend/internal/contact/domain"
)

// InteractionRepository defines data access methods for interactions.
// BatchUpsert must make re-inserting an existing
// (owner_user_id, person_id, natural_key) a silent no-op.
type InteractionRepository interface {
	BatchUpsert(interactions []*contactdomain.Interaction) error
	ListByOwnerAndPerson(ownerUserID, personID string) ([]*contactdomain.Interaction, error)
	CountByOwner(ownerUserID string) (int64, error)
}
