package repository

import (
	contactdomain "rolodex-backend/internal/contact/domain"
)

// PersonRepository defines data access methods for persons
type PersonRepository interface {
	Create(person *contactdomain.Person) error
	Update(person *contactdomain.Person) error
	FindByID(id string) (*contactdomain.Person, error)
	FindByOwnerAndEmail(ownerUserID, email string) (*contactdomain.Person, error)
	ListByOwner(ownerUserID string, query string, limit, offset int) ([]*contactdomain.Person, error)
	CountByOwner(ownerUserID string) (int64, error)
}
