package repository

import (
	"errors"
	"time"

	contactdomain "rolodex-backend/internal/contact/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// personRepository implements PersonRepository interface
type personRepository struct {
	db *gorm.DB
}

// NewPersonRepository creates a new instance of personRepository
func NewPersonRepository(db *gorm.DB) PersonRepository {
	return &personRepository{db: db}
}

func (r *personRepository) Create(person *contactdomain.Person) error {
	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	person.Email = contactdomain.NormalizeEmail(person.Email)
	person.CreatedAt = time.Now()
	person.UpdatedAt = time.Now()
	return r.db.Create(person).Error
}

func (r *personRepository) Update(person *contactdomain.Person) error {
	person.UpdatedAt = time.Now()
	return r.db.Save(person).Error
}

func (r *personRepository) FindByID(id string) (*contactdomain.Person, error) {
	var person contactdomain.Person
	err := r.db.Where("id = ?", id).First(&person).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &person, nil
}

func (r *personRepository) FindByOwnerAndEmail(ownerUserID, email string) (*contactdomain.Person, error) {
	var person contactdomain.Person
	err := r.db.Where("owner_user_id = ? AND email = ?", ownerUserID, contactdomain.NormalizeEmail(email)).First(&person).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &person, nil
}

func (r *personRepository) ListByOwner(ownerUserID string, query string, limit, offset int) ([]*contactdomain.Person, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := r.db.Where("owner_user_id = ?", ownerUserID)
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var persons []*contactdomain.Person
	err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&persons).Error
	if err != nil {
		return nil, err
	}
	return persons, nil
}

func (r *personRepository) CountByOwner(ownerUserID string) (int64, error) {
	var count int64
	err := r.db.Model(&contactdomain.Person{}).Where("owner_user_id = ?", ownerUserID).Count(&count).Error
	return count, err
}
