package repository

import (
	"errors"
	"time"

	contactdomain "rolodex-backend/internal/contact/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uniqueViolationCode = "23505"

// interactionRepository implements InteractionRepository interface
type interactionRepository struct {
	db *gorm.DB

	// supportsConflictIgnore selects the preferred path: a single batch
	// insert with ignore-on-conflict semantics. Stores without that
	// capability fall back to row-by-row inserts that treat a structured
	// uniqueness violation as success.
	supportsConflictIgnore bool
}

// NewInteractionRepository creates a new instance of interactionRepository
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{
		db:                     db,
		supportsConflictIgnore: db.Dialector.Name() == "postgres",
	}
}

func (r *interactionRepository) BatchUpsert(interactions []*contactdomain.Interaction) error {
	if len(interactions) == 0 {
		return nil
	}

	now := time.Now()
	for _, interaction := range interactions {
		if interaction.ID == "" {
			interaction.ID = uuid.New().String()
		}
		interaction.CreatedAt = now
	}

	if r.supportsConflictIgnore {
		return r.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "owner_user_id"},
				{Name: "person_id"},
				{Name: "natural_key"},
			},
			DoNothing: true,
		}).CreateInBatches(interactions, 100).Error
	}

	for _, interaction := range interactions {
		if err := r.db.Create(interaction).Error; err != nil {
			if isUniqueViolation(err) {
				continue // already recorded
			}
			return err
		}
	}
	return nil
}

func (r *interactionRepository) ListByOwnerAndPerson(ownerUserID, personID string) ([]*contactdomain.Interaction, error) {
	var interactions []*contactdomain.Interaction
	err := r.db.
		Where("owner_user_id = ? AND person_id = ?", ownerUserID, personID).
		Order("occurred_at DESC").
		Find(&interactions).Error
	if err != nil {
		return nil, err
	}
	return interactions, nil
}

func (r *interactionRepository) CountByOwner(ownerUserID string) (int64, error) {
	var count int64
	err := r.db.Model(&contactdomain.Interaction{}).Where("owner_user_id = ?", ownerUserID).Count(&count).Error
	return count, err
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
