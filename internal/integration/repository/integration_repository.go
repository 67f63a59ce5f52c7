package repository

import (
	"errors"
	"time"

	integrationdomain "rolodex-backend/internal/integration/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// integrationRepository implements IntegrationRepository interface
type integrationRepository struct {
	db *gorm.DB
}

// NewIntegrationRepository creates a new instance of integrationRepository
func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

func (r *integrationRepository) Create(integration *integrationdomain.Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.New().String()
	}
	if integration.Status == "" {
		integration.Status = integrationdomain.StatusActive
	}
	integration.CreatedAt = time.Now()
	integration.UpdatedAt = time.Now()
	return r.db.Create(integration).Error
}

func (r *integrationRepository) Update(integration *integrationdomain.Integration) error {
	integration.UpdatedAt = time.Now()
	return r.db.Save(integration).Error
}

func (r *integrationRepository) FindByID(id string) (*integrationdomain.Integration, error) {
	var integration integrationdomain.Integration
	err := r.db.Where("id = ?", id).First(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &integration, nil
}

func (r *integrationRepository) ListByUser(userID string) ([]*integrationdomain.Integration, error) {
	var integrations []*integrationdomain.Integration
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	return integrations, nil
}
