package repository

import (
	integrationdomain "rolodex-backend/internal/integration/domain"
)

// IntegrationRepository defines data access methods for integrations
type IntegrationRepository interface {
	Create(integration *integrationdomain.Integration) error
	Update(integration *integrationdomain.Integration) error
	FindByID(id string) (*integrationdomain.Integration, error)
	ListByUser(userID string) ([]*integrationdomain.Integration, error)
}
