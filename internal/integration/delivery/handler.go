package delivery

import (
	"net/http"

	authdelivery "rolodex-backend/internal/auth/delivery"
	integrationdomain "rolodex-backend/internal/integration/domain"
	integrationdto "rolodex-backend/internal/integration/dto"
	"rolodex-backend/internal/integration/repository"
	syncdomain "rolodex-backend/internal/sync/domain"
	"rolodex-backend/internal/sync/scheduler"
	"rolodex-backend/pkg/crypto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IntegrationHandler struct {
	integrationRepo repository.IntegrationRepository
	publisher       *scheduler.Publisher
	encryptionKey   string
	mockMode        bool
	logger          *zap.Logger
}

func NewIntegrationHandler(integrationRepo repository.IntegrationRepository, publisher *scheduler.Publisher, encryptionKey string, mockMode bool, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		integrationRepo: integrationRepo,
		publisher:       publisher,
		encryptionKey:   encryptionKey,
		mockMode:        mockMode,
		logger:          logger.Named("integrations"),
	}
}

// CreateIntegration stores a new grant and enqueues its initial sync.
func (h *IntegrationHandler) CreateIntegration(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req integrationdto.CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	integration := &integrationdomain.Integration{
		UserID:       user.ID,
		Provider:     req.Provider,
		EmailAddress: req.EmailAddress,
	}

	switch req.Provider {
	case integrationdomain.ProviderGoogle:
		if req.RefreshToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required for google"})
			return
		}
		integration.AccessToken = req.AccessToken
		integration.RefreshToken = req.RefreshToken

	case integrationdomain.ProviderIMAP:
		if req.ImapServer == "" || req.ImapPort == 0 || req.ImapPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "imap_server, imap_port and imap_password are required for imap"})
			return
		}
		encrypted, err := crypto.Encrypt(req.ImapPassword, h.encryptionKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
			return
		}
		integration.ImapServer = req.ImapServer
		integration.ImapPort = req.ImapPort
		integration.ImapPassword = encrypted
	}

	if err := h.integrationRepo.Create(integration); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.enqueueSync(c, integration); err != nil {
		// The integration exists; the user can trigger the sync manually.
		h.logger.Error("failed to enqueue initial sync",
			zap.String("grantId", integration.ID),
			zap.Error(err))
	}

	c.JSON(http.StatusCreated, integration)
}

func (h *IntegrationHandler) ListIntegrations(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	integrations, err := h.integrationRepo.ListByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"integrations": integrations})
}

func (h *IntegrationHandler) GetIntegration(c *gin.Context) {
	integration, ok := h.ownedIntegration(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, integration)
}

// TriggerSync enqueues a sync job for the integration.
func (h *IntegrationHandler) TriggerSync(c *gin.Context) {
	integration, ok := h.ownedIntegration(c)
	if !ok {
		return
	}

	if err := h.enqueueSync(c, integration); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "sync enqueued"})
}

func (h *IntegrationHandler) ownedIntegration(c *gin.Context) (*integrationdomain.Integration, bool) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}

	integration, err := h.integrationRepo.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if integration == nil || integration.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
		return nil, false
	}
	return integration, true
}

func (h *IntegrationHandler) enqueueSync(c *gin.Context, integration *integrationdomain.Integration) error {
	return h.publisher.Publish(c.Request.Context(), &syncdomain.SyncJob{
		GrantID:  integration.ID,
		UserID:   integration.UserID,
		MockMode: h.mockMode,
	})
}
