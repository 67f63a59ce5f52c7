package api

import (
	authdelivery "rolodex-backend/internal/auth/delivery"
	authusecase "rolodex-backend/internal/auth/usecase"
	contactdelivery "rolodex-backend/internal/contact/delivery"
	integrationdelivery "rolodex-backend/internal/integration/delivery"
	"rolodex-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase        authusecase.AuthUsecase
	authHandler        *authdelivery.AuthHandler
	personHandler      *contactdelivery.PersonHandler
	integrationHandler *integrationdelivery.IntegrationHandler
	config             *config.Config
}

func NewHandler(
	authUc authusecase.AuthUsecase,
	authHandler *authdelivery.AuthHandler,
	personHandler *contactdelivery.PersonHandler,
	integrationHandler *integrationdelivery.IntegrationHandler,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authUsecase:        authUc,
		authHandler:        authHandler,
		personHandler:      personHandler,
		integrationHandler: integrationHandler,
		config:             cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.authHandler, h.personHandler, h.integrationHandler)

	return r.Run(addr)
}
