package api

import (
	"net/http"

	authdelivery "rolodex-backend/internal/auth/delivery"
	authusecase "rolodex-backend/internal/auth/usecase"
	contactdelivery "rolodex-backend/internal/contact/delivery"
	integrationdelivery "rolodex-backend/internal/integration/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	authUsecase authusecase.AuthUsecase,
	authHandler *authdelivery.AuthHandler,
	personHandler *contactdelivery.PersonHandler,
	integrationHandler *integrationdelivery.IntegrationHandler,
) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", authdelivery.AuthMiddleware(authUsecase), authHandler.Me)
		}

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(authdelivery.AuthMiddleware(authUsecase))
		{
			fcm.POST("/register", authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", authHandler.UnregisterFCMToken)
		}

		// Person routes (protected)
		persons := api.Group("/persons")
		persons.Use(authdelivery.AuthMiddleware(authUsecase))
		{
			persons.GET("", personHandler.ListPersons)
			persons.GET("/:id", personHandler.GetPerson)
			persons.PATCH("/:id/star", personHandler.ToggleStar)
		}

		// Integration routes (protected)
		integrations := api.Group("/integrations")
		integrations.Use(authdelivery.AuthMiddleware(authUsecase))
		{
			integrations.POST("", integrationHandler.CreateIntegration)
			integrations.GET("", integrationHandler.ListIntegrations)
			integrations.GET("/:id", integrationHandler.GetIntegration)
			integrations.POST("/:id/sync", integrationHandler.TriggerSync)
		}
	}
}
