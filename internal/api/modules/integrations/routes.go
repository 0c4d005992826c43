package integrations_module

import (
	"github.com/ethanbaker/api/pkg/api_key"
	"github.com/ethanbaker/integrations/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Register routes for the integrations module
func RegisterRoutes(g *gin.RouterGroup, cfg *utils.Config) {
	// Create base groups for integration routes
	group := g.Group("/integrations")
	user := g.Group("/user")

	// Require the API key when one is configured
	if apiKey := cfg.Get("API_KEY"); apiKey != "" {
		group.Use(api_key.APIKeyHeaderHandler(makeApiKeyValidator(apiKey)))
		user.Use(api_key.APIKeyHeaderHandler(makeApiKeyValidator(apiKey)))
	}
	group.Use(UserHandler(cfg.GetWithDefault("DEFAULT_USER_ID", "default")))
	user.Use(UserHandler(cfg.GetWithDefault("DEFAULT_USER_ID", "default")))

	// Catalog routes
	group.GET("", ListDefinitions)   // List every integration definition
	group.POST("", CreateDefinition) // Register a new integration definition

	// User instance routes
	group.GET("/:id", GetIntegration)           // Get the user's connected instance
	group.POST("/:id", ConnectIntegration)      // Connect with options and field mappings
	group.DELETE("/:id", DisconnectIntegration) // Disconnect and remove the instance

	// Per user listing
	user.GET("/integrations", ListUserIntegrations) // List every integration the user has connected
}
