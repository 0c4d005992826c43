package integrations_module

import (
	"errors"
	"net/http"

	"github.com/ethanbaker/integrations/pkg/integration"
	"github.com/ethanbaker/integrations/pkg/sdk"
	"github.com/ethanbaker/integrations/pkg/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListDefinitions handles GET requests to list the integration catalog
func ListDefinitions(c *gin.Context) {
	defs, err := integrationService.manager.Definitions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	if defs == nil {
		defs = []*integration.Definition{}
	}
	c.JSON(http.StatusOK, defs)
}

// CreateDefinition handles POST requests to register a new integration definition
func CreateDefinition(c *gin.Context) {
	// Parse request body
	var req integration.Definition
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, malformedBody())
		return
	}

	def, err := integrationService.manager.CreateDefinition(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, def)
}

// GetIntegration handles GET requests for the user's instance of an integration
func GetIntegration(c *gin.Context) {
	instance, err := integrationService.manager.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, instance)
}

// ListUserIntegrations handles GET requests listing the user's connected integrations
func ListUserIntegrations(c *gin.Context) {
	instances, err := integrationService.manager.List(c.Request.Context(), GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	if instances == nil {
		instances = []*integration.UserIntegration{}
	}
	c.JSON(http.StatusOK, instances)
}

// ConnectIntegration handles POST requests connecting the user to an integration
func ConnectIntegration(c *gin.Context) {
	name := c.Param("id")

	// Parse request body
	var req integration.UserIntegration
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, malformedBody())
		return
	}

	// The path names the integration; a body name may only repeat it
	if req.Name == "" {
		req.Name = name
	} else if req.Name != name {
		writeError(c, integration.ValidationErrors{{Key: "name", Message: integration.MsgNameMismatch}})
		return
	}

	connected, err := integrationService.manager.Connect(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, connected)
}

// DisconnectIntegration handles DELETE requests removing the user's instance
func DisconnectIntegration(c *gin.Context) {
	if err := integrationService.manager.Disconnect(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sdk.MessageResponse{Message: sdk.Success})
}

/** ---- HELPERS ---- */

func malformedBody() integration.ValidationErrors {
	return integration.ValidationErrors{{Key: "body", Message: integration.MsgMalformedBody}}
}

// writeError maps an error onto its HTTP status and body. Anything that is not
// a validation, not found or conflict error is logged and reported as internal.
func writeError(c *gin.Context, err error) {
	if verrs, ok := integration.AsValidationErrors(err); ok {
		c.JSON(http.StatusUnprocessableEntity, sdk.NewValidationErrorResponse(verrs))
		return
	}

	switch {
	case errors.Is(err, integration.ErrNotFound):
		c.JSON(http.StatusNotFound, sdk.ErrorResponse{Error: sdk.ItemNotFound})
	case errors.Is(err, integration.ErrConflict):
		c.JSON(http.StatusConflict, sdk.ErrorResponse{Error: sdk.ItemExists})
	default:
		utils.LoggerFromGin(c).Error("integration request failed",
			zap.String("user_id", GetUserID(c)),
			zap.String("integration", c.Param("id")),
			zap.Error(err),
		)
		c.Error(err)
		c.JSON(http.StatusInternalServerError, sdk.ErrorResponse{Error: sdk.InternalError})
	}
}
