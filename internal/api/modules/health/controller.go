package health

import (
	"github.com/ethanbaker/api/pkg/api_types"
	"github.com/gin-gonic/gin"
)

// getStatus reports that the API is up
func getStatus(c *gin.Context) {
	c.JSON(api_types.NewSuccessResponse("Integrations API is healthy", nil).AsGinResponse())
}
