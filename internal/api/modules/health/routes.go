package health

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the health check routes
func RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/health", getStatus)
	g.HEAD("/health", getStatus)
}
