package api

import (
	"net/http"
	"time"

	"github.com/ethanbaker/integrations/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	health_module "github.com/ethanbaker/integrations/internal/api/modules/health"
	integrations_module "github.com/ethanbaker/integrations/internal/api/modules/integrations"
)

// NewEngine builds the gin engine with middleware and every module's routes.
// The integrations service must be initialized before requests are served.
func NewEngine(cfg *utils.Config, logger *zap.Logger) *gin.Engine {
	// Add app level settings/routes
	engine := gin.New()
	engine.Use(utils.GinRecovery(logger), utils.GinLogger(logger))
	engine.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not found")
	})

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.GetList("CORS_ALLOWED_ORIGINS", "*"),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-KEY", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)
	integrations_module.RegisterRoutes(baseGroup, cfg)

	return engine
}

// Start initializes every module from cfg and serves the API until it fails
func Start(cfg *utils.Config) {
	logger := utils.NewLogger(cfg)
	defer logger.Sync()

	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")

	if cfg.Get("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := integrations_module.Init(cfg, logger); err != nil {
		logger.Fatal("failed to initialize integrations module", zap.Error(err))
	}
	defer integrations_module.Stop()

	engine := NewEngine(cfg, logger)

	// Then after performing initial setup, start the server
	logger.Info("starting API server", zap.String("port", port))
	if err := engine.Run(":" + port); err != nil {
		logger.Error("failed to start server", zap.Error(err))
	}
}
