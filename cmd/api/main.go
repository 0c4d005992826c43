package main

import (
	"github.com/ethanbaker/integrations/internal/api"
	"github.com/ethanbaker/integrations/pkg/utils"
)

// Start the API server
func main() {
	// Load global config from the env file named by ENV_FILE (default .env)
	cfg := utils.NewConfigFromEnvFile()

	// Start
	api.Start(cfg)
}
