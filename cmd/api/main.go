package main

import (
	"context"
	"os"

	"github.com/hubtc/portal/internal/pkg/logger"
	"github.com/hubtc/portal/internal/server"
)

// @title HubTC Portal Chat API
// @version 1.0
// @description Conversations, messages, reactions, read receipts and typing signals of the HubTC staff portal
// @termsOfService http://swagger.io/terms/

// @contact.name HubTC Portal Team
// @contact.email portal@hubtc.travel

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization, as "Bearer <token>"

func main() {
	srv, err := server.NewServer(context.Background())
	if err != nil {
		// details are logged by the setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// blocks until shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
