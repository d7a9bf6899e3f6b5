package main

import (
	"os"

	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/logger"
	"github.com/EvilEvan/PvtClass-tracker/internal/server"
)

// @title Tutoring Center API
// @version 1.0
// @description API for managing students, tutoring sessions and classrooms of a private tutoring center

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// Setup functions log their own details
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until shutdown
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
