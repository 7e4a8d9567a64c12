package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"invoicehub/cmd"
	"invoicehub/internal/config"
	"invoicehub/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		// Use default logger config; commands that need the configuration report the failure
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		// Initialize logger with configuration
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	// Log application startup
	log := logger.WithComponent("main")
	log.Info().Msg("Starting Invoicehub")

	// Execute CLI commands
	cmd.Execute(cfg)

	// Log application shutdown
	log.Info().Msg("Invoicehub shutdown")
	os.Exit(0)
}
