package main

import (
	"os"

	"github.com/joho/godotenv"

	"kvibe/internal/app"
	"kvibe/internal/config"
	"kvibe/internal/logging"
)

func main() {
	// A missing .env is fine; production supplies real environment variables.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
