package main

import (
	"fmt"

	"github.com/contriboard/contriboard/internal/api"
	"github.com/contriboard/contriboard/internal/config"
	"github.com/contriboard/contriboard/internal/storage"
	"github.com/contriboard/contriboard/pkg/logger"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the document store
	store := storage.NewDocumentStore(cfg.SummaryPath)

	// Initialize handler
	handler := api.NewHandler(store, cfg.ExcludedUsers)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Infof("Starting API server on %s (summary: %s)", addr, cfg.SummaryPath)

	if err := router.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
