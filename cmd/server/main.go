package main

import (
	"fmt"
	"log"

	"github.com/lshcatalog/viewer/config"
	httpDelivery "github.com/lshcatalog/viewer/internal/delivery/http"
	"github.com/lshcatalog/viewer/internal/domain"
	"github.com/lshcatalog/viewer/internal/infrastructure/catalogapi"
	"github.com/lshcatalog/viewer/internal/infrastructure/session"
	"github.com/lshcatalog/viewer/internal/pkg/logger"
	"github.com/lshcatalog/viewer/internal/usecase"
)

const mainModule = "main"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(logger.Options{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.File,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info(mainModule, "starting LSH catalog viewer", map[string]interface{}{
		"version":     "1.0.0",
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"catalog":     cfg.Catalog.BaseURL,
	})

	// Initialize infrastructure dependencies
	catalogClient := catalogapi.NewClient(catalogapi.ClientConfig{
		BaseURL:           cfg.Catalog.BaseURL,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
	}, appLogger)

	sessionStore := session.NewStore(cfg.Session.TTL, cfg.Session.CleanupInterval)

	// Config validation guarantees the method parses
	method, _ := domain.ParseMethod(cfg.Similarity.DefaultMethod)

	// Initialize usecase layer
	sessionService := usecase.NewSessionService(
		sessionStore,
		catalogClient,
		appLogger,
		usecase.SessionConfig{
			Pagination: usecase.PaginationConfig{
				PerPage:    cfg.Pagination.PerPage,
				MaxPerPage: cfg.Pagination.MaxPerPage,
			},
			DefaultMethod: method,
			DefaultK:      cfg.Similarity.DefaultK,
			MaxK:          cfg.Similarity.MaxK,
		},
	)

	appLogger.Info(mainModule, "viewer defaults", map[string]interface{}{
		"per_page":    cfg.Pagination.PerPage,
		"method":      string(method),
		"k":           cfg.Similarity.DefaultK,
		"session_ttl": cfg.Session.TTL.String(),
	})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(sessionService, appLogger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	appLogger.Info(mainModule, "server listening", map[string]interface{}{"addr": addr})

	if err := router.Run(addr); err != nil {
		appLogger.Error(mainModule, "server stopped", map[string]interface{}{"error": err})
		log.Fatalf("Failed to start server: %v", err)
	}
}
