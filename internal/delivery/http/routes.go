package http

import (
	"github.com/gin-gonic/gin"
	"github.com/lshcatalog/viewer/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(handler.logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(SessionMiddleware(handler.sessions, handler.logger, cfg.Session.CookieName, cfg.IsProduction()))
	{
		v1.DELETE("/session", handler.EndSession)

		gallery := v1.Group("/gallery")
		{
			gallery.GET("", handler.GetGallery)
			gallery.POST("/page", handler.LoadPage)
			gallery.POST("/next", handler.NextPage)
			gallery.POST("/previous", handler.PreviousPage)
			gallery.PUT("/filter", handler.SetFilter)
		}

		products := v1.Group("/products")
		{
			products.GET("/:id", handler.GetProduct)
			products.POST("/:id/carousel/advance", handler.AdvanceImage)
			products.POST("/:id/carousel/retreat", handler.RetreatImage)
			products.PUT("/:id/similarity", handler.SelectSimilarity)
			products.POST("/:id/similar", handler.FindSimilar)
		}
	}

	return router
}
