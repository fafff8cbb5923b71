package http

import (
	"github.com/gin-gonic/gin"

	"github.com/roomscout/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// Stored room photos
	router.Static(UploadsRoute, handler.config.UploadsDir)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/analyze", handler.AnalyzeImage)

		products := v1.Group("/products")
		{
			products.POST("/search", handler.SearchProducts)
			products.POST("/search/:tier", handler.SearchTier)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handler.SaveSession)
			sessions.GET("", handler.ListSessions)
			sessions.GET("/:id", handler.GetSession)
		}
	}

	return router
}
