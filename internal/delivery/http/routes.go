package http

import (
	"github.com/gin-gonic/gin"
	"github.com/safescan/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	var limiter *RateLimiter
	if cfg.RateLimit.PerIP > 0 {
		limiter = NewRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Burst)
	}

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	api.Use(RateLimitMiddleware(limiter))
	{
		// Endpoints kept for the original browser client
		api.POST("/analyze", handler.Analyze)
		api.GET("/product", handler.GetProductLegacy)

		// API v1 routes
		v1 := api.Group("/v1")
		{
			v1.GET("/profiles", handler.ListProfiles)
			v1.GET("/products/:barcode", handler.ScanProduct)
			v1.POST("/ingredients/lookup", handler.LookupIngredients)
			v1.POST("/safety/check", handler.CheckSafety)
		}
	}

	// Unknown paths and methods answer in JSON like every other route
	router.NoRoute(handler.NotFound)
	router.NoMethod(handler.MethodNotAllowed)

	return router
}
