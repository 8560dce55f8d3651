package api

import (
	"github.com/RishiKendai/plagiarism-control/internal/config"
	"github.com/RishiKendai/plagiarism-control/internal/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, handler *Handler, tokens TokenParser) *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = 64 << 20

	// Create rate limiter
	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	// Middleware
	router.Use(metrics.GinMiddleware())
	router.Use(CORSMiddleware(cfg.CORSOrigins))
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	api := router.Group("/api")
	api.GET("/", handler.Root)

	// Auth routes (no auth, rate limited per client IP)
	authGroup := api.Group("/auth")
	authGroup.Use(RateLimitMiddleware(rateLimiter))
	{
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
	}

	// Protected routes (with auth and rate limiting)
	protected := api.Group("")
	protected.Use(JWTAuthMiddleware(tokens))
	protected.Use(RateLimitMiddleware(rateLimiter))
	{
		protected.POST("/upload", handler.Upload)
		protected.POST("/upload/bulk", handler.BulkUpload)
		protected.GET("/files", handler.ListFiles)
		protected.DELETE("/files/:id", handler.DeleteFile)
		protected.POST("/analyze", handler.Analyze)
		protected.GET("/analyze/status", handler.AnalysisStatus)
		protected.GET("/results/latest", handler.LatestResults)
		protected.POST("/compare", handler.Compare)
	}

	return router
}
