package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(RequestLogger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/leaderboard", handler.GetLeaderboard)
		v1.GET("/totals", handler.GetTotals)
		v1.GET("/trend", handler.GetTrend)
		v1.GET("/years", handler.GetYears)
		v1.GET("/summary", handler.GetSummary)
	}

	return router
}
