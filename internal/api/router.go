package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fieldops/fieldtrack-backend-go/internal/cache"
	"github.com/fieldops/fieldtrack-backend-go/internal/handler"
	"github.com/fieldops/fieldtrack-backend-go/internal/middleware"
)

// RouterDeps collects everything the router wires together
type RouterDeps struct {
	Logger           *zap.Logger
	Cache            cache.Store
	TrackHandler     *handler.TrackHandler
	AnalyticsHandler *handler.AnalyticsHandler
	APIRateLimit     int
	APIRateWindow    time.Duration
}

// SetupRouter builds the gin engine with middleware and routes
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(corsMiddleware())

	if deps.APIRateLimit > 0 {
		r.Use(middleware.RateLimit(deps.Cache, deps.APIRateLimit, deps.APIRateWindow))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Tracking engine is running",
		})
	})

	v1 := r.Group("/api/v1")
	{
		tracking := v1.Group("/tracking")
		{
			tracking.POST("/points", deps.TrackHandler.Ingest)
			tracking.GET("/points", deps.TrackHandler.List)
			tracking.GET("/points/ungeocoded", deps.TrackHandler.GetUngeocoded)
			tracking.POST("/points/backfill", deps.AnalyticsHandler.Backfill)
			tracking.DELETE("/points/:id", deps.TrackHandler.Delete)
		}

		analytics := v1.Group("/analytics")
		{
			analytics.GET("/users/:id", deps.AnalyticsHandler.GetUserAnalytics)
			analytics.POST("/team", deps.AnalyticsHandler.GetTeamAnalytics)
		}
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
