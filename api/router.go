package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/likegate/api/handlers"
	"github.com/yourusername/likegate/api/middleware"
	"github.com/yourusername/likegate/internal/domain"
)

// SetupRouter sets up the operator HTTP router
func SetupRouter(
	bot handlers.BotStatus,
	downloads handlers.DownloadActivity,
	repo domain.DeliveryRepository,
	logger *zap.Logger,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(bot, downloads)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		deliveryHandler := handlers.NewDeliveryHandler(repo, logger)
		deliveries := v1.Group("/deliveries")
		{
			deliveries.GET("", deliveryHandler.ListDeliveries)
			deliveries.GET("/stats", deliveryHandler.GetStats)
			deliveries.GET("/:id", deliveryHandler.GetDelivery)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
