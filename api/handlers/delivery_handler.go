package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/likegate/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// DeliveryHandler exposes the delivery ledger read-only
type DeliveryHandler struct {
	repo   domain.DeliveryRepository
	logger *zap.Logger
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(repo domain.DeliveryRepository, logger *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListDeliveries handles GET /api/v1/deliveries
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	status := domain.DeliveryStatus(c.Query("status"))
	switch status {
	case "", domain.DeliveryProcessing, domain.DeliveryCompleted, domain.DeliveryFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	deliveries, err := h.repo.FindRecent(status, limit)
	if err != nil {
		h.logger.Error("Failed to list deliveries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if deliveries == nil {
		deliveries = []*domain.Delivery{}
	}

	c.JSON(http.StatusOK, gin.H{
		"deliveries": deliveries,
		"count":      len(deliveries),
	})
}

// GetDelivery handles GET /api/v1/deliveries/:id
func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	id := c.Param("id")

	delivery, err := h.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrDeliveryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "delivery not found"})
			return
		}
		h.logger.Error("Failed to get delivery", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, delivery)
}

// GetStats handles GET /api/v1/deliveries/stats
func (h *DeliveryHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
