package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// BotStatus reports whether the update loop is active
type BotStatus interface {
	IsRunning() bool
}

// DownloadActivity reports in-flight downloads
type DownloadActivity interface {
	ActiveCount() int64
}

// HealthHandler handles health check requests
type HealthHandler struct {
	bot       BotStatus
	downloads DownloadActivity
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(bot BotStatus, downloads DownloadActivity) *HealthHandler {
	return &HealthHandler{
		bot:       bot,
		downloads: downloads,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Bot     struct {
		Running bool `json:"running"`
	} `json:"bot"`
	Downloads struct {
		Active int64 `json:"active"`
	} `json:"downloads"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Bot.Running = h.bot.IsRunning()
	response.Downloads.Active = h.downloads.ActiveCount()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.bot.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "telegram update loop not running",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
