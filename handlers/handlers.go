package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"crypto-research-service/config"
	"crypto-research-service/live"
	"crypto-research-service/onchain"
	"crypto-research-service/service"
	"crypto-research-service/version"
)

const serviceName = "crypto-research-service"

// Handlers bundles the dependencies of the HTTP layer. monitor is nil
// when no Ethereum RPC is configured.
type Handlers struct {
	config  *config.Config
	service *service.Service
	monitor *onchain.Monitor
	hub     *live.Hub
}

// NewHandlers creates the HTTP handler set
func NewHandlers(cfg *config.Config, svc *service.Service, monitor *onchain.Monitor, hub *live.Hub) *Handlers {
	return &Handlers{
		config:  cfg,
		service: svc,
		monitor: monitor,
		hub:     hub,
	}
}

// Index serves the research bot page
func (h *Handlers) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"model": h.service.Model(),
	})
}

// HealthCheck returns service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"model":     h.service.Model(),
		"provider":  h.config.LLMProvider,
		"version":   version.Get(serviceName).Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Version returns the build information
func (h *Handlers) Version(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Get(serviceName))
}

// Stats returns request log aggregates
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.service.Stats()
	if err != nil {
		if errors.Is(err, service.ErrStatsUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Request stats not available without a database",
				"success": false,
			})
			return
		}
		log.Errorf("Failed to get request stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"success": false,
		})
		return
	}
	h.dataResponse(c, stats)
}

// Coins returns the chart selector options
func (h *Handlers) Coins(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"success":    true,
		"coins":      service.SupportedCoins(),
		"timeframes": service.TimeframeOptions(),
	})
}

// dataResponse wraps a payload in the success envelope
func (h *Handlers) dataResponse(c *gin.Context, data interface{}) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
