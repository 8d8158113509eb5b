package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Network returns the Ethereum network status when an RPC is configured
func (h *Handlers) Network(c *gin.Context) {
	if h.monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "On-chain status not configured",
			"success": false,
		})
		return
	}

	status, err := h.monitor.Status()
	if err != nil {
		log.Errorf("Failed to fetch network status: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to fetch network status",
			"success": false,
		})
		return
	}
	h.dataResponse(c, status)
}
