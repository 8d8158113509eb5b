package handlers

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"crypto-research-service/models"
	"crypto-research-service/service"
)

// Chat handles one research question
func (h *Handlers) Chat(c *gin.Context) {
	var req models.ChatRequest

	if err := c.BindJSON(&req); err != nil {
		log.Errorf("Failed to bind chat request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"success": false,
		})
		return
	}

	resp, err := h.service.Chat(&req)
	if err != nil {
		h.chatError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// chatError maps service errors onto the user-facing chat responses
func (h *Handlers) chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "No message provided",
			"success": false,
		})
	case errors.Is(err, service.ErrAPIKeyMissing):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "API key not configured. Please set OPENAI_API_KEY environment variable.",
			"success": false,
		})
	default:
		log.Errorf("Chat request failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to get response from language model",
			"success": false,
		})
	}
}
