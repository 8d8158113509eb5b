package handlers

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"crypto-research-service/coingecko"
	"crypto-research-service/service"
)

const topMarketCoins = 10

// MarketData returns the top coins by market cap
func (h *Handlers) MarketData(c *gin.Context) {
	coins, err := h.service.Market().GetMarkets(topMarketCoins)
	if err != nil {
		h.marketError(c, "Failed to fetch market data", err)
		return
	}
	h.dataResponse(c, coins)
}

// Global returns the market-wide snapshot
func (h *Handlers) Global(c *gin.Context) {
	global, err := h.service.Market().GetGlobal()
	if err != nil {
		h.marketError(c, "Failed to fetch market data", err)
		return
	}
	h.dataResponse(c, global)
}

// CryptoDetail returns the full profile of one coin
func (h *Handlers) CryptoDetail(c *gin.Context) {
	detail, err := h.service.Market().GetCoin(c.Param("id"))
	if err != nil {
		h.marketError(c, "Failed to fetch crypto data", err)
		return
	}
	h.dataResponse(c, detail)
}

// Chart returns the price history for a coin with derived metrics.
// The timeframe query parameter defaults to the full range.
func (h *Handlers) Chart(c *gin.Context) {
	chart, err := h.service.GetChart(c.Param("id"), c.Query("timeframe"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadTimeframe):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid timeframe",
				"success": false,
			})
		case errors.Is(err, service.ErrNoPriceData):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "No price data available",
				"success": false,
			})
		default:
			h.marketError(c, "Failed to fetch chart data", err)
		}
		return
	}
	h.dataResponse(c, chart)
}

// marketError maps upstream market data errors onto user-facing responses
func (h *Handlers) marketError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, coingecko.ErrCoinNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Cryptocurrency not found",
			"success": false,
		})
	case errors.Is(err, coingecko.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "Market data API rate limit reached. Please try again shortly.",
			"success": false,
		})
	default:
		log.Errorf("%s: %v", message, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   message,
			"success": false,
		})
	}
}
