package live

import (
	"time"

	"github.com/apex/log"

	"crypto-research-service/coingecko"
	"crypto-research-service/models"
)

const topCoinsCount = 10

// Poller periodically fetches the top coins and pushes them to the hub
type Poller struct {
	market   *coingecko.CachedMarketService
	hub      *Hub
	interval time.Duration
	stopChan chan bool
}

// NewPoller creates a poller for the market feed
func NewPoller(market *coingecko.CachedMarketService, hub *Hub, interval time.Duration) *Poller {
	return &Poller{
		market:   market,
		hub:      hub,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start runs the poll loop until Stop is called
func (p *Poller) Start() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			if err := p.pushSnapshot(); err != nil {
				log.Warnf("Market feed poll failed: %v", err)
			}
		}
	}
}

// Stop stops the poll loop
func (p *Poller) Stop() {
	close(p.stopChan)
}

// pushSnapshot fetches the top coins and broadcasts them to the feed
func (p *Poller) pushSnapshot() error {
	// No subscribers, spare the API quota
	if p.hub.ClientCount() == 0 {
		return nil
	}

	coins, err := p.market.GetMarkets(topCoinsCount)
	if err != nil {
		return err
	}

	p.hub.Broadcast(models.MarketUpdate{
		Type:      "market_update",
		Coins:     coins,
		UpdatedAt: time.Now().Format(time.RFC3339),
	})
	return nil
}
