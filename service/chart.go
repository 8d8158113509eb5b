package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"crypto-research-service/models"
)

// supportedCoins backs the chart coin selector on the front end. Chart
// requests themselves accept any CoinGecko id, not just these.
var supportedCoins = []models.CoinOption{
	{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"},
	{ID: "ethereum", Name: "Ethereum", Symbol: "ETH"},
	{ID: "solana", Name: "Solana", Symbol: "SOL"},
	{ID: "binancecoin", Name: "BNB", Symbol: "BNB"},
	{ID: "cardano", Name: "Cardano", Symbol: "ADA"},
	{ID: "ripple", Name: "XRP", Symbol: "XRP"},
	{ID: "avalanche-2", Name: "Avalanche", Symbol: "AVAX"},
	{ID: "matic-network", Name: "Polygon", Symbol: "MATIC"},
	{ID: "dogecoin", Name: "Dogecoin", Symbol: "DOGE"},
	{ID: "polkadot", Name: "Polkadot", Symbol: "DOT"},
}

var timeframeOptions = []models.TimeframeOption{
	{Value: "1D", Label: "1 Day", Days: 1},
	{Value: "1W", Label: "1 Week", Days: 7},
	{Value: "1M", Label: "1 Month", Days: 30},
	{Value: "3M", Label: "3 Months", Days: 90},
	{Value: "1Y", Label: "1 Year", Days: 365},
	{Value: "5Y", Label: "5 Years", Days: 1825},
}

// SupportedCoins returns the coin selector entries
func SupportedCoins() []models.CoinOption {
	return supportedCoins
}

// TimeframeOptions returns the selectable chart ranges
func TimeframeOptions() []models.TimeframeOption {
	return timeframeOptions
}

func timeframeDays(timeframe string) (int, bool) {
	for _, opt := range timeframeOptions {
		if opt.Value == timeframe {
			return opt.Days, true
		}
	}
	return 0, false
}

func coinOption(id string) *models.CoinOption {
	for i := range supportedCoins {
		if supportedCoins[i].ID == id {
			return &supportedCoins[i]
		}
	}
	return nil
}

// GetChart fetches the price history for a coin and derives the
// headline metrics from the series. An empty timeframe means the full
// five year range.
func (s *Service) GetChart(coinID, timeframe string) (*models.ChartData, error) {
	if timeframe == "" {
		timeframe = "5Y"
	}
	timeframe = strings.ToUpper(strings.TrimSpace(timeframe))
	days, ok := timeframeDays(timeframe)
	if !ok {
		return nil, ErrBadTimeframe
	}

	prices, volumes, err := s.market.GetMarketChart(coinID, days)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, ErrNoPriceData
	}

	chart := &models.ChartData{
		Coin:         coinID,
		Timeframe:    timeframe,
		Days:         days,
		Prices:       prices,
		Volumes:      volumes,
		CurrentPrice: prices[len(prices)-1][1],
	}
	if opt := coinOption(coinID); opt != nil {
		chart.Symbol = opt.Symbol
		chart.Name = opt.Name
	}

	// Change is measured against the previous point of the series, so
	// its meaning follows the chart interval.
	if len(prices) > 1 {
		last := decimal.NewFromFloat(prices[len(prices)-1][1])
		prev := decimal.NewFromFloat(prices[len(prices)-2][1])
		if !prev.IsZero() {
			pct, _ := last.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Float64()
			chart.PriceChangePct = pct
		}
	}
	if len(volumes) > 0 {
		chart.Volume24h = volumes[len(volumes)-1][1]
	}
	return chart, nil
}
