package models

// ChatMessage is a single message in a conversation. Role is
// "user" or "assistant".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the incoming chat request. History is optional
// and is resent by the client with every request; the server keeps no
// conversation state.
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

// ChatResponse represents the assistant's answer
type ChatResponse struct {
	Response  string `json:"response"`
	Success   bool   `json:"success"`
	Model     string `json:"model"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// MarketCoin is one market row for a coin, ordered by market cap
type MarketCoin struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Image             string  `json:"image"`
	CurrentPrice      float64 `json:"current_price"`
	MarketCap         float64 `json:"market_cap"`
	MarketCapRank     int     `json:"market_cap_rank"`
	TotalVolume       float64 `json:"total_volume"`
	High24h           float64 `json:"high_24h"`
	Low24h            float64 `json:"low_24h"`
	PriceChangePct24h float64 `json:"price_change_percentage_24h"`
	LastUpdated       string  `json:"last_updated"`
}

// GlobalMarket is the market-wide snapshot used for prompt enrichment
// and the /global endpoint.
type GlobalMarket struct {
	TotalMarketCapUSD  float64 `json:"total_market_cap_usd"`
	TotalVolumeUSD     float64 `json:"total_volume_usd"`
	MarketCapChange24h float64 `json:"market_cap_change_percentage_24h"`
	BTCDominance       float64 `json:"btc_dominance"`
	ActiveCryptos      int     `json:"active_cryptocurrencies"`
	Markets            int     `json:"markets"`
}

// CoinDetail is the per-coin profile backing /api/v3/crypto/:id. Values
// are in USD.
type CoinDetail struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Homepage          string  `json:"homepage"`
	Image             string  `json:"image"`
	MarketCapRank     int     `json:"market_cap_rank"`
	CurrentPrice      float64 `json:"current_price"`
	MarketCap         float64 `json:"market_cap"`
	TotalVolume       float64 `json:"total_volume"`
	High24h           float64 `json:"high_24h"`
	Low24h            float64 `json:"low_24h"`
	PriceChangePct24h float64 `json:"price_change_percentage_24h"`
	PriceChangePct7d  float64 `json:"price_change_percentage_7d"`
	PriceChangePct30d float64 `json:"price_change_percentage_30d"`
	CirculatingSupply float64 `json:"circulating_supply"`
	MaxSupply         float64 `json:"max_supply"`
	ATH               float64 `json:"ath"`
	ATHDate           string  `json:"ath_date"`
	ATL               float64 `json:"atl"`
	TwitterFollowers  int     `json:"twitter_followers"`
	RedditSubscribers int     `json:"reddit_subscribers"`
	GithubStars       int     `json:"github_stars"`
	CommitCount4Weeks int     `json:"commit_count_4_weeks"`
	LastUpdated       string  `json:"last_updated"`
}

// ChartPoint is a [timestamp_millis, value] pair as returned by the
// market chart API.
type ChartPoint [2]float64

// ChartData is the price history for one coin over one timeframe,
// with metrics derived from the series.
type ChartData struct {
	Coin           string       `json:"coin"`
	Symbol         string       `json:"symbol"`
	Name           string       `json:"name"`
	Timeframe      string       `json:"timeframe"`
	Days           int          `json:"days"`
	Prices         []ChartPoint `json:"prices"`
	Volumes        []ChartPoint `json:"volumes"`
	CurrentPrice   float64      `json:"current_price"`
	PriceChangePct float64      `json:"price_change_percentage"`
	Volume24h      float64      `json:"volume_24h"`
}

// CoinOption is one entry of the chart coin selector
type CoinOption struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// TimeframeOption is one entry of the chart timeframe selector
type TimeframeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Days  int    `json:"days"`
}

// SimplePrice is the per-coin quote from the simple price endpoint
type SimplePrice struct {
	USD          float64 `json:"usd"`
	USDMarketCap float64 `json:"usd_market_cap"`
	USD24hVol    float64 `json:"usd_24h_vol"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// NetworkStatus is the on-chain snapshot for the configured Ethereum RPC
type NetworkStatus struct {
	ChainID      int64   `json:"chain_id"`
	BlockNumber  uint64  `json:"block_number"`
	GasPriceGwei float64 `json:"gas_price_gwei"`
	Timestamp    string  `json:"timestamp"`
}

// MarketUpdate is the payload broadcast over the live feed websocket
type MarketUpdate struct {
	Type      string       `json:"type"`
	Coins     []MarketCoin `json:"coins"`
	UpdatedAt string       `json:"updated_at"`
}

// RequestStats aggregates the request log for /api/v3/stats
type RequestStats struct {
	TotalRequests   int64   `json:"total_requests"`
	SuccessRate     float64 `json:"success_rate"`
	AvgDurationMs   float64 `json:"avg_duration_ms"`
	RequestsLast24h int64   `json:"requests_last_24h"`
}
