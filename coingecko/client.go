package coingecko

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	"crypto-research-service/metrics"
	"crypto-research-service/models"
)

const (
	// DefaultBaseURL is the public CoinGecko API endpoint
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	// UserAgent identifies this service to the API
	UserAgent = "crypto-research-service/2.0"
	// Free-tier quota: keep at least 1.2s between requests
	minRequestInterval = 1200 * time.Millisecond
	// How long to wait before the single retry after a 429
	rateLimitBackoff = 5 * time.Second
)

// ErrCoinNotFound is returned when the API reports an unknown coin id.
var ErrCoinNotFound = errors.New("cryptocurrency not found")

// ErrRateLimited is returned when the API rejects the retried request too.
var ErrRateLimited = errors.New("market data API rate limit reached")

// Client handles CoinGecko API interactions with rate limiting
type Client struct {
	baseURL       string
	httpClient    *http.Client
	lastRequest   time.Time
	rateLimitLock sync.Mutex

	// overridable in tests
	minInterval  time.Duration
	retryBackoff time.Duration
}

// NewClient creates a new CoinGecko client with rate limiting
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		minInterval:  minRequestInterval,
		retryBackoff: rateLimitBackoff,
	}
}

// enforceRateLimit ensures we don't exceed the free-tier request rate
func (c *Client) enforceRateLimit() {
	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.minInterval {
		time.Sleep(c.minInterval - elapsed)
	}
	c.lastRequest = time.Now()
}

// get performs a rate-limited GET and decodes the JSON body into out.
// A 429 is retried once after a backoff; a second 429 surfaces as
// ErrRateLimited. A 404 surfaces as ErrCoinNotFound.
func (c *Client) get(endpoint, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	for attempt := 0; ; attempt++ {
		c.enforceRateLimit()

		req, err := http.NewRequest("GET", reqURL, nil)
		if err != nil {
			metrics.MarketAPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.MarketAPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("failed to execute request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt == 0 {
				log.Warnf("market API rate limited on %s, retrying in %v", endpoint, c.retryBackoff)
				time.Sleep(c.retryBackoff)
				continue
			}
			metrics.MarketAPIRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			return ErrRateLimited
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			metrics.MarketAPIRequestsTotal.WithLabelValues(endpoint, "not_found").Inc()
			return ErrCoinNotFound
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			metrics.MarketAPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("market API returned status %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			metrics.MarketAPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("failed to decode response: %w", err)
		}

		metrics.MarketAPIRequestsTotal.WithLabelValues(endpoint, "success").Inc()
		return nil
	}
}

// globalResponse is the response envelope of the /global endpoint
type globalResponse struct {
	Data struct {
		ActiveCryptocurrencies int                `json:"active_cryptocurrencies"`
		Markets                int                `json:"markets"`
		TotalMarketCap         map[string]float64 `json:"total_market_cap"`
		TotalVolume            map[string]float64 `json:"total_volume"`
		MarketCapPercentage    map[string]float64 `json:"market_cap_percentage"`
		MarketCapChange24hUSD  float64            `json:"market_cap_change_percentage_24h_usd"`
	} `json:"data"`
}

// GetGlobal fetches the market-wide snapshot
func (c *Client) GetGlobal() (*models.GlobalMarket, error) {
	var gr globalResponse
	if err := c.get("global", "/global", nil, &gr); err != nil {
		return nil, err
	}

	return &models.GlobalMarket{
		TotalMarketCapUSD:  gr.Data.TotalMarketCap["usd"],
		TotalVolumeUSD:     gr.Data.TotalVolume["usd"],
		MarketCapChange24h: gr.Data.MarketCapChange24hUSD,
		BTCDominance:       gr.Data.MarketCapPercentage["btc"],
		ActiveCryptos:      gr.Data.ActiveCryptocurrencies,
		Markets:            gr.Data.Markets,
	}, nil
}

// GetMarkets fetches the top coins by market cap, priced in USD
func (c *Client) GetMarkets(perPage int) ([]models.MarketCoin, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", "1")
	params.Set("sparkline", "false")

	var coins []models.MarketCoin
	if err := c.get("markets", "/coins/markets", params, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// coinDetailResponse is the subset of /coins/{id} the service uses
type coinDetailResponse struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Name        string            `json:"name"`
	Description map[string]string `json:"description"`
	Links       struct {
		Homepage []string `json:"homepage"`
	} `json:"links"`
	Image struct {
		Large string `json:"large"`
	} `json:"image"`
	MarketCapRank int `json:"market_cap_rank"`
	MarketData    struct {
		CurrentPrice      map[string]float64 `json:"current_price"`
		MarketCap         map[string]float64 `json:"market_cap"`
		TotalVolume       map[string]float64 `json:"total_volume"`
		High24h           map[string]float64 `json:"high_24h"`
		Low24h            map[string]float64 `json:"low_24h"`
		PriceChangePct24h float64            `json:"price_change_percentage_24h"`
		PriceChangePct7d  float64            `json:"price_change_percentage_7d"`
		PriceChangePct30d float64            `json:"price_change_percentage_30d"`
		CirculatingSupply float64            `json:"circulating_supply"`
		MaxSupply         float64            `json:"max_supply"`
		ATH               map[string]float64 `json:"ath"`
		ATHDate           map[string]string  `json:"ath_date"`
		ATL               map[string]float64 `json:"atl"`
	} `json:"market_data"`
	CommunityData struct {
		TwitterFollowers  int `json:"twitter_followers"`
		RedditSubscribers int `json:"reddit_subscribers"`
	} `json:"community_data"`
	DeveloperData struct {
		Stars             int `json:"stars"`
		Forks             int `json:"forks"`
		CommitCount4Weeks int `json:"commit_count_4_weeks"`
	} `json:"developer_data"`
	LastUpdated string `json:"last_updated"`
}

// GetCoin fetches the full profile for one coin id
func (c *Client) GetCoin(id string) (*models.CoinDetail, error) {
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("market_data", "true")
	params.Set("community_data", "true")
	params.Set("developer_data", "true")

	var cr coinDetailResponse
	if err := c.get("coin", "/coins/"+url.PathEscape(id), params, &cr); err != nil {
		return nil, err
	}

	return c.parseCoinDetail(&cr), nil
}

// parseCoinDetail flattens the API response into the USD-denominated model
func (c *Client) parseCoinDetail(cr *coinDetailResponse) *models.CoinDetail {
	detail := &models.CoinDetail{
		ID:                cr.ID,
		Symbol:            cr.Symbol,
		Name:              cr.Name,
		Description:       cr.Description["en"],
		Image:             cr.Image.Large,
		MarketCapRank:     cr.MarketCapRank,
		CurrentPrice:      cr.MarketData.CurrentPrice["usd"],
		MarketCap:         cr.MarketData.MarketCap["usd"],
		TotalVolume:       cr.MarketData.TotalVolume["usd"],
		High24h:           cr.MarketData.High24h["usd"],
		Low24h:            cr.MarketData.Low24h["usd"],
		PriceChangePct24h: cr.MarketData.PriceChangePct24h,
		PriceChangePct7d:  cr.MarketData.PriceChangePct7d,
		PriceChangePct30d: cr.MarketData.PriceChangePct30d,
		CirculatingSupply: cr.MarketData.CirculatingSupply,
		MaxSupply:         cr.MarketData.MaxSupply,
		ATH:               cr.MarketData.ATH["usd"],
		ATHDate:           cr.MarketData.ATHDate["usd"],
		ATL:               cr.MarketData.ATL["usd"],
		TwitterFollowers:  cr.CommunityData.TwitterFollowers,
		RedditSubscribers: cr.CommunityData.RedditSubscribers,
		GithubStars:       cr.DeveloperData.Stars,
		CommitCount4Weeks: cr.DeveloperData.CommitCount4Weeks,
		LastUpdated:       cr.LastUpdated,
	}

	for _, h := range cr.Links.Homepage {
		if h != "" {
			detail.Homepage = h
			break
		}
	}

	return detail
}

// marketChartResponse is the raw /coins/{id}/market_chart payload
type marketChartResponse struct {
	Prices       []models.ChartPoint `json:"prices"`
	TotalVolumes []models.ChartPoint `json:"total_volumes"`
}

// GetMarketChart fetches the daily price history for a coin over the
// given number of days.
func (c *Client) GetMarketChart(id string, days int) ([]models.ChartPoint, []models.ChartPoint, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", strconv.Itoa(days))
	params.Set("interval", "daily")

	var mc marketChartResponse
	if err := c.get("market_chart", "/coins/"+url.PathEscape(id)+"/market_chart", params, &mc); err != nil {
		return nil, nil, err
	}
	return mc.Prices, mc.TotalVolumes, nil
}

// GetSimplePrice fetches spot quotes for a set of coin ids
func (c *Client) GetSimplePrice(ids []string) (map[string]models.SimplePrice, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	params.Set("include_24hr_vol", "true")
	params.Set("include_24hr_change", "true")

	var quotes map[string]models.SimplePrice
	if err := c.get("simple_price", "/simple/price", params, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}
