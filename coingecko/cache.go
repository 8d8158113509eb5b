package coingecko

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"

	"crypto-research-service/metrics"
	"crypto-research-service/models"
)

// CachedMarketService wraps the CoinGecko client with database caching.
// A nil db degrades to direct fetches, so the service still serves market
// data when MySQL is unavailable.
type CachedMarketService struct {
	client *Client
	db     *sql.DB
	ttl    time.Duration
}

// NewCachedMarketService creates a new cached market data service
func NewCachedMarketService(client *Client, db *sql.DB, ttl time.Duration) *CachedMarketService {
	return &CachedMarketService{
		client: client,
		db:     db,
		ttl:    ttl,
	}
}

// Client returns the underlying CoinGecko client for direct access
func (s *CachedMarketService) Client() *Client {
	return s.client
}

// CreateCacheTable creates the market cache table if it doesn't exist
func (s *CachedMarketService) CreateCacheTable() error {
	if s.db == nil {
		return nil
	}
	query := `
		CREATE TABLE IF NOT EXISTS market_cache (
			cache_key VARCHAR(191) PRIMARY KEY,
			payload MEDIUMTEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL,
			INDEX idx_expires (expires_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create market_cache table: %w", err)
	}
	log.Info("market_cache table verified/created")
	return nil
}

// getFromCache fills out from a fresh cache entry and reports whether
// one was found.
func (s *CachedMarketService) getFromCache(key string, out any) bool {
	if s.db == nil {
		return false
	}

	var payload string
	err := s.db.QueryRow(`
		SELECT payload
		FROM market_cache
		WHERE cache_key = ? AND expires_at > NOW()
	`, key).Scan(&payload)

	if err == sql.ErrNoRows {
		metrics.CacheMissesTotal.Inc()
		return false
	}
	if err != nil {
		log.Warnf("failed to query market cache for %s: %v", key, err)
		return false
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		log.Warnf("failed to unmarshal cached payload for %s: %v", key, err)
		return false
	}

	metrics.CacheHitsTotal.Inc()
	return true
}

// saveToCache stores a payload under the key. Failures are logged, never
// surfaced: a cache write must not fail the request.
func (s *CachedMarketService) saveToCache(key string, v any) {
	if s.db == nil {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		log.Warnf("failed to marshal payload for %s: %v", key, err)
		return
	}

	expiresAt := time.Now().Add(s.ttl)

	_, err = s.db.Exec(`
		INSERT INTO market_cache (cache_key, payload, expires_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			payload = VALUES(payload),
			expires_at = VALUES(expires_at),
			created_at = NOW()
	`, key, string(payload), expiresAt)

	if err != nil {
		log.Warnf("failed to cache %s: %v", key, err)
	}
}

// GetGlobal returns the market-wide snapshot, cached
func (s *CachedMarketService) GetGlobal() (*models.GlobalMarket, error) {
	var cached models.GlobalMarket
	if s.getFromCache("global", &cached) {
		return &cached, nil
	}

	global, err := s.client.GetGlobal()
	if err != nil {
		return nil, err
	}

	s.saveToCache("global", global)
	return global, nil
}

// GetMarkets returns the top coins by market cap, cached
func (s *CachedMarketService) GetMarkets(perPage int) ([]models.MarketCoin, error) {
	key := fmt.Sprintf("markets:%d", perPage)

	var cached []models.MarketCoin
	if s.getFromCache(key, &cached) {
		return cached, nil
	}

	coins, err := s.client.GetMarkets(perPage)
	if err != nil {
		return nil, err
	}

	s.saveToCache(key, coins)
	return coins, nil
}

// GetCoin returns the coin profile, cached
func (s *CachedMarketService) GetCoin(id string) (*models.CoinDetail, error) {
	key := "coin:" + id

	var cached models.CoinDetail
	if s.getFromCache(key, &cached) {
		return &cached, nil
	}

	detail, err := s.client.GetCoin(id)
	if err != nil {
		return nil, err
	}

	s.saveToCache(key, detail)
	return detail, nil
}

// chartPayload is the cache representation of one chart fetch
type chartPayload struct {
	Prices  []models.ChartPoint `json:"prices"`
	Volumes []models.ChartPoint `json:"volumes"`
}

// GetMarketChart returns the price history for a coin, cached
func (s *CachedMarketService) GetMarketChart(id string, days int) ([]models.ChartPoint, []models.ChartPoint, error) {
	key := fmt.Sprintf("chart:%s:%d", id, days)

	var cached chartPayload
	if s.getFromCache(key, &cached) {
		return cached.Prices, cached.Volumes, nil
	}

	prices, volumes, err := s.client.GetMarketChart(id, days)
	if err != nil {
		return nil, nil, err
	}

	s.saveToCache(key, chartPayload{Prices: prices, Volumes: volumes})
	return prices, volumes, nil
}

// CleanExpiredCache removes expired cache entries
func (s *CachedMarketService) CleanExpiredCache() (int64, error) {
	if s.db == nil {
		return 0, nil
	}

	result, err := s.db.Exec("DELETE FROM market_cache WHERE expires_at < NOW()")
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired cache: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}
