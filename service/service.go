package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"crypto-research-service/coingecko"
	"crypto-research-service/config"
	"crypto-research-service/database"
	"crypto-research-service/gemini"
	"crypto-research-service/llm"
	"crypto-research-service/metrics"
	"crypto-research-service/models"
	"crypto-research-service/openai"
	"crypto-research-service/stubllm"
)

const cacheCleanInterval = 10 * time.Minute

// Sentinel errors mapped to user-facing messages by the HTTP layer
var (
	ErrEmptyMessage     = errors.New("no message provided")
	ErrAPIKeyMissing    = errors.New("api key not configured")
	ErrBadTimeframe     = errors.New("invalid timeframe")
	ErrNoPriceData      = errors.New("no price data available")
	ErrStatsUnavailable = errors.New("request stats unavailable")
)

// Service orchestrates chat completions, market data and request logging
type Service struct {
	config   *config.Config
	llm      llm.Client
	market   *coingecko.CachedMarketService
	db       *database.Database
	stopChan chan bool
}

// NewService wires the configured completion provider to the market data
// and persistence layers. db may be nil when MySQL is not configured.
func NewService(cfg *config.Config, market *coingecko.CachedMarketService, db *database.Database) *Service {
	var client llm.Client
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.ProviderStub:
		client = stubllm.NewClient()
	default:
		client = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIMaxTokens, cfg.OpenAITemperature)
	}
	log.Infof("Chat provider=%s model=%s", client.SourceName(), client.Model())

	return &Service{
		config:   cfg,
		llm:      client,
		market:   market,
		db:       db,
		stopChan: make(chan bool),
	}
}

// Start creates the backing tables and starts the cache cleaner
func (s *Service) Start() {
	log.Info("Starting crypto research service...")

	if s.db != nil {
		if err := s.db.InitSchema(); err != nil {
			log.Errorf("Failed to create request_log table: %v", err)
		}
	}

	// Market cache is optional, requests fall through to the API without it
	if err := s.market.CreateCacheTable(); err != nil {
		log.Warnf("Failed to create market_cache table: %v", err)
	}

	go s.cleanCacheLoop()
}

// Stop stops the background cache cleaner
func (s *Service) Stop() {
	log.Info("Stopping crypto research service...")
	close(s.stopChan)
}

func (s *Service) cleanCacheLoop() {
	ticker := time.NewTicker(cacheCleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := s.market.CleanExpiredCache()
			if err != nil {
				log.Warnf("Failed to clean market cache: %v", err)
			} else if removed > 0 {
				log.Infof("Cleaned %d expired market cache entries", removed)
			}
		case <-s.stopChan:
			return
		}
	}
}

// Market exposes the market data layer to the HTTP handlers
func (s *Service) Market() *coingecko.CachedMarketService {
	return s.market
}

// Model returns the active completion model name
func (s *Service) Model() string {
	return s.llm.Model()
}

// Chat runs one conversation turn: greeting shortcut, optional market
// enrichment, then the configured completion provider.
func (s *Service) Chat(req *models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()
	requestID := uuid.New().String()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		metrics.ChatRequestsTotal.WithLabelValues("empty").Inc()
		return nil, ErrEmptyMessage
	}

	// Greetings are answered instantly without touching any upstream
	if IsGreeting(message) {
		metrics.ChatRequestsTotal.WithLabelValues("greeting").Inc()
		s.logRequest(requestID, "chat", s.llm.Model(), true, start)
		return s.respond(GreetingResponse(), requestID), nil
	}

	if err := s.checkAPIKey(); err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	enriched := message
	if NeedsMarketData(message) {
		enriched += s.fetchMarketContext()
	}

	messages := buildMessages(req.History, enriched, s.config.MaxHistoryMessages)

	answer, err := s.llm.Complete(messages)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(s.config.LLMProvider, "error").Inc()
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		s.logRequest(requestID, "chat", s.llm.Model(), false, start)
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(s.config.LLMProvider, "success").Inc()
	metrics.ChatRequestsTotal.WithLabelValues("success").Inc()
	metrics.ChatRequestDuration.Observe(time.Since(start).Seconds())
	s.logRequest(requestID, "chat", s.llm.Model(), true, start)

	return s.respond(answer, requestID), nil
}

func (s *Service) respond(answer, requestID string) *models.ChatResponse {
	return &models.ChatResponse{
		Response:  answer,
		Success:   true,
		Model:     s.llm.Model(),
		RequestID: requestID,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func (s *Service) checkAPIKey() error {
	switch s.config.LLMProvider {
	case config.ProviderGemini:
		if s.config.GeminiAPIKey == "" {
			return ErrAPIKeyMissing
		}
	case config.ProviderStub:
	default:
		if s.config.OpenAIAPIKey == "" {
			return ErrAPIKeyMissing
		}
	}
	return nil
}

// fetchMarketContext fetches the global snapshot within the market data
// budget. On timeout the fetch keeps running so the cache still warms up
// for the next request.
func (s *Service) fetchMarketContext() string {
	type result struct {
		global *models.GlobalMarket
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		g, err := s.market.GetGlobal()
		ch <- result{g, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			log.Warnf("Market enrichment unavailable: %v", r.err)
			return ""
		}
		return marketContext(r.global)
	case <-time.After(s.config.MarketDataTimeout):
		log.Warnf("Market enrichment timed out after %v", s.config.MarketDataTimeout)
		return ""
	}
}

// Stats aggregates the request log
func (s *Service) Stats() (*models.RequestStats, error) {
	if s.db == nil {
		return nil, ErrStatsUnavailable
	}
	return s.db.GetStats()
}

func (s *Service) logRequest(requestID, endpoint, model string, success bool, start time.Time) {
	if s.db == nil {
		return
	}
	entry := database.RequestLogEntry{
		RequestID:  requestID,
		Endpoint:   endpoint,
		Model:      model,
		Success:    success,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err := s.db.LogRequest(entry); err != nil {
		log.Warnf("Failed to log request: %v", err)
	}
}
