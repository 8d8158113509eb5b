package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"crypto-research-service/coingecko"
	"crypto-research-service/config"
	"crypto-research-service/live"
	"crypto-research-service/models"
	"crypto-research-service/service"
)

func testConfig() *config.Config {
	return &config.Config{
		LLMProvider:        config.ProviderStub,
		MaxHistoryMessages: 10,
		MarketDataTimeout:  time.Second,
	}
}

// newTestHandlers wires a handler set against an httptest market API
func newTestHandlers(t *testing.T, cfg *config.Config, upstream http.HandlerFunc) *Handlers {
	t.Helper()
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	client := coingecko.NewClient(server.URL, 2*time.Second)
	market := coingecko.NewCachedMarketService(client, nil, time.Minute)
	svc := service.NewService(cfg, market, nil)
	return NewHandlers(cfg, svc, nil, live.NewHub())
}

func postChat(t *testing.T, h *Handlers, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v3/chat", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Chat(c)
	return w
}

func TestChat_EmptyMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	body, _ := json.Marshal(models.ChatRequest{Message: ""})
	w := postChat(t, h, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No message provided")
}

func TestChat_InvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	w := postChat(t, h, []byte("not json"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request format")
}

func TestChat_MissingAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		LLMProvider:        config.ProviderOpenAI,
		OpenAIAPIKey:       "",
		MaxHistoryMessages: 10,
		MarketDataTimeout:  time.Second,
	}
	h := newTestHandlers(t, cfg, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	body, _ := json.Marshal(models.ChatRequest{Message: "where is bitcoin heading"})
	w := postChat(t, h, body)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "API key not configured")
}

func TestChat_Greeting(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	body, _ := json.Marshal(models.ChatRequest{Message: "hello"})
	w := postChat(t, h, body)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Response)
}

func TestChat_StubProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"total_market_cap":{"usd":2000000000000},"total_volume":{"usd":90000000000},"market_cap_percentage":{"btc":51.0}}}`))
	})

	body, _ := json.Marshal(models.ChatRequest{
		Message: "What is the bitcoin price?",
		History: []models.ChatMessage{{Role: "user", Content: "hi there, friend"}},
	})
	w := postChat(t, h, body)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "stub-1", resp.Model)
	assert.NotEmpty(t, resp.RequestID)
	assert.NotEmpty(t, resp.Response)
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/health", nil)

	h.HealthCheck(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Contains(t, w.Body.String(), "crypto-research-service")
	assert.Contains(t, w.Body.String(), "stub-1")
}

func TestCoins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v3/coins", nil)

	h.Coins(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bitcoin")
	assert.Contains(t, w.Body.String(), "5Y")
}

func TestMarketData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":64250.12,"market_cap":1260000000000}]`))
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v3/market-data", nil)

	h.MarketData(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success": true`)
	assert.Contains(t, w.Body.String(), "64250.12")
}

func TestCryptoDetail_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v3/crypto/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	h.CryptoDetail(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Cryptocurrency not found")
}

func TestChart_BadTimeframe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		t.Error("bad timeframe must not reach the market API")
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v3/chart/bitcoin?timeframe=2W", nil)
	c.Params = gin.Params{{Key: "id", Value: "bitcoin"}}

	h.Chart(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid timeframe")
}

func TestChart_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prices":[[1000,50000],[2000,51000]],"total_volumes":[[1000,9],[2000,11]]}`))
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v3/chart/bitcoin?timeframe=1D", nil)
	c.Params = gin.Params{{Key: "id", Value: "bitcoin"}}

	h.Chart(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_price": 51000`)
	assert.Contains(t, w.Body.String(), `"timeframe": "1D"`)
}

func TestNetwork_NotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v3/network", nil)

	h.Network(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "On-chain status not configured")
}

func TestStats_NoDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v3/stats", nil)

	h.Stats(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "stats not available")
}
