package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

// Config holds all configuration for the crypto research service
type Config struct {
	// Server configuration
	Port   string
	AppEnv string

	// LLM configuration
	LLMProvider       string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIMaxTokens   int
	OpenAITemperature float64
	GeminiAPIKey      string
	GeminiModel       string

	// Market data configuration
	CoinGeckoAPIURL   string
	APITimeout        time.Duration
	MarketDataTimeout time.Duration

	// Chat configuration
	MaxHistoryMessages int

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	CacheTTL   time.Duration

	// Live feed configuration
	MarketPollInterval time.Duration

	// Rate limiting
	RateLimitPerMinute int

	// Optional Ethereum RPC for network status
	EthRPCURL string

	// CORS
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Server defaults
		Port:   getEnv("PORT", "8000"),
		AppEnv: getEnv("APP_ENV", "production"),

		// LLM defaults
		LLMProvider:       getEnv("LLM_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
		OpenAIMaxTokens:   getIntEnv("OPENAI_MAX_TOKENS", 1500),
		OpenAITemperature: getFloatEnv("OPENAI_TEMPERATURE", 0.7),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		// Market data defaults
		CoinGeckoAPIURL:   getEnv("COINGECKO_API_URL", "https://api.coingecko.com/api/v3"),
		APITimeout:        getDurationEnv("API_TIMEOUT", 10*time.Second),
		MarketDataTimeout: getDurationEnv("MARKET_DATA_TIMEOUT", 5*time.Second),

		// Chat defaults
		MaxHistoryMessages: getIntEnv("MAX_HISTORY_MESSAGES", 10),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "crypto_research"),
		CacheTTL:   getDurationEnv("CACHE_TTL", 60*time.Second),

		// Live feed defaults
		MarketPollInterval: getDurationEnv("MARKET_POLL_INTERVAL", 30*time.Second),

		// Rate limiting defaults
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),

		// Optional integrations
		EthRPCURL: getEnv("ETH_RPC_URL", ""),

		// CORS defaults
		AllowedOrigins: getStringSliceEnv("ALLOWED_ORIGINS", "*"),
	}

	return config
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getStringSliceEnv gets a comma-separated environment variable as a string slice
func getStringSliceEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
