package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crypto-research-service/coingecko"
	"crypto-research-service/config"
	"crypto-research-service/database"
	"crypto-research-service/handlers"
	"crypto-research-service/live"
	"crypto-research-service/metrics"
	"crypto-research-service/middleware"
	"crypto-research-service/onchain"
	"crypto-research-service/service"
	"crypto-research-service/version"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Info(".env file not found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	info := version.Get("crypto-research-service")
	log.Infof("Starting crypto research service %s (%s)", info.Version, info.GitSHA)

	if cfg.LLMProvider == config.ProviderOpenAI && cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, chat requests will fail until it is configured")
	}

	metrics.Register()

	// Database is optional, the service runs without persistence
	var db *database.Database
	var sqlDB *sql.DB
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Warnf("Failed to connect to MySQL, continuing without cache and stats: %v", err)
		db = nil
	} else {
		defer db.Close()
		sqlDB = db.GetDB()
	}

	// Market data layer with the MySQL response cache
	market := coingecko.NewCachedMarketService(
		coingecko.NewClient(cfg.CoinGeckoAPIURL, cfg.APITimeout), sqlDB, cfg.CacheTTL)

	// Research service
	researchService := service.NewService(cfg, market, db)
	researchService.Start()
	defer researchService.Stop()

	// Optional on-chain monitor
	var monitor *onchain.Monitor
	if cfg.EthRPCURL != "" {
		monitor, err = onchain.NewMonitor(cfg.EthRPCURL)
		if err != nil {
			log.Warnf("Failed to connect to Ethereum RPC, network status disabled: %v", err)
			monitor = nil
		} else {
			defer monitor.Close()
		}
	}

	// Live market feed
	hub := live.NewHub()
	go hub.Start()
	defer hub.Stop()

	poller := live.NewPoller(market, hub, cfg.MarketPollInterval)
	go poller.Start()
	defer poller.Stop()

	// Initialize handlers
	h := handlers.NewHandlers(cfg, researchService, monitor, hub)

	// Setup router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Errorf("Panic recovered: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"success": false,
		})
	}))
	router.LoadHTMLGlob("templates/*")

	// CORS middleware
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	router.GET("/", h.Index)
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/market", h.MarketFeed)

	// API routes
	api := router.Group("/api/v3")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, time.Minute))
	{
		api.GET("/health", h.HealthCheck)
		api.POST("/chat", h.Chat)
		api.GET("/market-data", h.MarketData)
		api.GET("/global", h.Global)
		api.GET("/crypto/:id", h.CryptoDetail)
		api.GET("/chart/:id", h.Chart)
		api.GET("/coins", h.Coins)
		api.GET("/network", h.Network)
		api.GET("/stats", h.Stats)
		api.GET("/version", h.Version)
	}

	// Aliases for the original route layout
	legacy := router.Group("/api")
	legacy.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, time.Minute))
	{
		legacy.POST("/chat", h.Chat)
		legacy.GET("/market-data", h.MarketData)
		legacy.GET("/crypto/:id", h.CryptoDetail)
		legacy.GET("/chart/:id", h.Chart)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Endpoint not found",
			"success": false,
		})
	})

	// Validate server port
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		log.Fatalf("Invalid PORT configuration: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Crypto research service listening on port %s", cfg.Port)
		log.Infof("Rate limit: %d requests per minute", cfg.RateLimitPerMinute)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

// corsMiddleware sets the CORS headers and short-circuits preflights
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	origins := strings.Join(allowedOrigins, ", ")

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origins)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
