package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ChatRequestsTotal counts chat requests by outcome.
	ChatRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptoresearch",
		Subsystem: "chat",
		Name:      "requests_total",
		Help:      "Total number of chat requests handled, labeled by result.",
	}, []string{"result"})

	// ChatRequestDuration is end-to-end chat handling time, including the
	// provider round trip.
	ChatRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cryptoresearch",
		Subsystem: "chat",
		Name:      "request_duration_seconds",
		Help:      "End-to-end time to answer a chat request.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	})

	// LLMRequestsTotal counts completion API calls by provider and outcome.
	LLMRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptoresearch",
		Subsystem: "llm",
		Name:      "requests_total",
		Help:      "Total number of completion API calls, labeled by provider and result.",
	}, []string{"provider", "result"})

	// MarketAPIRequestsTotal counts upstream market-data calls by endpoint
	// and outcome.
	MarketAPIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptoresearch",
		Subsystem: "market",
		Name:      "api_requests_total",
		Help:      "Total number of market-data API calls, labeled by endpoint and result.",
	}, []string{"endpoint", "result"})

	// CacheHitsTotal counts market cache hits.
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cryptoresearch",
		Subsystem: "market",
		Name:      "cache_hits_total",
		Help:      "Total number of market cache hits.",
	})

	// CacheMissesTotal counts market cache misses.
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cryptoresearch",
		Subsystem: "market",
		Name:      "cache_misses_total",
		Help:      "Total number of market cache misses.",
	})

	// WSConnectedClients is the current number of live feed subscribers.
	WSConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cryptoresearch",
		Subsystem: "live",
		Name:      "ws_connected_clients",
		Help:      "Current number of websocket clients subscribed to the live market feed.",
	})

	// EthRPCRequestsTotal counts on-chain status RPC calls by outcome.
	EthRPCRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptoresearch",
		Subsystem: "onchain",
		Name:      "rpc_requests_total",
		Help:      "Total number of Ethereum RPC status calls, labeled by result.",
	}, []string{"result"})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ChatRequestsTotal,
			ChatRequestDuration,
			LLMRequestsTotal,
			MarketAPIRequestsTotal,
			CacheHitsTotal,
			CacheMissesTotal,
			WSConnectedClients,
			EthRPCRequestsTotal,
		)
	})
}
