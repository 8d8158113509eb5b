package coingecko

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	mockDB *sql.DB
	mock   sqlmock.Sqlmock
)

func setUp() {
	mockDB, mock, _ = sqlmock.New()
}

func tearDown() {
	mockDB.Close()
}

var it = beforeeach.Create(setUp, tearDown)

const globalUpstreamFixture = `{
	"data": {
		"active_cryptocurrencies": 10500,
		"markets": 800,
		"total_market_cap": {"usd": 2450000000000},
		"total_volume": {"usd": 98000000000},
		"market_cap_percentage": {"btc": 52.3},
		"market_cap_change_percentage_24h_usd": 1.2
	}
}`

// cachedGlobalFixture is the shape saveToCache stores, not the raw API
// envelope.
const cachedGlobalFixture = `{
	"total_market_cap_usd": 2450000000000,
	"total_volume_usd": 98000000000,
	"market_cap_change_percentage_24h": 1.2,
	"btc_dominance": 52.3,
	"active_cryptocurrencies": 10500,
	"markets": 800
}`

func newUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewClient(server.URL, 2*time.Second)
}

func TestGetGlobalCacheHit(t *testing.T) {
	it(func() {
		_, client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("upstream must not be called on a cache hit")
		})
		service := NewCachedMarketService(client, mockDB, time.Minute)

		mock.ExpectQuery("FROM market_cache").
			WithArgs("global").
			WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(cachedGlobalFixture))

		global, err := service.GetGlobal()
		if err != nil {
			t.Fatalf("GetGlobal: unexpected error: %v", err)
		}
		if global.TotalMarketCapUSD != 2450000000000 {
			t.Errorf("GetGlobal: expected market cap 2450000000000, got %v", global.TotalMarketCapUSD)
		}
		if global.BTCDominance != 52.3 {
			t.Errorf("GetGlobal: expected dominance 52.3, got %v", global.BTCDominance)
		}
	})
}

func TestGetGlobalCacheMiss(t *testing.T) {
	it(func() {
		upstreamCalled := false
		_, client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			upstreamCalled = true
			w.Write([]byte(globalUpstreamFixture))
		})
		service := NewCachedMarketService(client, mockDB, time.Minute)

		mock.ExpectQuery("FROM market_cache").
			WithArgs("global").
			WillReturnRows(sqlmock.NewRows([]string{"payload"}))
		mock.ExpectExec("INSERT INTO market_cache \\(cache_key, payload, expires_at\\)").
			WithArgs("global", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		global, err := service.GetGlobal()
		if err != nil {
			t.Fatalf("GetGlobal: unexpected error: %v", err)
		}
		if !upstreamCalled {
			t.Error("GetGlobal: expected upstream fetch on cache miss")
		}
		if global.ActiveCryptos != 10500 {
			t.Errorf("GetGlobal: expected 10500 active cryptos, got %d", global.ActiveCryptos)
		}
	})
}

func TestGetMarketsCacheMiss(t *testing.T) {
	it(func() {
		_, client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/coins/markets" {
				t.Errorf("expected /coins/markets, got %s", r.URL.Path)
			}
			w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":64250.12}]`))
		})
		service := NewCachedMarketService(client, mockDB, time.Minute)

		mock.ExpectQuery("FROM market_cache").
			WithArgs("markets:10").
			WillReturnRows(sqlmock.NewRows([]string{"payload"}))
		mock.ExpectExec("INSERT INTO market_cache \\(cache_key, payload, expires_at\\)").
			WithArgs("markets:10", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		coins, err := service.GetMarkets(10)
		if err != nil {
			t.Fatalf("GetMarkets: unexpected error: %v", err)
		}
		if len(coins) != 1 || coins[0].ID != "bitcoin" {
			t.Errorf("GetMarkets: unexpected result: %+v", coins)
		}
	})
}

func TestGetCoinCorruptCacheFallsThrough(t *testing.T) {
	it(func() {
		upstreamCalled := false
		_, client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			upstreamCalled = true
			w.Write([]byte(`{"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_data":{"current_price":{"usd":64250.12}}}`))
		})
		service := NewCachedMarketService(client, mockDB, time.Minute)

		mock.ExpectQuery("FROM market_cache").
			WithArgs("coin:bitcoin").
			WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow("not-json"))
		mock.ExpectExec("INSERT INTO market_cache \\(cache_key, payload, expires_at\\)").
			WithArgs("coin:bitcoin", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		detail, err := service.GetCoin("bitcoin")
		if err != nil {
			t.Fatalf("GetCoin: unexpected error: %v", err)
		}
		if !upstreamCalled {
			t.Error("GetCoin: expected upstream fetch when the cached payload is unreadable")
		}
		if detail.CurrentPrice != 64250.12 {
			t.Errorf("GetCoin: expected price 64250.12, got %v", detail.CurrentPrice)
		}
	})
}

func TestGetMarketChartCacheHit(t *testing.T) {
	it(func() {
		_, client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("upstream must not be called on a cache hit")
		})
		service := NewCachedMarketService(client, mockDB, time.Minute)

		mock.ExpectQuery("FROM market_cache").
			WithArgs("chart:bitcoin:7").
			WillReturnRows(sqlmock.NewRows([]string{"payload"}).
				AddRow(`{"prices":[[1000,100],[2000,110]],"volumes":[[1000,5],[2000,6]]}`))

		prices, volumes, err := service.GetMarketChart("bitcoin", 7)
		if err != nil {
			t.Fatalf("GetMarketChart: unexpected error: %v", err)
		}
		if len(prices) != 2 || prices[1][1] != 110 {
			t.Errorf("GetMarketChart: unexpected prices: %v", prices)
		}
		if len(volumes) != 2 || volumes[1][1] != 6 {
			t.Errorf("GetMarketChart: unexpected volumes: %v", volumes)
		}
	})
}

func TestGetGlobalWithoutDatabase(t *testing.T) {
	_, client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(globalUpstreamFixture))
	})
	service := NewCachedMarketService(client, nil, time.Minute)

	global, err := service.GetGlobal()
	if err != nil {
		t.Fatalf("GetGlobal: unexpected error: %v", err)
	}
	if global.TotalVolumeUSD != 98000000000 {
		t.Errorf("GetGlobal: expected volume 98000000000, got %v", global.TotalVolumeUSD)
	}
}

func TestCreateCacheTable(t *testing.T) {
	it(func() {
		service := NewCachedMarketService(NewClient("", time.Second), mockDB, time.Minute)

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS market_cache").
			WillReturnResult(sqlmock.NewResult(0, 0))

		if err := service.CreateCacheTable(); err != nil {
			t.Errorf("CreateCacheTable: unexpected error: %v", err)
		}
	})
}

func TestCleanExpiredCache(t *testing.T) {
	it(func() {
		service := NewCachedMarketService(NewClient("", time.Second), mockDB, time.Minute)

		mock.ExpectExec("DELETE FROM market_cache WHERE expires_at < NOW\\(\\)").
			WillReturnResult(sqlmock.NewResult(0, 3))

		removed, err := service.CleanExpiredCache()
		if err != nil {
			t.Fatalf("CleanExpiredCache: unexpected error: %v", err)
		}
		if removed != 3 {
			t.Errorf("CleanExpiredCache: expected 3 removed rows, got %d", removed)
		}
	})
}
