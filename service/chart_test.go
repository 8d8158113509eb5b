package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"crypto-research-service/coingecko"
)

func TestTimeframeDays(t *testing.T) {
	tests := []struct {
		timeframe string
		wantDays  int
		wantOK    bool
	}{
		{timeframe: "1D", wantDays: 1, wantOK: true},
		{timeframe: "1W", wantDays: 7, wantOK: true},
		{timeframe: "1M", wantDays: 30, wantOK: true},
		{timeframe: "3M", wantDays: 90, wantOK: true},
		{timeframe: "1Y", wantDays: 365, wantOK: true},
		{timeframe: "5Y", wantDays: 1825, wantOK: true},
		{timeframe: "2W", wantDays: 0, wantOK: false},
		{timeframe: "", wantDays: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.timeframe, func(t *testing.T) {
			days, ok := timeframeDays(tt.timeframe)
			if days != tt.wantDays || ok != tt.wantOK {
				t.Errorf("timeframeDays(%q) = (%d, %v), want (%d, %v)",
					tt.timeframe, days, ok, tt.wantDays, tt.wantOK)
			}
		})
	}
}

func TestSupportedCoins(t *testing.T) {
	coins := SupportedCoins()
	if len(coins) != 10 {
		t.Fatalf("SupportedCoins() returned %d coins, want 10", len(coins))
	}
	if coins[0].ID != "bitcoin" || coins[0].Symbol != "BTC" {
		t.Errorf("first coin = %+v, want bitcoin/BTC", coins[0])
	}
	for _, c := range coins {
		if c.ID == "" || c.Name == "" || c.Symbol == "" {
			t.Errorf("coin %+v has empty fields", c)
		}
	}
}

func TestTimeframeOptions(t *testing.T) {
	options := TimeframeOptions()
	if len(options) != 6 {
		t.Fatalf("TimeframeOptions() returned %d options, want 6", len(options))
	}
	if options[len(options)-1].Value != "5Y" || options[len(options)-1].Days != 1825 {
		t.Errorf("last option = %+v, want 5Y/1825", options[len(options)-1])
	}
}

func TestGetChart(t *testing.T) {
	svc := newTestService(t, stubConfig(), func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/coins/bitcoin/market_chart") {
			http.NotFound(w, r)
			return
		}
		if days := r.URL.Query().Get("days"); days != "7" {
			t.Errorf("days param = %q, want 7", days)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"prices":[[1000,100],[2000,110],[3000,99]],"total_volumes":[[1000,5],[2000,6],[3000,7]]}`)
	})

	chart, err := svc.GetChart("bitcoin", "1w")
	if err != nil {
		t.Fatalf("GetChart() error = %v", err)
	}
	if chart.Coin != "bitcoin" || chart.Symbol != "BTC" || chart.Name != "Bitcoin" {
		t.Errorf("chart identity = %s/%s/%s", chart.Coin, chart.Symbol, chart.Name)
	}
	if chart.Timeframe != "1W" || chart.Days != 7 {
		t.Errorf("chart range = %s/%d, want 1W/7", chart.Timeframe, chart.Days)
	}
	if len(chart.Prices) != 3 || len(chart.Volumes) != 3 {
		t.Fatalf("chart series lengths = %d/%d, want 3/3", len(chart.Prices), len(chart.Volumes))
	}
	if chart.CurrentPrice != 99 {
		t.Errorf("current price = %v, want 99", chart.CurrentPrice)
	}
	// (99 - 110) / 110 * 100
	if chart.PriceChangePct != -10 {
		t.Errorf("price change = %v, want -10", chart.PriceChangePct)
	}
	if chart.Volume24h != 7 {
		t.Errorf("24h volume = %v, want 7", chart.Volume24h)
	}
}

func TestGetChartDefaultTimeframe(t *testing.T) {
	svc := newTestService(t, stubConfig(), func(w http.ResponseWriter, r *http.Request) {
		if days := r.URL.Query().Get("days"); days != "1825" {
			t.Errorf("days param = %q, want 1825", days)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"prices":[[1000,10]],"total_volumes":[[1000,2]]}`)
	})

	chart, err := svc.GetChart("ethereum", "")
	if err != nil {
		t.Fatalf("GetChart() error = %v", err)
	}
	if chart.Timeframe != "5Y" || chart.Days != 1825 {
		t.Errorf("chart range = %s/%d, want 5Y/1825", chart.Timeframe, chart.Days)
	}
	// a single point has no change to measure
	if chart.PriceChangePct != 0 {
		t.Errorf("price change = %v, want 0", chart.PriceChangePct)
	}
}

func TestGetChartBadTimeframe(t *testing.T) {
	svc := newTestService(t, stubConfig(), func(w http.ResponseWriter, r *http.Request) {
		t.Error("bad timeframe must not reach the market API")
	})

	_, err := svc.GetChart("bitcoin", "2W")
	if !errors.Is(err, ErrBadTimeframe) {
		t.Errorf("GetChart() error = %v, want ErrBadTimeframe", err)
	}
}

func TestGetChartUnknownCoin(t *testing.T) {
	svc := newTestService(t, stubConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := svc.GetChart("not-a-coin", "1D")
	if !errors.Is(err, coingecko.ErrCoinNotFound) {
		t.Errorf("GetChart() error = %v, want ErrCoinNotFound", err)
	}
}

func TestGetChartEmptySeries(t *testing.T) {
	svc := newTestService(t, stubConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"prices":[],"total_volumes":[]}`)
	})

	_, err := svc.GetChart("bitcoin", "1D")
	if !errors.Is(err, ErrNoPriceData) {
		t.Errorf("GetChart() error = %v, want ErrNoPriceData", err)
	}
}
