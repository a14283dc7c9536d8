package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"crypto-alert-bot/internal/cache"
	"crypto-alert-bot/internal/httpx"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTestCoinGecko(t *testing.T, handler http.HandlerFunc) (*CoinGecko, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewCoinGecko(srv.URL, "", httpx.New(2*time.Second), cache.New(10, time.Hour)), &calls
}

func TestCoinGeckoPrice(t *testing.T) {
	t.Parallel()

	g, calls := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/simple/price", r.URL.Path)
		require.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		require.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"bitcoin": {"usd": 51000}}`))
	})

	p, err := g.Price(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, 51000.0, p)

	// served from cache
	_, err = g.Price(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())
}

func TestCoinGeckoPriceUnknownAsset(t *testing.T) {
	t.Parallel()

	g, _ := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := g.Price(context.Background(), "notacoin")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCoinGeckoFailuresAreUnavailable(t *testing.T) {
	t.Parallel()

	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"bitcoin": `))
		},
	}
	for name, handler := range cases {
		handler := handler
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			g, calls := newTestCoinGecko(t, handler)
			_, err := g.Price(context.Background(), "bitcoin")
			require.ErrorIs(t, err, cache.ErrUnavailable)

			// failures are not cached
			_, err = g.Price(context.Background(), "bitcoin")
			require.Error(t, err)
			require.EqualValues(t, 2, calls.Load())
		})
	}
}

func TestCoinGeckoStats(t *testing.T) {
	t.Parallel()

	g, _ := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/bitcoin", r.URL.Path)
		require.Equal(t, "false", r.URL.Query().Get("tickers"))
		w.Write([]byte(`{
			"id": "bitcoin", "name": "Bitcoin", "symbol": "btc",
			"market_data": {
				"current_price": {"usd": 51000.5},
				"market_cap": {"usd": 1000000000000},
				"total_volume": {"usd": 25000000000},
				"price_change_percentage_24h": -1.25,
				"circulating_supply": 19700000
			}
		}`))
	})

	s, err := g.Stats(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, &Stats{
		ID:                "bitcoin",
		Name:              "Bitcoin",
		Symbol:            "BTC",
		PriceUSD:          51000.5,
		MarketCap:         1e12,
		Volume24h:         2.5e10,
		PriceChange24h:    -1.25,
		CirculatingSupply: 19700000,
	}, s)
}

func TestCoinGeckoStatsIncomplete(t *testing.T) {
	t.Parallel()

	g, _ := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "bitcoin", "name": "Bitcoin", "symbol": "btc"}`))
	})

	_, err := g.Stats(context.Background(), "bitcoin")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestCoinGeckoHistoryAndOHLC(t *testing.T) {
	t.Parallel()

	g, _ := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coins/bitcoin/market_chart":
			require.Equal(t, "7", r.URL.Query().Get("days"))
			w.Write([]byte(`{"prices": [[1714521600000, 60000], [1714525200000, 60500.5]]}`))
		case "/coins/bitcoin/ohlc":
			require.Equal(t, "30", r.URL.Query().Get("days"))
			w.Write([]byte(`[[1714521600000, 1, 3, 0.5, 2], [1714608000000, 2, 4, 1.5, 3]]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	points, err := g.History(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), points[0].Time)
	require.Equal(t, 60500.5, points[1].Price)

	candles, err := g.OHLC(context.Background(), "bitcoin", 30)
	require.NoError(t, err)
	require.Equal(t, Candle{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 3, Low: 0.5, Close: 2}, candles[0])
	require.Len(t, candles, 2)
}

func TestCoinGeckoSendsAPIKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("x-cg-demo-api-key"))
		require.Equal(t, "crypto-alert-bot/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"ethereum": {"usd": 3000}}`))
	}))
	defer srv.Close()

	g := NewCoinGecko(srv.URL, "secret", httpx.New(time.Second), cache.New(10, time.Hour))
	p, err := g.Price(context.Background(), "ethereum")
	require.NoError(t, err)
	require.Equal(t, 3000.0, p)
}

func TestBucketCandles(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	points := []Point{
		{Time: day.Add(26 * time.Hour), Price: 7},
		{Time: day.Add(2 * time.Hour), Price: 10},
		{Time: day.Add(6 * time.Hour), Price: 12},
		{Time: day.Add(10 * time.Hour), Price: 9},
		{Time: day.Add(25 * time.Hour), Price: 8},
	}

	candles := bucketCandles(points, 24*time.Hour)
	require.Equal(t, []Candle{
		{Time: day, Open: 10, High: 12, Low: 9, Close: 9},
		{Time: day.Add(24 * time.Hour), Open: 8, High: 8, Low: 7, Close: 7},
	}, candles)
}
