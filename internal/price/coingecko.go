package price

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto-alert-bot/internal/cache"
	"crypto-alert-bot/internal/httpx"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	maxPayloadBytes     = 8 << 20
)

// CoinGecko reads prices from the public CoinGecko API through a PriceCache.
type CoinGecko struct {
	baseURL string
	apiKey  string
	client  *httpx.Client
	cache   *cache.PriceCache
}

func NewCoinGecko(baseURL, apiKey string, client *httpx.Client, c *cache.PriceCache) *CoinGecko {
	if baseURL == "" {
		baseURL = defaultCoinGeckoURL
	}
	return &CoinGecko{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		cache:   c,
	}
}

func (g *CoinGecko) Name() string { return "coingecko" }

// Price returns the current USD price from /simple/price.
func (g *CoinGecko) Price(ctx context.Context, asset string) (float64, error) {
	body, err := g.get(ctx, "/simple/price", url.Values{
		"ids":           {asset},
		"vs_currencies": {"usd"},
	})
	if err != nil {
		return 0, err
	}

	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, errors.Wrap(err, "decode simple price")
	}
	quote, ok := payload[asset]["usd"]
	if !ok {
		return 0, errors.Wrapf(ErrNotFound, "coingecko: %s", asset)
	}
	return quote, nil
}

// Stats returns market data from /coins/{id}.
func (g *CoinGecko) Stats(ctx context.Context, asset string) (*Stats, error) {
	body, err := g.get(ctx, "/coins/"+url.PathEscape(asset), url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Symbol     string `json:"symbol"`
		MarketData *struct {
			CurrentPrice             map[string]float64 `json:"current_price"`
			MarketCap                map[string]float64 `json:"market_cap"`
			TotalVolume              map[string]float64 `json:"total_volume"`
			PriceChangePercentage24h *float64           `json:"price_change_percentage_24h"`
			CirculatingSupply        *float64           `json:"circulating_supply"`
		} `json:"market_data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decode coin")
	}
	if log.IsLevelEnabled(log.TraceLevel) {
		log.Trace(spew.Sdump(payload))
	}

	md := payload.MarketData
	if payload.Name == "" || md == nil {
		return nil, errors.Wrapf(ErrNotFound, "coingecko: incomplete data for %s", asset)
	}
	usd, ok := md.CurrentPrice["usd"]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "coingecko: incomplete data for %s", asset)
	}

	return &Stats{
		ID:                payload.ID,
		Name:              payload.Name,
		Symbol:            strings.ToUpper(payload.Symbol),
		PriceUSD:          usd,
		MarketCap:         md.MarketCap["usd"],
		Volume24h:         md.TotalVolume["usd"],
		PriceChange24h:    deref(md.PriceChangePercentage24h),
		CirculatingSupply: deref(md.CirculatingSupply),
	}, nil
}

// History returns the USD price series from /coins/{id}/market_chart.
func (g *CoinGecko) History(ctx context.Context, asset string, days int) ([]Point, error) {
	body, err := g.get(ctx, "/coins/"+url.PathEscape(asset)+"/market_chart", url.Values{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(days)},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decode market chart")
	}

	points := make([]Point, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		if len(p) < 2 {
			continue
		}
		points = append(points, Point{Time: fromMillis(p[0]), Price: p[1]})
	}
	if len(points) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "coingecko: no prices for %s", asset)
	}
	return points, nil
}

// OHLC returns USD candles from /coins/{id}/ohlc.
func (g *CoinGecko) OHLC(ctx context.Context, asset string, days int) ([]Candle, error) {
	body, err := g.get(ctx, "/coins/"+url.PathEscape(asset)+"/ohlc", url.Values{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(days)},
	})
	if err != nil {
		return nil, err
	}

	var rows [][]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, errors.Wrap(err, "decode ohlc")
	}

	candles := make([]Candle, 0, len(rows))
	for _, r := range rows {
		if len(r) < 5 {
			continue
		}
		candles = append(candles, Candle{Time: fromMillis(r[0]), Open: r[1], High: r[2], Low: r[3], Close: r[4]})
	}
	if len(candles) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "coingecko: no candles for %s", asset)
	}
	return candles, nil
}

func (g *CoinGecko) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	endpoint := g.baseURL + path
	key := cache.Key(endpoint, params)

	v, err := g.cache.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return g.fetch(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func (g *CoinGecko) fetch(ctx context.Context, rawURL string) (json.RawMessage, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", g.apiKey)
	}

	start := time.Now()
	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "coingecko request")
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"url":      rawURL,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("coingecko response")

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("coingecko: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read coingecko response")
	}
	if !json.Valid(body) {
		return nil, errors.New("coingecko: malformed payload")
	}
	return json.RawMessage(body), nil
}

func fromMillis(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
