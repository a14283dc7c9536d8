package price

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"crypto-alert-bot/internal/cache"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const paprikaBaseURL = "https://api.coinpaprika.com/v1"

// Paprika reads prices from CoinPaprika. Queries such as "bitcoin" or "btc"
// are resolved to CoinPaprika ids ("btc-bitcoin") through the search API.
type Paprika struct {
	client *coinpaprika.Client
	cache  *cache.PriceCache
	now    func() time.Time
}

func NewPaprika(client *coinpaprika.Client, c *cache.PriceCache) *Paprika {
	return &Paprika{client: client, cache: c, now: time.Now}
}

func (p *Paprika) Name() string { return "coinpaprika" }

func (p *Paprika) Price(ctx context.Context, asset string) (float64, error) {
	ticker, err := p.ticker(ctx, asset)
	if err != nil {
		return 0, err
	}
	quote, ok := ticker.Quotes["USD"]
	if !ok || quote.Price == nil {
		return 0, errors.Wrapf(ErrNotFound, "coinpaprika: %s is not actively traded", asset)
	}
	return *quote.Price, nil
}

func (p *Paprika) Stats(ctx context.Context, asset string) (*Stats, error) {
	ticker, err := p.ticker(ctx, asset)
	if err != nil {
		return nil, err
	}

	quote, ok := ticker.Quotes["USD"]
	if !ok || quote.Price == nil || ticker.Name == nil || ticker.ID == nil {
		return nil, errors.Wrapf(ErrNotFound, "coinpaprika: incomplete data for %s", asset)
	}

	stats := &Stats{
		ID:       *ticker.ID,
		Name:     *ticker.Name,
		PriceUSD: *quote.Price,
	}
	if ticker.Symbol != nil {
		stats.Symbol = *ticker.Symbol
	}
	if quote.MarketCap != nil {
		stats.MarketCap = *quote.MarketCap
	}
	if quote.Volume24h != nil {
		stats.Volume24h = *quote.Volume24h
	}
	if quote.PercentChange24h != nil {
		stats.PriceChange24h = *quote.PercentChange24h
	}
	if ticker.CirculatingSupply != nil {
		stats.CirculatingSupply = float64(*ticker.CirculatingSupply)
	}
	return stats, nil
}

func (p *Paprika) History(ctx context.Context, asset string, days int) ([]Point, error) {
	rows, err := p.historical(ctx, asset, days, "2h")
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		if r.Timestamp == nil || r.Price == nil {
			continue
		}
		points = append(points, Point{Time: r.Timestamp.UTC(), Price: *r.Price})
	}
	if len(points) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "coinpaprika: no prices for %s", asset)
	}
	return points, nil
}

// OHLC buckets historical ticks into daily candles; the free ticker history
// endpoint is the only series available without a paid plan.
func (p *Paprika) OHLC(ctx context.Context, asset string, days int) ([]Candle, error) {
	points, err := p.History(ctx, asset, days)
	if err != nil {
		return nil, err
	}
	return bucketCandles(points, 24*time.Hour), nil
}

func (p *Paprika) ticker(ctx context.Context, query string) (*coinpaprika.Ticker, error) {
	id, err := p.resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	opts := &coinpaprika.TickersOptions{Quotes: "USD"}
	key := cache.Key(paprikaBaseURL+"/tickers/"+id, url.Values{"quotes": {opts.Quotes}})
	v, err := p.cache.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return p.client.Tickers.GetByID(id, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*coinpaprika.Ticker), nil
}

func (p *Paprika) historical(ctx context.Context, query string, days int, interval string) ([]*coinpaprika.TickerHistorical, error) {
	id, err := p.resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	start := p.now().UTC().Add(-time.Duration(days) * 24 * time.Hour).Truncate(time.Hour)
	opts := &coinpaprika.TickersHistoricalOptions{
		Quote:    "USD",
		Limit:    5000,
		Interval: interval,
		Start:    start,
	}
	key := cache.Key(paprikaBaseURL+"/tickers/"+id+"/historical", url.Values{
		"quote":    {opts.Quote},
		"interval": {interval},
		"start":    {start.Format(time.RFC3339)},
	})
	v, err := p.cache.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return p.client.Tickers.GetHistoricalTickersByID(id, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*coinpaprika.TickerHistorical), nil
}

// resolve maps a free-form query to a CoinPaprika coin id. Ids already in
// "symbol-name" form are used as given.
func (p *Paprika) resolve(ctx context.Context, query string) (string, error) {
	if strings.Contains(query, "-") {
		return query, nil
	}

	key := cache.Key(paprikaBaseURL+"/search", url.Values{"q": {query}, "c": {"currencies"}})
	v, err := p.cache.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return p.searchCoin(query)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", errors.Wrapf(ErrNotFound, "coinpaprika: %s", query)
		}
		return "", err
	}
	return v.(string), nil
}

func (p *Paprika) searchCoin(query string) (string, error) {
	searchOpts := &coinpaprika.SearchOptions{
		Query:      query,
		Categories: "currencies",
		Modifier:   "symbol_search",
	}
	result, err := p.client.Search.Search(searchOpts)
	if err != nil || len(result.Currencies) == 0 {
		log.Debugf("No results for symbol search, trying name search for '%s'", query)
		searchOpts = &coinpaprika.SearchOptions{Query: query, Categories: "currencies"}
		result, err = p.client.Search.Search(searchOpts)
		if err != nil {
			return "", errors.Wrap(err, "coinpaprika search")
		}
	}
	if len(result.Currencies) == 0 || result.Currencies[0].ID == nil {
		return "", ErrNotFound
	}

	log.Debugf("Best match for query '%s' is: %s", query, *result.Currencies[0].ID)
	return *result.Currencies[0].ID, nil
}

func bucketCandles(points []Point, width time.Duration) []Candle {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	var candles []Candle
	for _, pt := range sorted {
		bucket := pt.Time.Truncate(width)
		if n := len(candles); n > 0 && candles[n-1].Time.Equal(bucket) {
			c := &candles[n-1]
			c.High = max(c.High, pt.Price)
			c.Low = min(c.Low, pt.Price)
			c.Close = pt.Price
			continue
		}
		candles = append(candles, Candle{Time: bucket, Open: pt.Price, High: pt.Price, Low: pt.Price, Close: pt.Price})
	}
	return candles
}
