package price

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound means the upstream answered but knows nothing about the asset,
// or its payload lacks the fields needed.
var ErrNotFound = errors.New("asset not found")

// Stats represents the market details of a cryptocurrency in USD.
type Stats struct {
	ID                string
	Name              string
	Symbol            string
	PriceUSD          float64
	MarketCap         float64
	Volume24h         float64
	PriceChange24h    float64
	CirculatingSupply float64
}

// Point is one sample of a price series.
type Point struct {
	Time  time.Time
	Price float64
}

// Candle is one OHLC bucket.
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Source is an upstream market data API. Every method returns ErrNotFound for
// unknown assets and a cache.ErrUnavailable for transport or status failures.
//
//go:generate mockgen -package=pricemock -destination=pricemock/source.go -source=price.go Source
type Source interface {
	Name() string
	Price(ctx context.Context, asset string) (float64, error)
	Stats(ctx context.Context, asset string) (*Stats, error)
	History(ctx context.Context, asset string, days int) ([]Point, error)
	OHLC(ctx context.Context, asset string, days int) ([]Candle, error)
}
