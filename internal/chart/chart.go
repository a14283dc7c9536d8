package chart

import (
	"bytes"
	"os"
	"time"

	"crypto-alert-bot/internal/price"
	"crypto-alert-bot/lib/helpers"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	maPeriod  = 20
	rsiPeriod = 14
)

var (
	lineColor    = drawing.Color{R: 0, G: 122, B: 255, A: 255}
	lineFill     = drawing.Color{R: 0, G: 122, B: 255, A: 40}
	maColor      = drawing.Color{R: 30, G: 60, B: 200, A: 255}
	rsiColor     = drawing.Color{R: 128, G: 0, B: 128, A: 255}
	risingColor  = drawing.Color{R: 38, G: 166, B: 91, A: 255}
	fallingColor = drawing.Color{R: 232, G: 65, B: 66, A: 255}
	gridColor    = drawing.Color{R: 200, G: 200, B: 200, A: 255}
)

// Renderer draws price charts as PNG images.
type Renderer struct {
	font   *truetype.Font
	width  int
	height int
}

type Option func(*Renderer)

// WithFont replaces the built-in font.
func WithFont(f *truetype.Font) Option {
	return func(r *Renderer) { r.font = f }
}

func WithSize(width, height int) Option {
	return func(r *Renderer) {
		r.width = width
		r.height = height
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{width: 1200, height: 500}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadFont parses a TrueType font file.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read font")
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse font %s", path)
	}
	return f, nil
}

// Line renders a price line chart.
func (r *Renderer) Line(title string, points []price.Point) ([]byte, error) {
	if len(points) < 2 {
		return nil, errors.New("not enough data points for a chart")
	}

	series := gochart.TimeSeries{
		Name: "Price",
		Style: gochart.Style{
			StrokeColor: lineColor,
			StrokeWidth: 2,
			FillColor:   lineFill,
			DotColor:    lineColor,
			DotWidth:    2,
		},
		XValues: make([]time.Time, 0, len(points)),
		YValues: make([]float64, 0, len(points)),
	}
	for _, p := range points {
		series.XValues = append(series.XValues, p.Time)
		series.YValues = append(series.YValues, p.Price)
	}

	graph := r.base(title)
	graph.XAxis.Name = "Date"
	graph.YAxis.Name = "Price (USD)"
	graph.Series = []gochart.Series{series}

	return render(graph)
}

// Candles renders OHLC candles with a moving average on the price axis and
// the relative strength index on the secondary axis.
func (r *Renderer) Candles(title string, candles []price.Candle) ([]byte, error) {
	if len(candles) < 2 {
		return nil, errors.New("not enough candles for a chart")
	}

	times := make([]time.Time, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		times[i] = c.Time
		closes[i] = c.Close
	}

	graph := r.base(title)
	graph.YAxis.Name = "Price (USD)"
	graph.YAxisSecondary = gochart.YAxis{
		Name:           "RSI",
		Range:          &gochart.ContinuousRange{Min: 0, Max: 100},
		ValueFormatter: func(v interface{}) string { return gochart.FloatValueFormatterWithFormat(v, "%.0f") },
	}
	graph.Series = []gochart.Series{
		CandleSeries{Name: "OHLC", Candles: candles},
	}

	if ma := MovingAverage(closes, maPeriod); len(ma) > 0 {
		graph.Series = append(graph.Series, gochart.TimeSeries{
			Name:    "MA20",
			Style:   gochart.Style{StrokeColor: maColor, StrokeWidth: 1.2},
			XValues: times[len(times)-len(ma):],
			YValues: ma,
		})
	}
	if rsi := RSI(closes, rsiPeriod); len(rsi) > 0 {
		graph.Series = append(graph.Series, gochart.TimeSeries{
			Name:    "RSI",
			YAxis:   gochart.YAxisSecondary,
			Style:   gochart.Style{StrokeColor: rsiColor, StrokeWidth: 1, StrokeDashArray: []float64{4, 2}},
			XValues: times[len(times)-len(rsi):],
			YValues: rsi,
		})
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	return render(graph)
}

func (r *Renderer) base(title string) gochart.Chart {
	return gochart.Chart{
		Title:  title,
		Width:  r.width,
		Height: r.height,
		Font:   r.font,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat("02-Jan"),
			GridMajorStyle: gochart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		YAxis: gochart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return helpers.FormatPriceUS(f)
				}
				return ""
			},
			GridMajorStyle: gochart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
	}
}

func render(graph gochart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "render chart")
	}
	return buf.Bytes(), nil
}
