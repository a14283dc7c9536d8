package chart

import (
	"crypto-alert-bot/internal/price"

	"github.com/pkg/errors"
	gochart "github.com/wcharczuk/go-chart/v2"
)

// CandleSeries draws OHLC candles. It reports each candle as a high/low band
// so the chart's y range covers the wicks.
type CandleSeries struct {
	Name    string
	Style   gochart.Style
	Candles []price.Candle
}

func (cs CandleSeries) GetName() string { return cs.Name }

func (cs CandleSeries) GetStyle() gochart.Style { return cs.Style }

func (cs CandleSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }

func (cs CandleSeries) Len() int { return len(cs.Candles) }

func (cs CandleSeries) GetBoundedValues(index int) (x, y1, y2 float64) {
	c := cs.Candles[index]
	return gochart.TimeToFloat64(c.Time), c.High, c.Low
}

func (cs CandleSeries) Validate() error {
	for i, c := range cs.Candles {
		if c.Low > c.High {
			return errors.Errorf("candle %d: low %v above high %v", i, c.Low, c.High)
		}
	}
	return nil
}

func (cs CandleSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, defaults gochart.Style) {
	if len(cs.Candles) == 0 {
		return
	}

	bodyWidth := int(float64(canvasBox.Width()) / float64(len(cs.Candles)) * 0.6)
	if bodyWidth < 1 {
		bodyWidth = 1
	}
	half := bodyWidth / 2

	for _, c := range cs.Candles {
		x := canvasBox.Left + xrange.Translate(gochart.TimeToFloat64(c.Time))
		yHigh := canvasBox.Bottom - yrange.Translate(c.High)
		yLow := canvasBox.Bottom - yrange.Translate(c.Low)
		yOpen := canvasBox.Bottom - yrange.Translate(c.Open)
		yClose := canvasBox.Bottom - yrange.Translate(c.Close)

		color := risingColor
		if c.Close < c.Open {
			color = fallingColor
		}

		r.SetStrokeColor(color)
		r.SetStrokeWidth(1)
		r.MoveTo(x, yHigh)
		r.LineTo(x, yLow)
		r.Stroke()

		top, bottom := yOpen, yClose
		if top > bottom {
			top, bottom = bottom, top
		}
		if bottom == top {
			bottom++
		}

		r.SetFillColor(color)
		r.SetStrokeColor(color)
		r.MoveTo(x-half, top)
		r.LineTo(x+half, top)
		r.LineTo(x+half, bottom)
		r.LineTo(x-half, bottom)
		r.LineTo(x-half, top)
		r.Close()
		r.FillStroke()
	}
}
