package commands

import (
	"context"
	"fmt"
	"strings"

	"crypto-alert-bot/lib/translation"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	chartDays  = 7
	candleDays = 30
)

// CommandChart replies with a line chart of the last week's prices.
func (r *Router) CommandChart(ctx context.Context, _ Message, args []string) (Reply, error) {
	args = fields(args)
	if len(args) < 1 {
		return Reply{}, r.usage("chart bitcoin")
	}
	asset := strings.ToLower(args[0])

	points, err := r.deps.Source.History(ctx, asset, chartDays)
	if err != nil || len(points) == 0 {
		if err == nil {
			err = errors.New("empty price history")
		}
		return Reply{}, FetchError(errors.Wrap(err, "command chart"),
			translation.Translate("Data not found. Make sure the coin name is valid, e.g. `%schart bitcoin`", r.prefix))
	}

	img, err := r.deps.Charts.Line(translation.Translate("%s price, last 7 days", title(asset)), points)
	if err != nil {
		return Reply{}, RenderError(err)
	}

	return Reply{Image: img, ImageName: fmt.Sprintf("%s_chart.png", asset)}, nil
}

// CommandCandle replies with a 30 day candlestick chart with MA20 and RSI14.
func (r *Router) CommandCandle(ctx context.Context, _ Message, args []string) (Reply, error) {
	args = fields(args)
	if len(args) < 1 {
		return Reply{}, r.usage("candle bitcoin")
	}
	asset := strings.ToLower(args[0])

	candles, err := r.deps.Source.OHLC(ctx, asset, candleDays)
	if err != nil || len(candles) == 0 {
		if err == nil {
			err = errors.New("empty ohlc data")
		}
		return Reply{}, FetchError(errors.Wrap(err, "command candle"),
			translation.Translate("Data not found."))
	}

	img, err := r.deps.Charts.Candles(translation.Translate("%s - Candlestick, last 30 days", title(asset)), candles)
	if err != nil {
		return Reply{}, RenderError(err)
	}

	return Reply{Image: img, ImageName: fmt.Sprintf("%s_candle.png", asset)}, nil
}

func title(asset string) string {
	return cases.Title(language.English).String(asset)
}
