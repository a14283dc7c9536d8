package commands

import (
	"context"
	"strings"

	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"

	"github.com/pkg/errors"
)

// CommandStats replies with the market statistics of an asset.
func (r *Router) CommandStats(ctx context.Context, _ Message, args []string) (Reply, error) {
	args = fields(args)
	if len(args) < 1 {
		return Reply{}, r.usage("stats bitcoin")
	}
	asset := strings.ToLower(args[0])

	stats, err := r.deps.Source.Stats(ctx, asset)
	if err != nil {
		return Reply{}, FetchError(errors.Wrap(err, "command stats"),
			translation.Translate("Incomplete data or coin not found."))
	}

	return Reply{Text: translation.Translate(
		"📊 Statistics for **%s (%s)**:\n"+
			"💰 Current price: $%s\n"+
			"📈 Market cap: $%s\n"+
			"📊 24h volume: $%s\n"+
			"📉 24h change: %s%%\n"+
			"🔁 Circulating supply: %s",
		helpers.EscapeMarkdown(stats.Name),
		strings.ToUpper(stats.Symbol),
		helpers.FormatPriceUS(stats.PriceUSD),
		helpers.FormatRoundedUS(stats.MarketCap),
		helpers.FormatRoundedUS(stats.Volume24h),
		helpers.FormatPercentage(stats.PriceChange24h),
		helpers.FormatSupplyUS(stats.CirculatingSupply),
	)}, nil
}
