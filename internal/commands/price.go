package commands

import (
	"context"
	"strings"

	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"

	"github.com/pkg/errors"
)

// CommandPrice replies with the current USD price of an asset.
func (r *Router) CommandPrice(ctx context.Context, _ Message, args []string) (Reply, error) {
	args = fields(args)
	if len(args) < 1 {
		return Reply{}, r.usage("price bitcoin")
	}
	asset := strings.ToLower(args[0])

	p, err := r.deps.Source.Price(ctx, asset)
	if err != nil {
		return Reply{}, FetchError(errors.Wrap(err, "command price"),
			translation.Translate("Coin not found. Try another coin name."))
	}

	return Reply{Text: translation.Translate("Current price of %s: $%s", strings.ToUpper(asset), helpers.FormatPriceRaw(p))}, nil
}
