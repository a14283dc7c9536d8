package commands

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"

	"github.com/pkg/errors"
)

// CommandAlertSet stores a price alert for the asset, replacing any previous
// one. The notification goes to the channel the command came from.
func (r *Router) CommandAlertSet(ctx context.Context, msg Message, args []string) (Reply, error) {
	args = fields(args)
	if len(args) < 2 {
		return Reply{}, r.usage("alert set bitcoin 50000")
	}
	asset := strings.ToLower(args[0])

	target, err := strconv.ParseFloat(args[1], 64)
	if err != nil || math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return Reply{}, InputError(translation.Translate("Price must be a positive number. Example: `%salert set bitcoin 50000`", r.prefix))
	}

	record := types.AlertRecord{
		AssetID:      asset,
		TargetPrice:  target,
		NotifyTarget: msg.ChannelID,
		CreatedAt:    r.deps.Now().Format(helpers.CreatedAtLayout),
	}
	err = r.deps.Store.Update(ctx, func(alerts types.Alerts) error {
		alerts[asset] = record
		return nil
	})
	if err != nil {
		return Reply{}, errors.Wrap(err, "command alert set")
	}

	return Reply{Text: translation.Translate("Price alert for %s set at $%s.", asset, helpers.FormatPriceRaw(target))}, nil
}

// CommandAlertList shows every active alert, ordered by asset.
func (r *Router) CommandAlertList(ctx context.Context, _ Message, _ []string) (Reply, error) {
	alerts, err := r.deps.Store.Snapshot(ctx)
	if err != nil {
		return Reply{}, errors.Wrap(err, "command alert list")
	}
	if len(alerts) == 0 {
		return Reply{Text: translation.Translate("No price alerts set.")}, nil
	}

	assets := make([]string, 0, len(alerts))
	for asset := range alerts {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	now := r.deps.Now()
	lines := make([]string, 0, len(assets))
	for _, asset := range assets {
		a := alerts[asset]
		lines = append(lines, translation.Translate("%s - Target: $%s - Created: %s (%s)",
			strings.ToUpper(asset),
			helpers.FormatPriceRaw(a.TargetPrice),
			a.CreatedAt,
			helpers.FormatAge(a.CreatedAt, now),
		))
	}
	return Reply{Text: strings.Join(lines, "\n")}, nil
}

// CommandAlertRemove deletes the alert for an asset.
func (r *Router) CommandAlertRemove(ctx context.Context, _ Message, args []string) (Reply, error) {
	args = fields(args)
	if len(args) < 1 {
		return Reply{}, r.usage("alert remove bitcoin")
	}
	asset := strings.ToLower(args[0])

	var found bool
	err := r.deps.Store.Update(ctx, func(alerts types.Alerts) error {
		_, found = alerts[asset]
		delete(alerts, asset)
		return nil
	})
	if err != nil {
		return Reply{}, errors.Wrap(err, "command alert remove")
	}

	if !found {
		return Reply{Text: translation.Translate("No alert found for %s.", asset)}, nil
	}
	return Reply{Text: translation.Translate("Alert for %s has been removed.", asset)}, nil
}
