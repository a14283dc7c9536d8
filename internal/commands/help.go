package commands

import (
	"context"
	"strings"

	"crypto-alert-bot/lib/translation"
)

// {p} is replaced with the command prefix.
const helpText = "**Bot commands:**\n\n" +
	"1. `{p}say <text>` - Repeats your text. Example: `{p}say Hello, world!`\n" +
	"2. `{p}price <coin>` - Shows the current price of a cryptocurrency. Example: `{p}price bitcoin`\n" +
	"3. `{p}stats <coin>` - Shows price, market cap, volume and 24h change. Example: `{p}stats ethereum`\n" +
	"4. `{p}chart <coin>` - Shows a price chart for the last 7 days. Example: `{p}chart bitcoin`\n" +
	"5. `{p}candle <coin>` - Shows a 30 day candlestick chart with MA20 and RSI. Example: `{p}candle bitcoin`\n" +
	"6. `{p}alert set <coin> <price>` - Notifies this channel when the price reaches the target. Example: `{p}alert set bitcoin 50000`\n" +
	"7. `{p}alert list` - Lists the active price alerts.\n" +
	"8. `{p}alert remove <coin>` - Removes the alert for a coin. Example: `{p}alert remove bitcoin`\n\n" +
	"**Note:** Make sure the coin name is correct. The bot tells you when the format is wrong."

// CommandHelp lists every command.
func (r *Router) CommandHelp(_ context.Context, _ Message, _ []string) (Reply, error) {
	return Reply{Text: strings.ReplaceAll(translation.Translate(helpText), "{p}", r.prefix)}, nil
}
