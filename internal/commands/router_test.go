package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crypto-alert-bot/internal/cache"
	"crypto-alert-bot/internal/chart"
	"crypto-alert-bot/internal/price"
	"crypto-alert-bot/internal/price/pricemock"
	"crypto-alert-bot/internal/store"
	"crypto-alert-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)

type fixture struct {
	router *Router
	source *pricemock.MockSource
	store  *store.Store
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	source := pricemock.NewMockSource(ctrl)
	s := store.New(filepath.Join(t.TempDir(), "alerts.json"))

	r := NewRouter(Deps{
		Source: source,
		Store:  s,
		Charts: chart.New(chart.WithSize(640, 320)),
		Now:    func() time.Time { return fixedNow },
	}, opts...)

	return &fixture{router: r, source: source, store: s}
}

func (f *fixture) send(t *testing.T, text string) (Reply, bool) {
	t.Helper()
	return f.router.Dispatch(context.Background(), Message{Text: text, ChannelID: "123", AuthorID: "42"})
}

func TestDispatchIgnoresOwnMessages(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, ok := f.router.Dispatch(context.Background(), Message{Text: "!help", ChannelID: "1", FromSelf: true})
	require.False(t, ok)
}

func TestDispatchIgnoresPlainText(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, ok := f.send(t, "hello there")
	require.False(t, ok)
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	_, ok := newFixture(t).send(t, "!moon bitcoin")
	require.False(t, ok)

	reply, ok := newFixture(t, WithUnknownCommandReply(true)).send(t, "!moon bitcoin")
	require.True(t, ok)
	require.Contains(t, reply.Text, "!help")
}

func TestCustomPrefix(t *testing.T) {
	t.Parallel()

	f := newFixture(t, WithPrefix("$"))
	reply, ok := f.send(t, "$say hi")
	require.True(t, ok)
	require.Equal(t, "hi", reply.Text)

	_, ok = f.send(t, "!say hi")
	require.False(t, ok)
}

func TestSay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	reply, ok := f.send(t, "!say Hello,  world!")
	require.True(t, ok)
	require.Equal(t, "Hello,  world!", reply.Text)

	reply, ok = f.send(t, "!say")
	require.True(t, ok)
	require.Equal(t, "Wrong format. Example: `!say Hello`", reply.Text)
}

func TestPrice(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t)
	f.source.EXPECT().Price(gomock.Any(), "bitcoin").Return(51000.0, nil)

	// Act
	reply, ok := f.send(t, "!price BitCoin")

	// Assert
	require.True(t, ok)
	require.Equal(t, "Current price of BITCOIN: $51000", reply.Text)
	require.Equal(t, 1, strings.Count(reply.Text, "51000"))
}

func TestPriceNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.source.EXPECT().Price(gomock.Any(), "nocoin").Return(0.0, price.ErrNotFound)

	reply, ok := f.send(t, "!price nocoin")
	require.True(t, ok)
	require.Equal(t, "Coin not found. Try another coin name.", reply.Text)
}

func TestPriceUpstreamDown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.source.EXPECT().Price(gomock.Any(), "bitcoin").
		Return(0.0, &cache.UnavailableError{Key: "k", Err: errors.New("status 429")})

	reply, ok := f.send(t, "!price bitcoin")
	require.True(t, ok)
	require.Equal(t, "Coin not found. Try another coin name.", reply.Text)
}

func TestPriceUsage(t *testing.T) {
	t.Parallel()

	reply, ok := newFixture(t).send(t, "!price")
	require.True(t, ok)
	require.Equal(t, "Wrong format. Example: `!price bitcoin`", reply.Text)
}

func TestStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.source.EXPECT().Stats(gomock.Any(), "bitcoin").Return(&price.Stats{
		ID:                "bitcoin",
		Name:              "Bitcoin",
		Symbol:            "btc",
		PriceUSD:          61234.5,
		MarketCap:         1200000000000,
		Volume24h:         35000000000,
		PriceChange24h:    -1.234,
		CirculatingSupply: 19700000,
	}, nil)

	reply, ok := f.send(t, "!stats bitcoin")
	require.True(t, ok)
	require.Contains(t, reply.Text, "**Bitcoin (BTC)**")
	require.Contains(t, reply.Text, "$61,234.50")
	require.Contains(t, reply.Text, "$1,200,000,000,000")
	require.Contains(t, reply.Text, "-1.23%")
	require.Contains(t, reply.Text, "19,700,000")
}

func TestStatsIncomplete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.source.EXPECT().Stats(gomock.Any(), "bitcoin").Return(nil, price.ErrNotFound)

	reply, ok := f.send(t, "!stats bitcoin")
	require.True(t, ok)
	require.Equal(t, "Incomplete data or coin not found.", reply.Text)
}

func TestChart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	points := make([]price.Point, 48)
	for i := range points {
		points[i] = price.Point{Time: start.Add(time.Duration(i) * time.Hour), Price: 60000 + float64(i*10)}
	}
	f.source.EXPECT().History(gomock.Any(), "bitcoin", 7).Return(points, nil)

	reply, ok := f.send(t, "!chart bitcoin")
	require.True(t, ok)
	require.Equal(t, "bitcoin_chart.png", reply.ImageName)
	require.True(t, bytes.HasPrefix(reply.Image, []byte("\x89PNG")))
}

func TestChartNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.source.EXPECT().History(gomock.Any(), "nocoin", 7).Return(nil, price.ErrNotFound)

	reply, ok := f.send(t, "!chart nocoin")
	require.True(t, ok)
	require.Equal(t, "Data not found. Make sure the coin name is valid, e.g. `!chart bitcoin`", reply.Text)
	require.Empty(t, reply.Image)
}

func TestChartRenderFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// one point cannot be drawn as a line
	f.source.EXPECT().History(gomock.Any(), "bitcoin", 7).
		Return([]price.Point{{Time: fixedNow, Price: 1}}, nil)

	reply, ok := f.send(t, "!chart bitcoin")
	require.True(t, ok)
	require.Equal(t, "An error occurred while generating the chart.", reply.Text)
}

func TestCandle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]price.Candle, 30)
	for i := range candles {
		base := 100 + float64(i%7)
		candles[i] = price.Candle{Time: start.AddDate(0, 0, i), Open: base, High: base + 3, Low: base - 3, Close: base + 1}
	}
	f.source.EXPECT().OHLC(gomock.Any(), "ethereum", 30).Return(candles, nil)

	reply, ok := f.send(t, "!candle ethereum")
	require.True(t, ok)
	require.Equal(t, "ethereum_candle.png", reply.ImageName)
	require.True(t, bytes.HasPrefix(reply.Image, []byte("\x89PNG")))
}

func TestHelpListsEveryCommand(t *testing.T) {
	t.Parallel()

	reply, ok := newFixture(t).send(t, "!help")
	require.True(t, ok)
	for _, cmd := range []string{"!say", "!price", "!stats", "!chart", "!candle", "!alert set", "!alert list", "!alert remove"} {
		require.Contains(t, reply.Text, cmd)
	}
	require.NotContains(t, reply.Text, "{p}")
}

func TestAlertSetThenList(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	reply, ok := f.send(t, "!alert set Bitcoin 50000")
	require.True(t, ok)
	require.Equal(t, "Price alert for bitcoin set at $50000.", reply.Text)

	reply, ok = f.send(t, "!alert list")
	require.True(t, ok)
	require.Contains(t, reply.Text, "BITCOIN - Target: $50000")

	alerts, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.AlertRecord{
		AssetID:      "bitcoin",
		TargetPrice:  50000,
		NotifyTarget: "123",
		CreatedAt:    "2024-05-01 10:00:00.000000",
	}, alerts["bitcoin"])
}

func TestAlertSetOverwrites(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.send(t, "!alert set bitcoin 50000")
	f.send(t, "!alert set bitcoin 65000")

	reply, _ := f.send(t, "!alert list")
	require.Contains(t, reply.Text, "$65000")
	require.NotContains(t, reply.Text, "$50000")
	require.Equal(t, 1, strings.Count(reply.Text, "BITCOIN"))
}

func TestAlertSetRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"missing price", "!alert set bitcoin", "Wrong format. Example: `!alert set bitcoin 50000`"},
		{"missing everything", "!alert set", "Wrong format. Example: `!alert set bitcoin 50000`"},
		{"not a number", "!alert set bitcoin abc", "Price must be a positive number. Example: `!alert set bitcoin 50000`"},
		{"negative", "!alert set bitcoin -5", "Price must be a positive number. Example: `!alert set bitcoin 50000`"},
		{"nan", "!alert set bitcoin NaN", "Price must be a positive number. Example: `!alert set bitcoin 50000`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			reply, ok := f.send(t, tt.text)

			require.True(t, ok)
			require.Equal(t, tt.want, reply.Text)
			alerts, err := f.store.Load(context.Background())
			require.NoError(t, err)
			require.Empty(t, alerts)
		})
	}
}

func TestAlertListEmpty(t *testing.T) {
	t.Parallel()

	reply, ok := newFixture(t).send(t, "!alert list")
	require.True(t, ok)
	require.Equal(t, "No price alerts set.", reply.Text)
}

func TestAlertRemove(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.send(t, "!alert set bitcoin 50000")

	reply, _ := f.send(t, "!alert remove BITCOIN")
	require.Equal(t, "Alert for bitcoin has been removed.", reply.Text)

	reply, _ = f.send(t, "!alert remove bitcoin")
	require.Equal(t, "No alert found for bitcoin.", reply.Text)

	reply, _ = f.send(t, "!alert remove")
	require.Equal(t, "Wrong format. Example: `!alert remove bitcoin`", reply.Text)
}

func TestAlertWithoutSubcommandIsUnknown(t *testing.T) {
	t.Parallel()

	_, ok := newFixture(t).send(t, "!alert")
	require.False(t, ok)
}

func TestPanicIsReportedAsGenericError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.source.EXPECT().Price(gomock.Any(), "bitcoin").DoAndReturn(func(context.Context, string) (float64, error) {
		panic("boom")
	})

	reply, ok := f.send(t, "!price bitcoin")
	require.True(t, ok)
	require.Equal(t, "Something went wrong, please try again later.", reply.Text)

	// the router keeps working after a panic
	reply, ok = f.send(t, "!say still here")
	require.True(t, ok)
	require.Equal(t, "still here", reply.Text)
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := FetchError(cause, "not found")

	var target *Error
	require.True(t, errors.As(errors.Wrap(err, "outer"), &target))
	require.Equal(t, KindFetch, target.Kind)
	require.ErrorIs(t, err, cause)
	require.Equal(t, KindRender, RenderError(cause).Kind)
	require.Equal(t, KindInput, InputError("x").Kind)
}
