package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlertsDecodeFileFormat(t *testing.T) {
	raw := `{"bitcoin": {"price": 50000, "channel_id": 123, "created_at": "2024-05-01 10:00:00.000000"},
		"ethereum": {"price": 3000.5, "channel_id": "1187654321098765432", "created_at": "x"}}`

	var alerts Alerts
	require.NoError(t, json.Unmarshal([]byte(raw), &alerts))
	require.Len(t, alerts, 2)

	btc := alerts["bitcoin"]
	require.Equal(t, "bitcoin", btc.AssetID)
	require.Equal(t, 50000.0, btc.TargetPrice)
	require.Equal(t, ChannelID("123"), btc.NotifyTarget)

	require.Equal(t, ChannelID("1187654321098765432"), alerts["ethereum"].NotifyTarget)
}

func TestChannelIDEncoding(t *testing.T) {
	cases := map[ChannelID]string{
		"123":                 `123`,
		"-1001234567890":      `-1001234567890`,
		"1187654321098765432": `1187654321098765432`,
		"007":                 `"007"`,
		"general":             `"general"`,
		"":                    `""`,
	}
	for id, want := range cases {
		got, err := json.Marshal(id)
		require.NoError(t, err)
		require.Equal(t, want, string(got), "id %q", id)
	}
}

func TestEmptyAlertsEncodeAsObject(t *testing.T) {
	var alerts Alerts
	got, err := json.Marshal(alerts)
	require.NoError(t, err)
	require.Equal(t, `{}`, string(got))
}

func TestCloneIsIndependent(t *testing.T) {
	a := Alerts{"bitcoin": {AssetID: "bitcoin", TargetPrice: 1}}
	b := a.Clone()
	delete(b, "bitcoin")
	require.Contains(t, a, "bitcoin")
}
