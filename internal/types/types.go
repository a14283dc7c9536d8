package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ChannelID is an opaque notification destination. Discord snowflakes and
// Telegram chat ids are both numeric, so it is written as a JSON number when
// possible and accepted as either a number or a string when read.
type ChannelID string

func (c ChannelID) MarshalJSON() ([]byte, error) {
	if isInteger(string(c)) {
		return []byte(c), nil
	}
	return json.Marshal(string(c))
}

func isInteger(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (c *ChannelID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "channel id")
		}
		*c = ChannelID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "channel id")
	}
	*c = ChannelID(n.String())
	return nil
}

// AlertRecord is a price threshold waiting to be crossed.
type AlertRecord struct {
	AssetID      string    `json:"-"`
	TargetPrice  float64   `json:"price"`
	NotifyTarget ChannelID `json:"channel_id"`
	CreatedAt    string    `json:"created_at"`
}

// Alerts maps an asset id to its single active alert.
type Alerts map[string]AlertRecord

func (a Alerts) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]AlertRecord(a))
}

func (a *Alerts) UnmarshalJSON(data []byte) error {
	var raw map[string]AlertRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Alerts, len(raw))
	for asset, record := range raw {
		record.AssetID = asset
		out[asset] = record
	}
	*a = out
	return nil
}

// Clone returns a shallow copy safe to mutate independently.
func (a Alerts) Clone() Alerts {
	out := make(Alerts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
