package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	require.Equal(t, "discord", GetString("platform"))
	require.Equal(t, 100, GetInt("cache_size"))
	require.Equal(t, time.Hour, GetDuration("cache_ttl"))
	require.Equal(t, time.Minute, GetDuration("alert_interval"))
	require.Equal(t, "!", GetString("command_prefix"))
	require.False(t, GetBool("unknown_command_reply"))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ALERT_INTERVAL", "15s")
	t.Setenv("PRICE_SOURCE", "coinpaprika")
	t.Setenv("UNKNOWN_COMMAND_REPLY", "true")

	require.Equal(t, 15*time.Second, GetDuration("alert_interval"))
	require.Equal(t, "coinpaprika", GetString("price_source"))
	require.True(t, GetBool("unknown_command_reply"))
}
