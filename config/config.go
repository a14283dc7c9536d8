package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// A missing .env is fine, the process environment still applies.
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("platform", "PLATFORM")
		viper.BindEnv("discord_token", "DISCORD_TOKEN")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("alerts_file", "ALERTS_FILE")
		viper.BindEnv("cache_size", "CACHE_SIZE")
		viper.BindEnv("cache_ttl", "CACHE_TTL")
		viper.BindEnv("alert_interval", "ALERT_INTERVAL")
		viper.BindEnv("http_timeout", "HTTP_TIMEOUT")
		viper.BindEnv("price_source", "PRICE_SOURCE")
		viper.BindEnv("coingecko_base_url", "COINGECKO_BASE_URL")
		viper.BindEnv("coingecko_api_key", "COINGECKO_API_KEY")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("chart_font", "CHART_FONT")
		viper.BindEnv("command_prefix", "COMMAND_PREFIX")
		viper.BindEnv("unknown_command_reply", "UNKNOWN_COMMAND_REPLY")
		viper.BindEnv("locales_dir", "LOCALES_DIR")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "BOT_LANG")

		viper.SetDefault("platform", "discord")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("db_path", "bot.db")
		viper.SetDefault("alerts_file", "alerts.json")
		viper.SetDefault("cache_size", 100)
		viper.SetDefault("cache_ttl", time.Hour)
		viper.SetDefault("alert_interval", time.Minute)
		viper.SetDefault("http_timeout", 10*time.Second)
		viper.SetDefault("price_source", "coingecko")
		viper.SetDefault("coingecko_base_url", "https://api.coingecko.com/api/v3")
		viper.SetDefault("command_prefix", "!")
		viper.SetDefault("unknown_command_reply", false)
		viper.SetDefault("locales_dir", "locales")
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

// GetDuration accepts Go duration strings ("90s", "1h") from the environment.
func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}
