package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"crypto-alert-bot/config"
	"crypto-alert-bot/internal/alert"
	"crypto-alert-bot/internal/cache"
	"crypto-alert-bot/internal/chart"
	"crypto-alert-bot/internal/commands"
	"crypto-alert-bot/internal/database"
	"crypto-alert-bot/internal/discord"
	"crypto-alert-bot/internal/httpx"
	"crypto-alert-bot/internal/metrics"
	"crypto-alert-bot/internal/price"
	"crypto-alert-bot/internal/store"
	"crypto-alert-bot/internal/telegram"
	"crypto-alert-bot/lib/translation"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const metricsSaveInterval = 5 * time.Minute

// platform is a chat transport that can also deliver alert notifications.
type platform interface {
	alert.Notifier
	Run(ctx context.Context) error
}

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	translation.Configure(config.GetString("locales_dir"), config.GetString("lang"))

	db, err := database.InitDB(config.GetString("db_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	botMetrics := metrics.NewBotMetrics()
	botMetrics.LoadFromDB(db)

	priceCache := cache.New(config.GetInt("cache_size"), config.GetDuration("cache_ttl"))
	botMetrics.RegisterCache(priceCache)

	source, err := newSource(priceCache)
	if err != nil {
		log.Fatalf("Failed to create price source: %v", err)
	}

	renderer, err := newRenderer()
	if err != nil {
		log.Fatalf("Failed to create chart renderer: %v", err)
	}

	alerts := store.New(config.GetString("alerts_file"))

	router := commands.NewRouter(commands.Deps{
		Source:  source,
		Store:   alerts,
		Charts:  renderer,
		Metrics: botMetrics,
	},
		commands.WithPrefix(config.GetString("command_prefix")),
		commands.WithUnknownCommandReply(config.GetBool("unknown_command_reply")),
	)

	bot, err := newPlatform(router)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	evaluator := alert.NewEvaluator(alerts, source, bot,
		alert.WithInterval(config.GetDuration("alert_interval")),
		alert.WithMetrics(botMetrics),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		evaluator.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		saveMetricsPeriodically(ctx, botMetrics, db)
	}()

	server := launchMetricsAndHealthServer(config.GetInt("metrics_port"), botMetrics)

	log.Infof("Bot running on %s with %s prices", config.GetString("platform"), source.Name())
	if err := bot.Run(ctx); err != nil {
		log.Errorf("Bot stopped: %v", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to stop metrics server: %v", err)
	}

	// lets a running alert cycle finish
	wg.Wait()

	botMetrics.SaveToDB(db)
	log.Info("Metrics saved, shutting down...")
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting crypto alert bot...")
}

func newSource(c *cache.PriceCache) (price.Source, error) {
	switch name := strings.ToLower(config.GetString("price_source")); name {
	case "coingecko":
		return price.NewCoinGecko(
			config.GetString("coingecko_base_url"),
			config.GetString("coingecko_api_key"),
			httpx.New(config.GetDuration("http_timeout")),
			c,
		), nil
	case "coinpaprika":
		httpClient := httpx.New(config.GetDuration("http_timeout")).HTTP
		var client *coinpaprika.Client
		if apiProKey := config.GetString("api_pro_key"); apiProKey != "" {
			client = coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))
		} else {
			client = coinpaprika.NewClient(httpClient)
		}
		return price.NewPaprika(client, c), nil
	default:
		return nil, errors.Errorf("unknown price source %q", name)
	}
}

func newRenderer() (*chart.Renderer, error) {
	path := config.GetString("chart_font")
	if path == "" {
		return chart.New(), nil
	}
	font, err := chart.LoadFont(path)
	if err != nil {
		return nil, err
	}
	return chart.New(chart.WithFont(font)), nil
}

func newPlatform(router *commands.Router) (platform, error) {
	switch name := strings.ToLower(config.GetString("platform")); name {
	case "discord":
		token := config.GetString("discord_token")
		if token == "" {
			return nil, errors.New("DISCORD_TOKEN is not set")
		}
		return discord.NewBot(token, router, config.GetBool("debug"))
	case "telegram":
		token := config.GetString("telegram_bot_token")
		if token == "" {
			return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
		}
		return telegram.NewBot(telegram.BotConfig{
			Token:          token,
			Debug:          config.GetBool("debug"),
			UpdatesTimeout: 60,
		}, router)
	default:
		return nil, errors.Errorf("unknown platform %q", name)
	}
}

func saveMetricsPeriodically(ctx context.Context, m *metrics.BotMetrics, db *database.DB) {
	ticker := time.NewTicker(metricsSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SaveToDB(db)
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int, m *metrics.BotMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("Launching metrics and health endpoint on :%d", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics and health server failed: %v", err)
		}
	}()
	return server
}
